package nzb

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parser reads NZB documents from a file path or an open reader.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens nzbPath and parses it as an NZB document.
func (p *Parser) ParseFile(nzbPath string) (*Document, error) {
	f, err := os.Open(nzbPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes an NZB document from r. A document declaring the
// ISO-8859-1 (Latin-1) encoding is converted to UTF-8 while reading;
// any other declared non-UTF-8 encoding is rejected.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if l := strings.ToLower(label); l != "iso-8859-1" && l != "latin1" {
			return nil, fmt.Errorf("nzb: unsupported encoding %q", label)
		}
		raw, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for _, b := range raw {
			sb.WriteRune(rune(b))
		}
		return strings.NewReader(sb.String()), nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
