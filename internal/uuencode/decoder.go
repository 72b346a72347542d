// Package uuencode implements the legacy uuencode byte transform: a
// per-line length prefix followed by 6-bit-per-character data groups
// decoded four characters at a time into three bytes, plus the
// begin/end framing lines that bound a uuencoded body.
//
// Grounded the same way as the yEnc transform in
// internal/yenc/decoder.go: a pure chunk-in/chunk-out function rather
// than an io.Reader pull, so a streaming caller can feed it exactly one
// line at a time without owning any decoder state itself beyond the
// rolling CRC.
package uuencode

import (
	"strings"

	"github.com/usenetkit/nzbdecode/internal/crc32x"
)

// sixBits maps a wire character to its 6-bit value, treating the
// legacy '`' (0x60) encoding of a zero group the same as a space.
func sixBits(c byte) byte {
	if c == 0x60 {
		return 0
	}
	return (c - 32) & 0x3F
}

// DecodeLine decodes one uuencoded data line (without its trailing
// CR/LF) and updates crcState with the bytes it produces. A line
// shorter than its declared length decodes only the characters present
// i.e. it never reads past the end of line.
func DecodeLine(line []byte, crcState uint32) (out []byte, newCRCState uint32) {
	if len(line) == 0 {
		return nil, crcState
	}
	var length int
	if line[0] == 0x60 {
		length = 0 // legacy: backtick stands in for a zero-length line
	} else {
		length = int(line[0]) - 32
	}
	if length < 0 {
		length = 0
	}
	if length > 45 {
		length = 45
	}
	data := line[1:]

	out = make([]byte, 0, length)
	i := 0
	for ; i+4 <= len(data) && len(out) < length; i += 4 {
		b0 := sixBits(data[i])
		b1 := sixBits(data[i+1])
		b2 := sixBits(data[i+2])
		b3 := sixBits(data[i+3])

		group := []byte{
			b0<<2 | b1>>4,
			b1<<4 | b2>>2,
			b2<<6 | b3,
		}
		remaining := length - len(out)
		if remaining < len(group) {
			group = group[:remaining]
		}
		out = append(out, group...)
	}
	// A trailing group of 2 or 3 characters (unpadded to a multiple of
	// 4, as the literal spec wire format allows) still encodes 1 or 2
	// more bytes; only a single leftover character encodes nothing.
	if rest := data[i:]; len(rest) >= 2 && len(out) < length {
		b0 := sixBits(rest[0])
		b1 := sixBits(rest[1])
		out = append(out, b0<<2|b1>>4)
		if len(rest) >= 3 && len(out) < length {
			b2 := sixBits(rest[2])
			out = append(out, b1<<4|b2>>2)
		}
	}
	if len(out) > length {
		out = out[:length]
	}

	crcState = crc32x.Update(crcState, out)
	return out, crcState
}

// IsBeginLine reports whether line starts a uuencode stream.
func IsBeginLine(line string) bool { return strings.HasPrefix(line, "begin ") }

// IsEndLine reports whether line is the uuencode terminator.
func IsEndLine(line string) bool {
	trimmed := strings.TrimRight(line, "\r\n")
	return trimmed == "end"
}

// Begin holds the fields parsed from a `begin MODE NAME` line.
type Begin struct {
	Mode string
	Name string
}

// ParseBeginLine parses a `begin <octal-mode> <filename>` line; the
// filename is the remainder of the line after the mode, trimmed only
// of its line ending so embedded spaces survive.
func ParseBeginLine(line string) Begin {
	trimmed := strings.TrimRight(line, "\r\n")
	rest := strings.TrimPrefix(trimmed, "begin ")
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return Begin{Mode: rest}
	}
	return Begin{Mode: rest[:sp], Name: rest[sp+1:]}
}
