// Package nzb parses NZB files: the XML index that names, for each
// file in a Usenet release, the message-IDs of the articles that
// together make it up. Grounded on the teacher's own internal/nzb
// model, trimmed of the Newznab-indexer and download-orchestration
// fields this decoder core has no use for.
package nzb

import "encoding/xml"

// Document is the root of an NZB file.
type Document struct {
	XMLName xml.Name `xml:"nzb"`
	Files   []File   `xml:"file"`
}

// File is one release file, spread across one or more Segments.
type File struct {
	Subject  string    `xml:"subject,attr"`
	Poster   string    `xml:"poster,attr"`
	Groups   []string  `xml:"groups>group"`
	Segments []Segment `xml:"segments>segment"`
}

// Segment names a single article by its NNTP message-ID.
type Segment struct {
	XMLName   xml.Name `xml:"segment"`
	Number    int      `xml:"number,attr"`
	Bytes     int64    `xml:"bytes,attr"`
	MessageID string   `xml:",chardata"`
}

// TotalSize sums the declared article sizes across a file's segments.
func (f *File) TotalSize() int64 {
	var total int64
	for _, s := range f.Segments {
		total += s.Bytes
	}
	return total
}

// MessageIDs returns a file's segments in order, as bare message-IDs.
func (f *File) MessageIDs() []string {
	ids := make([]string, len(f.Segments))
	for i, s := range f.Segments {
		ids[i] = s.MessageID
	}
	return ids
}
