// Package nntpwire implements the NNTP line protocol shared by every
// multi-line response: status-line parsing, single-line/multi-line
// classification, dot-unstuffing, and terminator detection. It owns no
// buffer itself — internal/article drives it against its own
// caller-filled region — so every function here takes a byte slice and
// reports how much of it a complete line consumed.
package nntpwire

import "bytes"

// MultiLine reports whether a given 3-digit NNTP status code is
// followed by a multi-line body, per the response classes named in the
// protocol's reply-code table (RFC 3977 and its predecessors).
func MultiLine(code int) bool {
	switch code {
	case 220, 221, 222, 224:
		return true
	default:
		return false
	}
}

// ParseStatusCode parses the leading three ASCII digits of a status
// line as a status code. It returns ok=false when the line doesn't
// start with exactly three digits — fewer (a truncated code) or more
// (a run of four or more digits) are both malformed, per the "status
// line absent or not three digits" classification.
func ParseStatusCode(line []byte) (code int, ok bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		code = code*10 + int(line[i]-'0')
		i++
	}
	if i != 3 {
		return 0, false
	}
	return code, true
}

// ScanLine finds the next CRLF-terminated line in buf starting at
// offset 0. It returns the line content (without the CRLF) and the
// number of bytes consumed including the CRLF. ok is false when buf
// has no complete line yet, in which case the caller must wait for
// more bytes before calling again.
func ScanLine(buf []byte) (line []byte, consumed int, ok bool) {
	idx := bytes.Index(buf, []byte("\r\n"))
	if idx < 0 {
		return nil, 0, false
	}
	return buf[:idx], idx + 2, true
}

// IsTerminator reports whether line (as returned by ScanLine, i.e.
// without its CRLF) is the bare "." that ends a multi-line response.
func IsTerminator(line []byte) bool {
	return len(line) == 1 && line[0] == '.'
}

// Unstuff reverses dot-stuffing: a line whose first byte is '.' had an
// extra '.' prepended on the wire, so exactly one leading '.' is
// stripped. Lines not starting with '.' are returned unchanged.
func Unstuff(line []byte) []byte {
	if len(line) > 0 && line[0] == '.' {
		return line[1:]
	}
	return line
}
