package yenc

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxPartSize is the per-article payload cap named in the spec (10
// MiB); a =ypart range wider than this is treated as invalid and its
// fields are zeroed rather than trusted.
const MaxPartSize = 10 << 20

// Begin holds the fields parsed from a =ybegin line.
type Begin struct {
	Line     uint64
	Size     uint64
	HasSize  bool
	Part     uint64
	HasPart  bool
	Total    uint64
	HasTotal bool
	Name     string
	HasName  bool
}

// Part holds the fields parsed from a =ypart line, already validated:
// invalid ranges (begin > end, begin == 0, or a span over MaxPartSize)
// leave Valid false and all three numeric fields zero.
type Part struct {
	Begin uint64 // 1-based, as on the wire
	End   uint64 // 1-based inclusive
	Size  uint64
	Valid bool
}

// End holds the fields parsed from a =yend line. CRC fields are unset
// (Has* false) when the footer lacks them or they fail validation.
// CRCMalformed distinguishes "field absent" from "field present but
// rejected by parseFooterCRC" for callers that log the latter as an
// invalid-CRC condition rather than treating it as simply CRC-less.
type End struct {
	Size         uint64
	HasSize      bool
	Part         uint64
	HasPart      bool
	CRC32        uint32
	HasCRC32     bool
	PCRC32       uint32
	HasPCRC32    bool
	CRCMalformed bool
}

// IsBeginLine reports whether line starts a yEnc header.
func IsBeginLine(line string) bool { return strings.HasPrefix(line, "=ybegin") }

// IsPartLine reports whether line starts a yEnc multi-part header.
func IsPartLine(line string) bool { return strings.HasPrefix(line, "=ypart") }

// IsEndLine reports whether line starts a yEnc trailer.
func IsEndLine(line string) bool { return strings.HasPrefix(line, "=yend") }

// scanFields splits a header line into key=value pairs, special-casing
// name= (and nothing else) to run to end-of-line rather than the next
// space, since file names may contain spaces or '=' themselves. This
// mirrors sabctools' YSPLIT_RE behaviour of treating the trailing field
// as unbounded (original_source/tests/testsupport.py ySplit).
func scanFields(line string) (kv map[string]string, name string, hasName bool) {
	line = strings.TrimRight(line, "\r\n")
	kv = make(map[string]string)

	if idx := strings.Index(line, "name="); idx >= 0 {
		hasName = true
		name = line[idx+len("name="):]
		line = line[:idx]
	}

	for _, field := range strings.Fields(line) {
		eq := strings.IndexByte(field, '=')
		if eq <= 0 {
			continue
		}
		kv[field[:eq]] = field[eq+1:]
	}
	return kv, name, hasName
}

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseBegin parses a =ybegin line.
func ParseBegin(line string) Begin {
	kv, name, hasName := scanFields(line)
	var b Begin
	if v, ok := kv["line"]; ok {
		b.Line, _ = parseUint(v)
	}
	if v, ok := kv["size"]; ok {
		if n, ok := parseUint(v); ok {
			b.Size, b.HasSize = n, true
		}
	}
	if v, ok := kv["part"]; ok {
		if n, ok := parseUint(v); ok {
			b.Part, b.HasPart = n, true
		}
	}
	if v, ok := kv["total"]; ok {
		if n, ok := parseUint(v); ok {
			b.Total, b.HasTotal = n, true
		}
	}
	if hasName {
		b.Name, b.HasName = DecodeFileName([]byte(name)), true
	}
	return b
}

// ParsePart parses a =ypart line and validates the begin/end range.
func ParsePart(line string) Part {
	kv, _, _ := scanFields(line)
	begin, okB := parseUint(kv["begin"])
	end, okE := parseUint(kv["end"])
	if !okB || !okE || begin == 0 || begin > end || end-begin+1 > MaxPartSize {
		return Part{}
	}
	return Part{Begin: begin, End: end, Size: end - begin + 1, Valid: true}
}

// ParseEnd parses a =yend line. A CRC field is accepted only when it is
// valid hex with at most 8 significant (non-leading-'f') digits once
// trimmed; anything else leaves the corresponding Has* flag false.
func ParseEnd(line string) End {
	kv, _, _ := scanFields(line)
	var e End
	if v, ok := kv["size"]; ok {
		if n, ok := parseUint(v); ok {
			e.Size, e.HasSize = n, true
		}
	}
	if v, ok := kv["part"]; ok {
		if n, ok := parseUint(v); ok {
			e.Part, e.HasPart = n, true
		}
	}
	if v, ok := kv["crc32"]; ok {
		if n, ok := parseFooterCRC(v); ok {
			e.CRC32, e.HasCRC32 = n, true
		} else {
			e.CRCMalformed = true
		}
	}
	if v, ok := kv["pcrc32"]; ok {
		if n, ok := parseFooterCRC(v); ok {
			e.PCRC32, e.HasPCRC32 = n, true
		} else {
			e.CRCMalformed = true
		}
	}
	return e
}

// parseFooterCRC accepts up to 16 hex digits, but only if at most 8 of
// them are significant once leading 'f'/'F' padding beyond the low 8
// digits is trimmed; any non-hex rune (trailing space aside) rejects
// the value outright.
func parseFooterCRC(raw string) (uint32, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > 16 {
		return 0, false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return 0, false
		}
	}
	trimmed := strings.TrimLeft(strings.ToLower(s), "f")
	if len(trimmed) > 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return uint32(v & 0xFFFFFFFF), true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// DecodeFileName decodes raw header bytes as UTF-8, falling back to a
// direct Latin-1 (code-point-per-byte) mapping when the bytes are not
// valid UTF-8 — malformed names never fail decoding outright.
func DecodeFileName(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}
