package yenc

import (
	"bytes"
	"testing"

	"github.com/usenetkit/nzbdecode/internal/crc32x"
)

func TestDecodeDropsLineEndings(t *testing.T) {
	payload := []byte("Hello world!")
	wire, _ := Encode(payload)
	wire = append(wire, "\r\n"...)

	out, escapePending, crcState := Decode(wire, false, crc32x.Initial)
	if escapePending {
		t.Fatalf("escapePending = true after a clean line")
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("Decode(Encode(%q)) = %q, want %q", payload, out, payload)
	}
	if got, want := crcState^0xFFFFFFFF, crc32x.Checksum(payload); got != want {
		t.Fatalf("rolling CRC = %#08x, want %#08x", got, want)
	}
}

func TestDecodeEscapeAcrossChunkBoundary(t *testing.T) {
	payload := []byte{0x00, 0xD6, 0xCA} // 0xD6+42 wraps to 0x00 (NUL), which forces an escape
	wire, _ := Encode(payload)

	// Split the wire form right after the '=' of an escape sequence, if
	// one is present, to exercise escapePending carrying across calls.
	idx := bytes.IndexByte(wire, '=')
	if idx < 0 || idx+1 >= len(wire) {
		t.Fatalf("test payload %v did not produce an escape sequence in %v", payload, wire)
	}

	first, second := wire[:idx+1], wire[idx+1:]
	out1, pending, crcState := Decode(first, false, crc32x.Initial)
	if !pending {
		t.Fatalf("escapePending = false right after a bare '='")
	}
	out2, pending, crcState := Decode(second, pending, crcState)
	if pending {
		t.Fatalf("escapePending still true at end of input")
	}

	got := append(out1, out2...)
	if !bytes.Equal(got, payload) {
		t.Fatalf("chunked decode = %v, want %v", got, payload)
	}
	if gotCRC, want := crcState^0xFFFFFFFF, crc32x.Checksum(payload); gotCRC != want {
		t.Fatalf("rolling CRC = %#08x, want %#08x", gotCRC, want)
	}
}

func TestDecodeOneByteAtATimeMatchesWholeChunk(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	wire, _ := Encode(payload)

	whole, _, wholeCRC := Decode(wire, false, crc32x.Initial)

	var bywise []byte
	pending := false
	state := crc32x.Initial
	for i := range wire {
		var out []byte
		out, pending, state = Decode(wire[i:i+1], pending, state)
		bywise = append(bywise, out...)
	}

	if !bytes.Equal(whole, payload) {
		t.Fatalf("whole-chunk decode = %v, want %v", whole, payload)
	}
	if !bytes.Equal(bywise, payload) {
		t.Fatalf("byte-at-a-time decode = %v, want %v", bywise, payload)
	}
	if state != wholeCRC {
		t.Fatalf("byte-at-a-time CRC state = %#08x, want %#08x", state, wholeCRC)
	}
}

func TestParseBeginSimple(t *testing.T) {
	b := ParseBegin("=ybegin line=128 size=12 name=testfile.txt\r\n")
	if !b.HasSize || b.Size != 12 {
		t.Fatalf("size = %v/%v, want 12/true", b.Size, b.HasSize)
	}
	if !b.HasName || b.Name != "testfile.txt" {
		t.Fatalf("name = %q/%v, want testfile.txt/true", b.Name, b.HasName)
	}
	if b.HasPart || b.HasTotal {
		t.Fatalf("single-part header should not set part/total, got %+v", b)
	}
}

func TestParseBeginNameRunsToEndOfLine(t *testing.T) {
	b := ParseBegin("=ybegin line=128 size=5 name=file with spaces.bin\r\n")
	if b.Name != "file with spaces.bin" {
		t.Fatalf("name = %q, want %q", b.Name, "file with spaces.bin")
	}
}

func TestParseBeginMultiPart(t *testing.T) {
	b := ParseBegin("=ybegin part=2 total=5 line=128 size=1000000 name=big.bin\r\n")
	if !b.HasPart || b.Part != 2 {
		t.Fatalf("part = %v/%v, want 2/true", b.Part, b.HasPart)
	}
	if !b.HasTotal || b.Total != 5 {
		t.Fatalf("total = %v/%v, want 5/true", b.Total, b.HasTotal)
	}
}

func TestParsePartValid(t *testing.T) {
	p := ParsePart("=ypart begin=1 end=100000\r\n")
	if !p.Valid || p.Begin != 1 || p.End != 100000 || p.Size != 100000 {
		t.Fatalf("ParsePart = %+v, want valid 1..100000 (size 100000)", p)
	}
}

func TestParsePartInvalidRange(t *testing.T) {
	cases := []string{
		"=ypart begin=100 end=1\r\n",
		"=ypart begin=0 end=10\r\n",
		"=ypart begin=1 end=99999999999\r\n",
	}
	for _, line := range cases {
		if p := ParsePart(line); p.Valid {
			t.Errorf("ParsePart(%q) = %+v, want Valid=false", line, p)
		}
	}
}

func TestParseEndWithCRC(t *testing.T) {
	e := ParseEnd("=yend size=12 part=1 pcrc32=1b851995\r\n")
	if !e.HasSize || e.Size != 12 {
		t.Fatalf("size = %v/%v, want 12/true", e.Size, e.HasSize)
	}
	if !e.HasPCRC32 || e.PCRC32 != 0x1B851995 {
		t.Fatalf("pcrc32 = %#08x/%v, want 0x1b851995/true", e.PCRC32, e.HasPCRC32)
	}
	if e.HasCRC32 {
		t.Fatalf("crc32 should be unset when absent, got %+v", e)
	}
}

func TestParseEndCRCLessFooterLeavesExpectedUnset(t *testing.T) {
	e := ParseEnd("=yend size=12 part=1\r\n")
	if e.HasCRC32 || e.HasPCRC32 {
		t.Fatalf("ParseEnd(no crc fields) = %+v, want both CRCs unset", e)
	}
}

func TestParseEndRejectsMalformedCRC(t *testing.T) {
	e := ParseEnd("=yend size=12 crc32=not-hex\r\n")
	if e.HasCRC32 {
		t.Fatalf("malformed crc32 field should not validate, got %+v", e)
	}
	if !e.CRCMalformed {
		t.Fatalf("CRCMalformed = false, want true for a present-but-invalid crc32 field")
	}
}

func TestParseEndCRCLessFooterIsNotMalformed(t *testing.T) {
	e := ParseEnd("=yend size=12 part=1\r\n")
	if e.CRCMalformed {
		t.Fatalf("CRCMalformed = true, want false when the footer simply omits a CRC field")
	}
}

func TestDecodeFileNameFallsBackToLatin1(t *testing.T) {
	// 0xE9 alone is not valid UTF-8; Latin-1 fallback must map it to 'é'.
	raw := []byte{0xE9, 'f', 'i', 'l', 'e', '.', 't', 'x', 't'}
	got := DecodeFileName(raw)
	want := string([]rune{0xE9, 'f', 'i', 'l', 'e', '.', 't', 'x', 't'})
	if got != want {
		t.Fatalf("DecodeFileName(%v) = %q, want %q", raw, got, want)
	}
}

func TestDecodeFileNameKeepsValidUTF8(t *testing.T) {
	raw := []byte("caf\xc3\xa9.txt") // "café.txt" in UTF-8
	got := DecodeFileName(raw)
	if got != "café.txt" {
		t.Fatalf("DecodeFileName(%v) = %q, want café.txt", raw, got)
	}
}

func TestIsLinePrefixes(t *testing.T) {
	if !IsBeginLine("=ybegin line=128 size=1\r\n") {
		t.Fatalf("IsBeginLine false negative on a real =ybegin line")
	}
	if !IsPartLine("=ypart begin=1 end=2\r\n") {
		t.Fatalf("IsPartLine false negative on a real =ypart line")
	}
	if !IsEndLine("=yend size=1\r\n") {
		t.Fatalf("IsEndLine false negative on a real =yend line")
	}
	if IsBeginLine("not a header\r\n") {
		t.Fatalf("IsBeginLine matched a non-header line")
	}
}
