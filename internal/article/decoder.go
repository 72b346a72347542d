// Package article implements the streaming NNTP response decoder: it
// owns the input buffer, drives the line protocol in internal/nntpwire,
// recognises yEnc/uuencode framing via internal/yenc and
// internal/uuencode, and decodes payload bytes through those packages
// while rolling a internal/crc32x checksum, yielding one Response per
// "\r\n.\r\n" terminator seen.
//
// The buffer discipline (a single owned slice with head/tail cursors,
// compacted toward the front when idle space accumulates) is grounded
// on the pascaldekloe-websocket Reader's ReadSome/NextFrame pairing,
// reshaped from a frame-at-a-time protocol to a line-at-a-time one.
package article

import (
	"errors"

	"github.com/usenetkit/nzbdecode/internal/crc32x"
	"github.com/usenetkit/nzbdecode/internal/nntpwire"
	"github.com/usenetkit/nzbdecode/internal/uuencode"
	"github.com/usenetkit/nzbdecode/internal/yenc"
)

// DefaultBufferCap is the soft cap on bytes held in the input buffer
// without a CRLF line ending; past it the stream is treated as fatal.
// Complete lines are consumed as they arrive, so decoded payload does
// not count toward this cap.
const DefaultBufferCap = 16 << 20

var (
	// ErrBufferFull is returned once more than the cap's worth of bytes
	// is buffered without a CRLF line ending; the stream is
	// unrecoverable and the decoder should be dropped.
	ErrBufferFull = errors.New("article: input buffer reached its capacity before a line terminator")
	// ErrAdvancePastTail is a programming error: Process was called with
	// n larger than the space handed out by the preceding WritableTail.
	ErrAdvancePastTail = errors.New("article: process advanced past the writable tail")
	// ErrNegativeAdvance is a programming error: n must be >= 0.
	ErrNegativeAdvance = errors.New("article: process called with a negative byte count")
)

// ErrorKind classifies a recoverable malformation the decoder chose to
// tolerate rather than fail the whole stream over. Errors attach to the
// Response they were found in (MalformedStatus attaches to a
// zero-value Response); Truncated and BufferFull describe stream-level
// conditions instead and are surfaced through Decoder.Truncated and the
// error return of Process respectively rather than on a Response.
type ErrorKind int

const (
	// ErrorMalformedStatus: status line absent or not three digits.
	// Response emitted with StatusCode 0 and no payload.
	ErrorMalformedStatus ErrorKind = iota
	// ErrorInvalidSize: size/begin/end unparseable, out of range, or
	// past the per-part cap. The offending fields were zeroed.
	ErrorInvalidSize
	// ErrorInvalidCRC: footer CRC present but malformed (too many
	// significant hex digits, non-hex). CRCExpected is unset; decoded
	// bytes and CRCComputed are still returned.
	ErrorInvalidCRC
	// ErrorNoFilename: =ybegin lacked name=. FileName is unset.
	ErrorNoFilename
	// ErrorTruncated: the response ended before "\r\n.\r\n" was seen.
	// No Response is yielded for it; see Decoder.Truncated.
	ErrorTruncated
	// ErrorBufferFull: the buffer reached its cap before a line terminator.
	// Fatal for the stream; see ErrBufferFull.
	ErrorBufferFull
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMalformedStatus:
		return "malformed_status"
	case ErrorInvalidSize:
		return "invalid_size"
	case ErrorInvalidCRC:
		return "invalid_crc"
	case ErrorNoFilename:
		return "no_filename"
	case ErrorTruncated:
		return "truncated"
	case ErrorBufferFull:
		return "buffer_full"
	default:
		return "unknown"
	}
}

// Format identifies which payload transform, if any, produced a
// Response's decoded bytes.
type Format int

const (
	FormatNone Format = iota
	FormatYEnc
	FormatUU
)

func (f Format) String() string {
	switch f {
	case FormatYEnc:
		return "yenc"
	case FormatUU:
		return "uu"
	default:
		return "none"
	}
}

// Response is one completed NNTP multi-line (or single-line) reply,
// with any yEnc/uuencode payload already decoded.
type Response struct {
	StatusCode int
	Lines      []string

	Data    []byte
	HasData bool
	Format  Format

	FileName    string
	HasFileName bool
	FileSize    uint64

	PartBegin uint64
	PartEnd   uint64
	PartSize  uint64

	CRCComputed    uint32
	HasCRCComputed bool
	CRCExpected    uint32
	HasCRCExpected bool

	BytesDecoded uint64

	// Errors lists the tolerated malformations found while assembling
	// this Response, informational only — the Response is still
	// returned with whatever fields survived.
	Errors []ErrorKind
}

type parseState int

const (
	stateAwaitStatus parseState = iota
	stateAwaitHeaders
	stateInPayload
	stateAwaitTerminator
)

// Decoder is a single-threaded, non-blocking, incremental NNTP
// response parser. It performs no I/O: callers copy network bytes into
// the region returned by WritableTail and then call Process to advance
// past them.
type Decoder struct {
	buf    []byte
	head   int // consumed-up-to cursor
	tail   int // filled-up-to cursor
	maxCap int

	st  parseState
	cur Response

	format        Format
	escapePending bool
	crcState      uint32
	sizeInvalid   bool
	sawPart       bool
}

// NewDecoder creates a Decoder with an initial buffer of capacityHint
// bytes (a minimum is applied for tiny or zero hints).
func NewDecoder(capacityHint int) *Decoder {
	if capacityHint < 256 {
		capacityHint = 256
	}
	return &Decoder{
		buf:    make([]byte, capacityHint),
		maxCap: DefaultBufferCap,
		st:     stateAwaitStatus,
	}
}

// compact slides unconsumed bytes to the front of the buffer, so a
// stream that keeps appending small chunks doesn't need to grow the
// buffer just because earlier, already-consumed bytes are still
// sitting at its head.
func (d *Decoder) compact() {
	if d.head == 0 {
		return
	}
	n := copy(d.buf, d.buf[d.head:d.tail])
	d.head = 0
	d.tail = n
}

// WritableTail returns a slice of n bytes the caller should fill with
// freshly-read network bytes, growing the internal buffer (up to and,
// if unavoidable, beyond maxCap) as needed. The returned slice is only
// valid until the next call to WritableTail or Process.
func (d *Decoder) WritableTail(n int) []byte {
	d.compact()
	if need := d.tail + n; need > len(d.buf) {
		newLen := len(d.buf)
		if newLen == 0 {
			newLen = 256
		}
		for newLen < need {
			newLen *= 2
		}
		grown := make([]byte, newLen)
		copy(grown, d.buf[:d.tail])
		d.buf = grown
	}
	return d.buf[d.tail : d.tail+n : d.tail+n]
}

// Process commits the n bytes previously written into the slice
// returned by WritableTail, then parses as many complete lines as are
// now available, returning every Response completed along the way.
func (d *Decoder) Process(n int) ([]Response, error) {
	if n < 0 {
		return nil, ErrNegativeAdvance
	}
	if d.tail+n > len(d.buf) {
		return nil, ErrAdvancePastTail
	}
	d.tail += n

	var out []Response
	for {
		line, consumed, ok := nntpwire.ScanLine(d.buf[d.head:d.tail])
		if !ok {
			break
		}
		d.head += consumed
		if resp, emitted := d.handleLine(line); emitted {
			out = append(out, resp)
		}
	}

	if d.head == d.tail {
		d.head, d.tail = 0, 0
	}
	if d.tail-d.head > d.maxCap {
		return out, ErrBufferFull
	}
	return out, nil
}

// IntoPending returns a copy of whatever bytes are buffered but not
// yet part of a completed response. The Decoder should not be used
// again afterward.
func (d *Decoder) IntoPending() []byte {
	pending := make([]byte, d.tail-d.head)
	copy(pending, d.buf[d.head:d.tail])
	return pending
}

// Truncated reports whether the stream ended mid-response: bytes were
// seen and parsed but no terminator ever arrived to complete a
// Response. Callers that hit EOF should check this and log
// ErrorTruncated rather than silently dropping the partial state.
func (d *Decoder) Truncated() bool {
	return d.st != stateAwaitStatus || d.head != d.tail
}

// ClassifyError maps an error returned from Process to the ErrorKind
// it corresponds to, for callers that log or persist error conditions
// by kind rather than by message. Returns false if err is not one
// Process can produce.
func ClassifyError(err error) (ErrorKind, bool) {
	if errors.Is(err, ErrBufferFull) {
		return ErrorBufferFull, true
	}
	return 0, false
}

func (d *Decoder) handleLine(raw []byte) (Response, bool) {
	if d.st == stateAwaitStatus {
		return d.handleStatusLine(raw)
	}
	if nntpwire.IsTerminator(raw) {
		return d.finish()
	}
	line := nntpwire.Unstuff(raw)
	switch d.st {
	case stateAwaitHeaders:
		d.handleHeaderLine(line)
	case stateInPayload:
		d.handlePayloadLine(line)
	case stateAwaitTerminator:
		// A line arriving after a footer but before the terminator is
		// outside the protocol but not fatal; it is simply dropped.
	}
	return Response{}, false
}

func (d *Decoder) handleStatusLine(raw []byte) (Response, bool) {
	code, ok := nntpwire.ParseStatusCode(raw)
	if !ok {
		return Response{StatusCode: 0, Errors: []ErrorKind{ErrorMalformedStatus}}, true
	}
	if !nntpwire.MultiLine(code) {
		return Response{StatusCode: code}, true
	}
	d.cur = Response{StatusCode: code}
	d.format = FormatNone
	d.sizeInvalid = false
	d.st = stateAwaitHeaders
	return Response{}, false
}

func (d *Decoder) handleHeaderLine(line []byte) {
	s := string(line)
	switch {
	case yenc.IsBeginLine(s):
		b := yenc.ParseBegin(s)
		d.beginPayload(FormatYEnc)
		if b.HasSize {
			d.cur.FileSize = b.Size
		} else {
			d.sizeInvalid = true
		}
		if b.HasName {
			d.cur.FileName, d.cur.HasFileName = b.Name, true
		} else {
			d.cur.Errors = append(d.cur.Errors, ErrorNoFilename)
		}
	case uuencode.IsBeginLine(s):
		b := uuencode.ParseBeginLine(s)
		d.beginPayload(FormatUU)
		d.cur.FileName, d.cur.HasFileName = b.Name, true
	default:
		d.cur.Lines = append(d.cur.Lines, s)
	}
}

func (d *Decoder) beginPayload(format Format) {
	d.format = format
	d.cur.Format = format
	d.cur.Data = []byte{}
	d.cur.HasData = true
	d.crcState = crc32x.Initial
	d.escapePending = false
	d.sawPart = false
	d.st = stateInPayload
}

func (d *Decoder) handlePayloadLine(line []byte) {
	s := string(line)
	switch d.format {
	case FormatYEnc:
		d.handleYencPayloadLine(s, line)
	case FormatUU:
		d.handleUUPayloadLine(s, line)
	}
}

func (d *Decoder) handleYencPayloadLine(s string, line []byte) {
	switch {
	case yenc.IsPartLine(s):
		d.sawPart = true
		p := yenc.ParsePart(s)
		if p.Valid {
			d.cur.PartBegin = p.Begin - 1
			d.cur.PartEnd = p.End
			d.cur.PartSize = p.Size
		} else {
			d.sizeInvalid = true
		}
	case yenc.IsEndLine(s):
		e := yenc.ParseEnd(s)
		// A =ypart was seen: this article is one part of a multipart
		// file, so pcrc32 (the per-part CRC) is what CRCComputed can
		// actually match. crc32 here is the whole-file CRC and only
		// applies when there was no =ypart at all.
		if d.sawPart {
			switch {
			case e.HasPCRC32:
				d.cur.CRCExpected, d.cur.HasCRCExpected = e.PCRC32, true
			case e.HasCRC32:
				d.cur.CRCExpected, d.cur.HasCRCExpected = e.CRC32, true
			}
		} else {
			switch {
			case e.HasCRC32:
				d.cur.CRCExpected, d.cur.HasCRCExpected = e.CRC32, true
			case e.HasPCRC32:
				d.cur.CRCExpected, d.cur.HasCRCExpected = e.PCRC32, true
			}
		}
		if e.CRCMalformed {
			d.cur.Errors = append(d.cur.Errors, ErrorInvalidCRC)
		}
		if d.sizeInvalid {
			d.cur.FileSize = 0
			d.cur.PartBegin, d.cur.PartEnd, d.cur.PartSize = 0, 0, 0
			d.cur.Errors = append(d.cur.Errors, ErrorInvalidSize)
		}
		d.st = stateAwaitTerminator
	default:
		out, pending, newCRC := yenc.Decode(line, d.escapePending, d.crcState)
		d.escapePending = pending
		d.crcState = newCRC
		d.cur.Data = append(d.cur.Data, out...)
		d.cur.BytesDecoded += uint64(len(out))
	}
}

func (d *Decoder) handleUUPayloadLine(s string, line []byte) {
	if uuencode.IsEndLine(s) {
		d.st = stateAwaitTerminator
		return
	}
	out, newCRC := uuencode.DecodeLine(line, d.crcState)
	d.crcState = newCRC
	d.cur.Data = append(d.cur.Data, out...)
	d.cur.BytesDecoded += uint64(len(out))
}

func (d *Decoder) finish() (Response, bool) {
	resp := d.cur
	if d.format != FormatNone {
		resp.CRCComputed = d.crcState ^ 0xFFFFFFFF
		resp.HasCRCComputed = true
	}
	d.cur = Response{}
	d.format = FormatNone
	d.sizeInvalid = false
	d.st = stateAwaitStatus
	return resp, true
}

// YencDecodeOneShot decodes a bare yEnc-escaped byte span with no
// surrounding NNTP or =ybegin/=yend framing — the free-function
// analogue of the B transform, for exercising the escape/translate
// algorithm directly against a literal byte vector.
func YencDecodeOneShot(b []byte) (Response, error) {
	out, _, crcState := yenc.Decode(b, false, crc32x.Initial)
	return Response{
		Data:           out,
		HasData:        true,
		Format:         FormatYEnc,
		CRCComputed:    crcState ^ 0xFFFFFFFF,
		HasCRCComputed: true,
		BytesDecoded:   uint64(len(out)),
	}, nil
}

// YencEncode is the inverse of YencDecodeOneShot, re-exported for
// callers that only need the pure transform.
func YencEncode(b []byte) ([]byte, uint32) {
	return yenc.Encode(b)
}
