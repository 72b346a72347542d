// Package yenc implements the yEnc byte transform (escape/translate,
// with a rolling CRC32) and the =ybegin/=ypart/=yend header scanner,
// reshaped from the teacher's io.Reader-pull YencDecoder
// (internal/decoding/yenc.go in the gonzb sources) into a pure
// chunk-in/chunk-out transform so a caller can feed it arbitrary
// byte-boundary chunks, including one byte at a time, and carry the
// escape state across calls.
package yenc

import "github.com/usenetkit/nzbdecode/internal/crc32x"

// Decode applies the yEnc escape/translate transform to in, carrying
// escapePending across chunk boundaries. It returns the decoded bytes,
// the escape-pending state to pass into the next call, and the rolling
// (inverted) CRC state updated with exactly the bytes emitted.
//
// Line endings (bare CR/LF) are dropped, not emitted; a trailing bare
// '=' sets escapePending and decodes on the next call's first byte.
func Decode(in []byte, escapePending bool, crcState uint32) (out []byte, newEscapePending bool, newCRCState uint32) {
	out = make([]byte, 0, len(in))
	for _, c := range in {
		switch {
		case escapePending:
			out = append(out, c-64-42)
			escapePending = false
		case c == '=':
			escapePending = true
		case c == '\r' || c == '\n':
			// payload line endings carry no data
		default:
			out = append(out, c-42)
		}
	}
	crcState = crc32x.Update(crcState, out)
	return out, escapePending, crcState
}
