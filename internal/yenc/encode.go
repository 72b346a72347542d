package yenc

import "github.com/usenetkit/nzbdecode/internal/crc32x"

// needsEscape reports the post-shift byte values that must be escaped
// on the wire: NUL, TAB, LF, CR, ESC, plus space and '.' only when they
// would otherwise sit at the very start or end of a line, and '='
// itself. Encode here takes the conservative, always-correct route and
// escapes space/'.'/'=' unconditionally rather than tracking column
// position, which costs a few extra bytes but is never wrong to decode.
func needsEscape(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0A, 0x0D, 0x1B, 0x20, 0x2E, 0x3D:
		return true
	default:
		return false
	}
}

// Encode is the inverse of Decode: it produces the yEnc-escaped wire
// form of b (without any =ybegin/=yend framing or line wrapping) along
// with the CRC32 of the unescaped input, for use in round-trip tests
// and the one-shot helper.
func Encode(b []byte) (out []byte, crc uint32) {
	out = make([]byte, 0, len(b))
	for _, c := range b {
		shifted := c + 42
		if needsEscape(shifted) {
			out = append(out, '=', shifted+64)
		} else {
			out = append(out, shifted)
		}
	}
	return out, crc32x.Checksum(b)
}
