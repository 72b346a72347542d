package crc32x

import "testing"

// Expected values below are taken from the reference decoder's own
// algebra test suite (original_source/tests/test_crc32.py), which pins
// down the classical zlib combine/multiply/zero_unpad/xpown algorithm
// this package reimplements.

func TestChecksumHelloWorld(t *testing.T) {
	got := Checksum([]byte("Hello world!"))
	want := uint32(0x1B851995)
	if got != want {
		t.Fatalf("Checksum(%q) = %#08x, want %#08x", "Hello world!", got, want)
	}
}

func TestCombine(t *testing.T) {
	cases := []struct {
		crcA, crcB uint32
		lenB       uint64
		want       uint32
	}{
		{0, 0, 0, 0},
		{0xFFFFFFFF, 0, 0, 0xFFFFFFFF},
		{0, 0xFFFFFFFF, 0, 0xFFFFFFFF},
		{0xFFFFFFFF, 0xFFFFFFFF, 0, 0},
		{4, 16, 256, 2385497022},
		{0, 0, 1<<64 - 1, 0},
		{100, 200, 300, 1009376567},
	}
	for _, c := range cases {
		got := Combine(c.crcA, c.crcB, c.lenB)
		if got != c.want {
			t.Errorf("Combine(%d,%d,%d) = %d, want %d", c.crcA, c.crcB, c.lenB, got, c.want)
		}
	}
}

func TestCombineConcatenationMatchesDirectChecksum(t *testing.T) {
	a := []byte("the quick brown fox jumps over the lazy dog, ")
	b := []byte("repeatedly, for a while, to make sure combine agrees with a direct checksum")

	crcA := Checksum(a)
	crcB := Checksum(b)
	combined := Combine(crcA, crcB, uint64(len(b)))

	want := Checksum(append(append([]byte{}, a...), b...))
	if combined != want {
		t.Fatalf("Combine(CRC(a), CRC(b), len(b)) = %#08x, want %#08x", combined, want)
	}
}

func TestZeroUnpad(t *testing.T) {
	cases := []struct {
		crc    uint32
		zeroes uint64
		want   uint32
	}{
		{0, 0, 0},
		{0xFFFFFFFF, 0, 0xFFFFFFFF},
		{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		{100, 200, 1523530880},
	}
	for _, c := range cases {
		got := ZeroUnpad(c.crc, c.zeroes)
		if got != c.want {
			t.Errorf("ZeroUnpad(%d,%d) = %d, want %d", c.crc, c.zeroes, got, c.want)
		}
	}
}

func TestZeroUnpadInvertsCombineWithZeroes(t *testing.T) {
	for _, n := range []uint64{0, 1, 7, 255, 1 << 20} {
		for _, crc := range []uint32{0, 1, 0xDEADBEEF, 0xFFFFFFFF} {
			combined := Combine(crc, 0, n)
			back := ZeroUnpad(combined, n)
			if back != crc {
				t.Errorf("ZeroUnpad(Combine(%d,0,%d),%d) = %d, want %d", crc, n, n, back, crc)
			}
		}
	}
}

func TestXpown(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint32
	}{
		{0, 2147483648},
		{1, 1073741824},
		{8, 8388608},
		{30, 2},
		{31, 1},
		{4294967295, 2147483648},
		{1<<64 - 1, 2147483648},
	}
	for _, c := range cases {
		got := Xpown(c.n)
		if got != c.want {
			t.Errorf("Xpown(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestXpownPeriodic(t *testing.T) {
	for _, n := range []uint64{1, 2, 100, 1 << 20} {
		a := Xpown(n)
		b := Xpown(n % (1<<32 - 1))
		if a != b {
			t.Errorf("Xpown(%d) = %d, Xpown(%d mod period) = %d, want equal", n, a, n, b)
		}
	}
}

func TestXpow8n(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint32
	}{
		{0, 2147483648},
		{1, 8388608},
		{4294967295, 2147483648},
		{1<<64 - 1, 3742066410},
		{112233445566, 1480064961},
	}
	for _, c := range cases {
		got := Xpow8n(c.n)
		if got != c.want {
			t.Errorf("Xpow8n(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestMultiplyIdentity(t *testing.T) {
	const identity = 0x80000000
	for _, v := range []uint32{0, 1, 0xDEADBEEF, 0xFFFFFFFF} {
		if got := Multiply(identity, v); got != v {
			t.Errorf("Multiply(identity, %#08x) = %#08x, want %#08x", v, got, v)
		}
		if got := Multiply(v, identity); got != v {
			t.Errorf("Multiply(%#08x, identity) = %#08x, want %#08x", v, got, v)
		}
	}
}

func TestMultiplyByXMatchesXpown(t *testing.T) {
	const x = 0x40000000 // Xpown(1)
	v := uint32(0xDEADBEEF)
	got := Multiply(x, v)
	want := Multiply(v, x)
	if got != want {
		t.Fatalf("multiplication is not commutative: %#08x vs %#08x", got, want)
	}
}

func TestUpdateMatchesChecksumIncrementally(t *testing.T) {
	data := []byte("incremental updates must match a single-shot checksum of the same bytes")
	state := Initial
	for i := range data {
		state = Update(state, data[i:i+1])
	}
	if got, want := state^0xFFFFFFFF, Checksum(data); got != want {
		t.Fatalf("incremental checksum = %#08x, want %#08x", got, want)
	}
}
