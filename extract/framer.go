package extract

import "github.com/Skryldev/steg-extractor/core"

// lengthBits is the size of the frame's unsigned big-endian length prefix.
const lengthBits = 32

type framerPhase int

const (
	collectingLength framerPhase = iota
	collectingPayload
)

// Framer is a pure bit accumulator for the length-prefixed frame protocol.
// It runs in two phases: the first 32 bits fix the declared payload length
// and therefore the total bit target; accumulation then continues until the
// target is met.  The caller drives it one bit at a time.
type Framer struct {
	phase    framerPhase
	bits     []uint8
	declared uint32
	target   int
}

// NewFramer returns a Framer awaiting its length prefix.
func NewFramer() *Framer {
	return &Framer{bits: make([]uint8, 0, lengthBits)}
}

// Push consumes one bit (0 or 1) and reports whether the frame is complete.
func (f *Framer) Push(bit uint8) bool {
	f.bits = append(f.bits, bit)

	if f.phase == collectingLength {
		if len(f.bits) < lengthBits {
			return false
		}
		for _, b := range f.bits {
			f.declared = f.declared<<1 | uint32(b)
		}
		// A declared length too large for the window is not rejected here;
		// it simply exhausts the reader and triggers window fallback.
		f.target = lengthBits + int(f.declared)*8
		f.phase = collectingPayload
	}
	return len(f.bits) >= f.target
}

// DeclaredLength returns the decoded length prefix.  Valid once 32 bits have
// been pushed.
func (f *Framer) DeclaredLength() uint32 { return f.declared }

// Frame packs the accumulated bits into a PayloadFrame.  Valid only after
// Push returned true; bits beyond the target are never present because the
// caller stops pushing on completion.
func (f *Framer) Frame() *core.PayloadFrame {
	return &core.PayloadFrame{
		DeclaredLength: f.declared,
		Bytes:          PackBits(f.bits[:f.target]),
	}
}

// PackBits converts a bit sequence to bytes, most-significant bit first per
// byte.  A trailing partial byte is silently discarded; on the frame success
// path the length is always 32+8k so nothing is lost.
func PackBits(bits []uint8) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | bits[i+j]
		}
		out = append(out, b)
	}
	return out
}
