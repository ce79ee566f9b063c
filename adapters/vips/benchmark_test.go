package vips_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"testing"

	stegextractor "github.com/Skryldev/steg-extractor"
	"github.com/Skryldev/steg-extractor/adapters/vips"
	"github.com/Skryldev/steg-extractor/pipeline"
)

// makeCarrier builds a PNG carrier with a payload embedded in the channel
// LSBs, length-prefixed and MSB first.  Odd base values keep untouched LSBs
// at 1 so trimmed windows fall through to the full scan.
func makeCarrier(b *testing.B, side int, payload []byte) []byte {
	b.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 101
		img.Pix[i+1] = 151
		img.Pix[i+2] = 201
		img.Pix[i+3] = 0xFF
	}

	framed := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(framed, uint32(len(payload)))
	copy(framed[4:], payload)
	if len(framed)*8 > side*side*3 {
		b.Fatalf("payload of %d bytes does not fit in the carrier", len(payload))
	}
	for i := 0; i < len(framed)*8; i++ {
		bit := framed[i/8] >> (7 - i%8) & 1
		o := i/3*4 + i%3
		img.Pix[o] = img.Pix[o]&0xFE | bit
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.Fatalf("encode carrier: %v", err)
	}
	return buf.Bytes()
}

func newVipsExtractor(b *testing.B) (*stegextractor.Extractor, *vips.Backend) {
	b.Helper()
	ext := stegextractor.New(stegextractor.DefaultConfig())
	backend := vips.NewBackend(vips.BackendConfig{})
	vips.RegisterVipsBackend(ext.Inner().Registry(), backend)
	return ext, backend
}

func newStdlibExtractor(b *testing.B) *stegextractor.Extractor {
	b.Helper()
	return stegextractor.New(stegextractor.DefaultConfig())
}

// ─── Decode ───────────────────────────────────────────────────────────────────

func BenchmarkDecode_Stdlib_1024(b *testing.B) {
	raw := makeCarrier(b, 1024, []byte("benchmark payload"))
	ext := newStdlibExtractor(b)
	reg := ext.Inner().Registry()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ext.Process(context.Background(),
			stegextractor.FromReader(bytes.NewReader(raw)),
			&pipeline.DecodeStep{Registry: reg},
		); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode_Vips_1024(b *testing.B) {
	raw := makeCarrier(b, 1024, []byte("benchmark payload"))
	ext, backend := newVipsExtractor(b)
	defer backend.Shutdown()
	reg := ext.Inner().Registry()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ext.Process(context.Background(),
			stegextractor.FromReader(bytes.NewReader(raw)),
			&pipeline.DecodeStep{Registry: reg},
		); err != nil {
			b.Fatal(err)
		}
	}
}

// ─── Decode + Extract ─────────────────────────────────────────────────────────

func BenchmarkExtract_Stdlib_1024(b *testing.B) {
	raw := makeCarrier(b, 1024, []byte("benchmark payload"))
	ext := newStdlibExtractor(b)
	reg := ext.Inner().Registry()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ext.Process(context.Background(),
			stegextractor.FromReader(bytes.NewReader(raw)),
			&pipeline.DecodeStep{Registry: reg},
			&pipeline.ExtractStep{},
		); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtract_Vips_1024(b *testing.B) {
	raw := makeCarrier(b, 1024, []byte("benchmark payload"))
	ext, backend := newVipsExtractor(b)
	defer backend.Shutdown()
	reg := ext.Inner().Registry()

	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ext.Process(context.Background(),
			stegextractor.FromReader(bytes.NewReader(raw)),
			&pipeline.DecodeStep{Registry: reg},
			&pipeline.ExtractStep{},
		); err != nil {
			b.Fatal(err)
		}
	}
}
