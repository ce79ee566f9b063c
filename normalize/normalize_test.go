package normalize_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/Skryldev/steg-extractor/adapters/decoder"
	"github.com/Skryldev/steg-extractor/adapters/encoder"
	"github.com/Skryldev/steg-extractor/core"
	"github.com/Skryldev/steg-extractor/normalize"
	"golang.org/x/image/bmp"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func newRegistry(t *testing.T) *core.DefaultRegistry {
	t.Helper()
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatGIF, decoder.NewGIF())
	reg.RegisterDecoder(core.FormatBMP, decoder.NewBMP())
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
	return reg
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{
		color.RGBA{R: 255, A: 255},
		color.RGBA{B: 255, A: 255},
	})
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 2)
	}
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif fixture: %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_JPEGToCanonical(t *testing.T) {
	n := normalize.New(newRegistry(t), nil)
	det := core.DetectionResult{Format: core.FormatJPEG, Payload: encodeJPEG(t)}

	out, changed := n.Normalize(context.Background(), det)
	if !changed {
		t.Fatal("expected re-encoding to happen")
	}
	if out.Format != core.FormatPNG {
		t.Errorf("format: got %q, want png", out.Format)
	}
	if !bytes.HasPrefix(out.Payload, pngMagic) {
		t.Error("normalized payload does not start with the png signature")
	}
}

func TestNormalize_GIFToCanonical(t *testing.T) {
	n := normalize.New(newRegistry(t), nil)
	det := core.DetectionResult{Format: core.FormatGIF, Payload: encodeGIF(t)}

	out, changed := n.Normalize(context.Background(), det)
	if !changed {
		t.Fatal("expected re-encoding to happen")
	}
	if out.Format != core.FormatPNG {
		t.Errorf("format: got %q, want png", out.Format)
	}
	if !bytes.HasPrefix(out.Payload, pngMagic) {
		t.Error("normalized payload does not start with the png signature")
	}
}

func TestNormalize_BMPToCanonical(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp fixture: %v", err)
	}

	n := normalize.New(newRegistry(t), nil)
	out, changed := n.Normalize(context.Background(), core.DetectionResult{
		Format: core.FormatBMP, Payload: buf.Bytes(),
	})
	if !changed || out.Format != core.FormatPNG {
		t.Fatalf("got (%q, %t), want re-encoded png", out.Format, changed)
	}
	if !bytes.HasPrefix(out.Payload, pngMagic) {
		t.Error("normalized payload does not start with the png signature")
	}
}

func TestNormalize_PreservesTransparency(t *testing.T) {
	// GIF with a fully transparent palette entry at pixel (0,0).
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{
		color.RGBA{},               // transparent
		color.RGBA{R: 255, A: 255}, // opaque red
	})
	for i := range img.Pix {
		img.Pix[i] = 1
	}
	img.SetColorIndex(0, 0, 0)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode gif fixture: %v", err)
	}

	n := normalize.New(newRegistry(t), nil)
	out, changed := n.Normalize(context.Background(), core.DetectionResult{
		Format: core.FormatGIF, Payload: buf.Bytes(),
	})
	if !changed {
		t.Fatal("expected re-encoding to happen")
	}
	decoded, err := png.Decode(bytes.NewReader(out.Payload))
	if err != nil {
		t.Fatalf("decode normalized png: %v", err)
	}
	if _, _, _, a := decoded.At(0, 0).RGBA(); a != 0 {
		t.Errorf("transparency lost: alpha at (0,0) = %d, want 0", a)
	}
	if _, _, _, a := decoded.At(1, 1).RGBA(); a != 0xFFFF {
		t.Errorf("opaque pixel corrupted: alpha at (1,1) = %d", a)
	}
}

func TestNormalize_Passthrough(t *testing.T) {
	n := normalize.New(newRegistry(t), nil)
	tests := []struct {
		name   string
		format core.Format
	}{
		{"canonical", core.FormatPNG},
		{"vector", core.FormatSVG},
		{"video", core.FormatMP4},
		{"audio", core.FormatMP3},
		{"binary", core.FormatBinary},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			det := core.DetectionResult{Format: tc.format, Payload: []byte("opaque")}
			out, changed := n.Normalize(context.Background(), det)
			if changed {
				t.Error("passthrough formats must not be re-encoded")
			}
			if out.Format != tc.format || !bytes.Equal(out.Payload, det.Payload) {
				t.Error("passthrough must return the detection unchanged")
			}
		})
	}
}

func TestNormalize_CorruptPayloadDegrades(t *testing.T) {
	n := normalize.New(newRegistry(t), nil)
	// Valid magic, garbage body: classified jpeg but undecodable.
	raw := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("not a real scan")...)
	det := core.DetectionResult{Format: core.FormatJPEG, Payload: raw}

	out, changed := n.Normalize(context.Background(), det)
	if changed {
		t.Error("corrupt payload must not report re-encoding")
	}
	if out.Format != core.FormatJPEG {
		t.Errorf("degraded result must keep the detected format, got %q", out.Format)
	}
	if !bytes.Equal(out.Payload, raw) {
		t.Error("degraded result must keep the original bytes")
	}
}

func TestNormalize_NoDecoderDegrades(t *testing.T) {
	n := normalize.New(newRegistry(t), nil)
	raw := append([]byte{0x00, 0x00, 0x01, 0x00}, make([]byte, 20)...)
	det := core.DetectionResult{Format: core.FormatICO, Payload: raw}

	out, changed := n.Normalize(context.Background(), det)
	if changed {
		t.Error("unregistered format must not report re-encoding")
	}
	if out.Format != core.FormatICO || !bytes.Equal(out.Payload, raw) {
		t.Error("degraded result must be the original detection")
	}
}

func TestNormalize_NoEncoderDegrades(t *testing.T) {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	n := normalize.New(reg, nil)
	raw := encodeJPEG(t)

	out, changed := n.Normalize(context.Background(), core.DetectionResult{
		Format: core.FormatJPEG, Payload: raw,
	})
	if changed {
		t.Error("missing canonical encoder must not report re-encoding")
	}
	if out.Format != core.FormatJPEG || !bytes.Equal(out.Payload, raw) {
		t.Error("degraded result must be the original detection")
	}
}
