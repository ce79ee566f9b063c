// Package sniff classifies recovered payload bytes by magic-number
// signatures, including signatures found at an offset inside a larger
// buffer, and delimits the byte region that constitutes the container.
package sniff

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
)

// Empirical bounds carried over from the extraction protocol.  The BMP size
// window and the 20-byte box search limit have no documented derivation;
// revisit against a real payload corpus before tightening.
const (
	// bmpMinDeclaredSize is the smallest accepted BMP declared file size.
	bmpMinDeclaredSize = 1000
	// bmpMaxDeclaredSize caps the BMP declared file size at 50 MiB.
	bmpMaxDeclaredSize = 50 << 20
	// boxSearchLimit bounds how far into the buffer the fragmented-media
	// box marker and RIFF sub-type tags may appear.
	boxSearchLimit = 20
)

// Container signatures.
var (
	magicPNG    = []byte{0x89, 'P', 'N', 'G'}
	magicJPEG   = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87a = []byte("GIF87a")
	magicGIF89a = []byte("GIF89a")
	magicRIFF   = []byte("RIFF")
	magicWEBP   = []byte("WEBP")
	magicTIFFLE = []byte("II*\x00")
	magicTIFFBE = []byte("MM\x00*")
	magicICO    = []byte{0x00, 0x00, 0x01, 0x00}
	magicBMP    = []byte("BM")
	magicMKV    = []byte{0x1A, 0x45, 0xDF, 0xA3}
	magicID3    = []byte("ID3")
	magicMP3    = []byte{0xFF, 0xFB}
	tagFtyp     = []byte("ftyp")
	tagAVI      = []byte("AVI")
	tagWAVE     = []byte("WAVE")
	svgOpenLC   = []byte("<svg")
	svgOpenUC   = []byte("<SVG")
	svgCloseLC  = []byte("</svg>")
	svgCloseUC  = []byte("</SVG>")
)

// rule is one entry of the ordered signature list.  Later rules must only be
// tried once earlier ones fail, so the sniffer is a priority list, not a
// dispatch table.
type rule func(b []byte) (core.DetectionResult, bool)

var rules = []rule{
	matchDirectImage,
	matchDirectBMP,
	matchFragmentedMedia,
	matchEmbeddedImage,
	matchDirectAV,
}

// Detect classifies b and returns the format tag together with the exact
// sub-slice that constitutes the container.  It is a pure function: running
// it twice on the same bytes yields identical results.
func Detect(b []byte) core.DetectionResult {
	for _, r := range rules {
		if res, ok := r(b); ok {
			return res
		}
	}
	return core.DetectionResult{Format: core.FormatBinary, Payload: b}
}

// ── 1. direct-start image signatures ─────────────────────────────────────────

func matchDirectImage(b []byte) (core.DetectionResult, bool) {
	switch {
	case bytes.HasPrefix(b, magicPNG):
		return core.DetectionResult{Format: core.FormatPNG, Payload: b}, true
	case bytes.HasPrefix(b, magicJPEG):
		return core.DetectionResult{Format: core.FormatJPEG, Payload: b}, true
	case bytes.HasPrefix(b, magicGIF87a), bytes.HasPrefix(b, magicGIF89a):
		return core.DetectionResult{Format: core.FormatGIF, Payload: b}, true
	case isWebP(b):
		return core.DetectionResult{Format: core.FormatWebP, Payload: b}, true
	case bytes.HasPrefix(b, magicTIFFLE), bytes.HasPrefix(b, magicTIFFBE):
		return core.DetectionResult{Format: core.FormatTIFF, Payload: b}, true
	case bytes.HasPrefix(b, magicICO):
		return core.DetectionResult{Format: core.FormatICO, Payload: b}, true
	case bytes.HasPrefix(b, svgOpenLC), bytes.HasPrefix(b, svgOpenUC):
		return core.DetectionResult{Format: core.FormatSVG, Payload: svgSlice(b)}, true
	}
	return core.DetectionResult{}, false
}

func isWebP(b []byte) bool {
	return len(b) >= 12 && bytes.HasPrefix(b, magicRIFF) && bytes.Equal(b[8:12], magicWEBP)
}

// svgSlice bounds a textual SVG at its closing tag, inclusive.  Without a
// closing tag the whole buffer is kept.
func svgSlice(b []byte) []byte {
	end := bytes.Index(b, svgCloseLC)
	if end < 0 {
		end = bytes.Index(b, svgCloseUC)
	}
	if end < 0 {
		return b
	}
	return b[:end+len(svgCloseLC)]
}

// ── 2. bitmap direct-start with declared-size validation ─────────────────────

// matchDirectBMP accepts a buffer starting with the bitmap magic only when
// its 4-byte little-endian size field is sane; an invalid size field demotes
// the whole buffer to uninterpretable binary rather than failing.
func matchDirectBMP(b []byte) (core.DetectionResult, bool) {
	if !bytes.HasPrefix(b, magicBMP) {
		return core.DetectionResult{}, false
	}
	if size, err := BMPDeclaredSize(b); err == nil {
		return core.DetectionResult{Format: core.FormatBMP, Payload: b[:size]}, true
	}
	return core.DetectionResult{Format: core.FormatBinary, Payload: b}, true
}

// BMPDeclaredSize reads the declared file size at offset 2 and validates it
// against [bmpMinDeclaredSize, min(len(b), bmpMaxDeclaredSize)].  A size
// outside the window is reported as ErrInvalidSizeField; Detect treats that
// as a demotion to binary, not a failure.
func BMPDeclaredSize(b []byte) (int, error) {
	if len(b) < 6 {
		return 0, fmt.Errorf("%w: header truncated at %d bytes", apperrors.ErrInvalidSizeField, len(b))
	}
	size := int(binary.LittleEndian.Uint32(b[2:6]))
	limit := len(b)
	if limit > bmpMaxDeclaredSize {
		limit = bmpMaxDeclaredSize
	}
	if size < bmpMinDeclaredSize || size > limit {
		return 0, fmt.Errorf("%w: declared %d, accepted [%d, %d]",
			apperrors.ErrInvalidSizeField, size, bmpMinDeclaredSize, limit)
	}
	return size, nil
}

// ── 3. embedded fragmented-media box ─────────────────────────────────────────

// matchFragmentedMedia looks for the ASCII box marker within the first
// boxSearchLimit bytes.  The container starts 4 bytes before the marker so
// the box-size field is retained, and extends to the end of the buffer.
func matchFragmentedMedia(b []byte) (core.DetectionResult, bool) {
	p := bytes.Index(b, tagFtyp)
	if p < 0 || p >= boxSearchLimit {
		return core.DetectionResult{}, false
	}
	start := p - 4
	if start < 0 {
		start = 0
	}
	return core.DetectionResult{Format: core.FormatMP4, Payload: b[start:]}, true
}

// ── 4. embedded image signatures at an arbitrary offset ──────────────────────

// matchEmbeddedImage searches the whole buffer for each image magic in fixed
// priority order; on a hit the container runs from the signature to the end
// of the buffer.  An embedded bitmap hit repeats the size validation against
// the sub-slice and falls through when it fails.
func matchEmbeddedImage(b []byte) (core.DetectionResult, bool) {
	if p := bytes.Index(b, magicPNG); p >= 0 && len(b)-p > 8 {
		return core.DetectionResult{Format: core.FormatPNG, Payload: b[p:]}, true
	}
	if p := bytes.Index(b, magicJPEG); p >= 0 && len(b)-p > 4 {
		return core.DetectionResult{Format: core.FormatJPEG, Payload: b[p:]}, true
	}
	if p := gifIndex(b); p >= 0 && len(b)-p > 6 {
		return core.DetectionResult{Format: core.FormatGIF, Payload: b[p:]}, true
	}
	if p := bytes.Index(b, magicRIFF); p >= 0 && isWebP(b[p:]) {
		return core.DetectionResult{Format: core.FormatWebP, Payload: b[p:]}, true
	}
	if p := bytes.Index(b, magicBMP); p >= 0 {
		if size, err := BMPDeclaredSize(b[p:]); err == nil {
			return core.DetectionResult{Format: core.FormatBMP, Payload: b[p : p+size]}, true
		}
	}
	return core.DetectionResult{}, false
}

func gifIndex(b []byte) int {
	if p := bytes.Index(b, magicGIF87a); p >= 0 {
		return p
	}
	return bytes.Index(b, magicGIF89a)
}

// ── 5. direct-start audio/video containers ───────────────────────────────────

// matchDirectAV recognizes containers that pass through unchanged: no
// re-encoding is ever attempted on audio or video.
func matchDirectAV(b []byte) (core.DetectionResult, bool) {
	head := b
	if len(head) > boxSearchLimit {
		head = head[:boxSearchLimit]
	}
	switch {
	case bytes.HasPrefix(b, magicRIFF) && bytes.Contains(head, tagAVI):
		return core.DetectionResult{Format: core.FormatAVI, Payload: b}, true
	case bytes.HasPrefix(b, magicMKV):
		return core.DetectionResult{Format: core.FormatMKV, Payload: b}, true
	case bytes.HasPrefix(b, magicID3), bytes.HasPrefix(b, magicMP3):
		return core.DetectionResult{Format: core.FormatMP3, Payload: b}, true
	case bytes.HasPrefix(b, magicRIFF) && bytes.Contains(head, tagWAVE):
		return core.DetectionResult{Format: core.FormatWAV, Payload: b}, true
	}
	return core.DetectionResult{}, false
}
