package core

import (
	"context"
	"image"
	"io"
	"time"
)

// Format identifies a detected container format.  The tag doubles as the file
// extension of stored extraction results.
type Format string

const (
	// FormatPNG is the canonical still-image format; every other recognized
	// still image is re-encoded to it.
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatGIF  Format = "gif"
	FormatWebP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatICO  Format = "ico"
	FormatSVG  Format = "svg"

	FormatMP4 Format = "mp4"
	FormatAVI Format = "avi"
	FormatMKV Format = "mkv"
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"

	// FormatBinary is the fallback for uninterpretable payloads.
	FormatBinary Format = "bin"

	FormatUnknown Format = "unknown"
)

// NeedsNormalization reports whether a payload of this format must be
// re-encoded to the canonical format.  SVG stays raw: rasterizing vector
// payloads is out of scope.
func (f Format) NeedsNormalization() bool {
	switch f {
	case FormatJPEG, FormatGIF, FormatWebP, FormatBMP, FormatTIFF, FormatICO:
		return true
	}
	return false
}

// IsStillImage reports whether the format is a recognized raster or vector image.
func (f Format) IsStillImage() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatGIF, FormatWebP, FormatBMP, FormatTIFF, FormatICO, FormatSVG:
		return true
	}
	return false
}

// Channels is the channel count of every PixelBuffer.  Alpha and palette
// information is stripped before the extraction core ever sees a buffer.
const Channels = 3

// PixelBuffer is an immutable row-major 3-channel 8-bit raster.  It is owned
// exclusively by one extraction call for its duration and never mutated.
type PixelBuffer struct {
	width  int
	height int
	pix    []uint8 // len = width*height*Channels
}

// NewPixelBuffer wraps pix (row-major RGB, len width*height*Channels).
// The caller must not modify pix afterwards.
func NewPixelBuffer(width, height int, pix []uint8) *PixelBuffer {
	if len(pix) != width*height*Channels {
		panic("core: pixel slice length does not match dimensions")
	}
	return &PixelBuffer{width: width, height: height, pix: pix}
}

// PixelBufferFromImage flattens img into a 3-channel buffer, discarding alpha.
// NRGBA and RGBA sources are read straight from their pixel storage so that
// channel LSBs survive untouched; other color models go through the generic
// 16-bit accessor.
func PixelBufferFromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*Channels)

	switch src := img.(type) {
	case *image.NRGBA:
		flattenQuads(pix, src.Pix, src.Stride, w, h)
	case *image.RGBA:
		flattenQuads(pix, src.Pix, src.Stride, w, h)
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				pix[i] = uint8(r >> 8)
				pix[i+1] = uint8(g >> 8)
				pix[i+2] = uint8(bl >> 8)
				i += Channels
			}
		}
	}
	return &PixelBuffer{width: w, height: h, pix: pix}
}

// flattenQuads copies RGB from 4-byte-per-pixel storage, dropping alpha.
func flattenQuads(dst, src []uint8, stride, w, h int) {
	i := 0
	for y := 0; y < h; y++ {
		row := src[y*stride:]
		for x := 0; x < w; x++ {
			dst[i] = row[x*4]
			dst[i+1] = row[x*4+1]
			dst[i+2] = row[x*4+2]
			i += Channels
		}
	}
}

// Width returns the buffer width in pixels.
func (p *PixelBuffer) Width() int { return p.width }

// Height returns the buffer height in pixels.
func (p *PixelBuffer) Height() int { return p.height }

// At returns the channel value at (row, col, channel).
func (p *PixelBuffer) At(row, col, channel int) uint8 {
	return p.pix[(row*p.width+col)*Channels+channel]
}

// Metadata holds carrier image information extracted during decode.
type Metadata struct {
	Width     int
	Height    int
	Format    Format
	HasAlpha  bool
	SizeBytes int64
}

// Raster is a decoded carrier image as produced by a Decoder.
type Raster struct {
	Image  image.Image
	Format Format
	Meta   Metadata
}

// PayloadFrame is a completed length-prefixed frame recovered from a carrier.
// Bytes holds the packed frame as extracted: the 4-byte big-endian length
// prefix followed by DeclaredLength payload bytes.  The sniffer receives the
// whole packed frame; its embedded-signature rules skip past the prefix.
type PayloadFrame struct {
	DeclaredLength uint32
	Bytes          []byte
}

// Payload returns the frame bytes with the length prefix stripped.
func (f *PayloadFrame) Payload() []byte {
	if len(f.Bytes) < 4 {
		return nil
	}
	return f.Bytes[4:]
}

// DetectionResult is the sniffer's terminal classification: a format tag plus
// the byte region that constitutes that container.
type DetectionResult struct {
	Format  Format
	Payload []byte
}

// StoredFile describes an extraction result written to the flat store.
type StoredFile struct {
	Name      string
	Size      int64
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Artifact is the value passed through a pipeline.  Each stage fills in the
// field it produces; later stages read what earlier ones wrote.
type Artifact struct {
	// Where the carrier came from (URL or logical name); informational.
	SourceURL string

	// Raw carrier bytes after fetch.
	CarrierData   []byte
	CarrierFormat Format

	// Decoded carrier.
	Pixels *PixelBuffer
	Meta   Metadata

	// Recovered frame and its classification.
	Frame      *PayloadFrame
	Detection  *DetectionResult
	Normalized bool // true when the payload was re-encoded to the canonical format

	// Final stored file, when a store step ran.
	Stored *StoredFile
}

// ExtractionResult is returned to the caller after the full pipeline completes.
type ExtractionResult struct {
	Artifact *Artifact

	// Observability.
	ProcessingTime time.Duration
	StepTimings    map[string]time.Duration
}

// Source abstracts where carrier bytes come from (reader, URL, data URI).
type Source struct {
	Reader      io.Reader
	URL         string // fetched by a FetchStep when Reader is nil
	ContentType string // optional hint
	Name        string // optional logical name
	Size        int64  // -1 if unknown
}

// Job encapsulates a single unit of work for the worker pool.
type Job struct {
	ID      string
	Ctx     context.Context //nolint:containedctx // intentional for async jobs
	Source  Source
	Steps   []Step
	Options JobOptions
	// Result channel; nil for fire-and-forget.
	ResultCh chan<- JobResult
}

// JobOptions controls per-job behaviour.
type JobOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

// JobResult wraps the outcome of an async job.
type JobResult struct {
	JobID  string
	Result *ExtractionResult
	Err    error
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *Artifact value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, a *Artifact) (*Artifact, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, a *Artifact)
	AfterStep(ctx context.Context, stepName string, a *Artifact, d time.Duration, err error)
}

// StorageKey uniquely identifies a stored extraction result.
type StorageKey struct {
	Bucket string
	Path   string
}
