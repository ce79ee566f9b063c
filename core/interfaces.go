package core

import (
	"context"
	"io"
	"time"
)

// Decoder converts raw bytes / a reader into a decoded Raster.
// Implementations live in adapters/decoder/.
type Decoder interface {
	// Decode reads from r and returns a decoded Raster.
	Decode(ctx context.Context, r io.Reader) (*Raster, error)
	// CanDecode reports whether this decoder handles the given format.
	CanDecode(format Format) bool
}

// Encoder serialises a Raster to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img *Raster, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality  int  // 1-100; 0 = use encoder default
	Lossless bool // best-compression mode for the canonical encoder
}

// Fetcher retrieves carrier bytes identified by a URL or data URI.
// Implementations live in adapters/fetch/.
type Fetcher interface {
	// Fetch returns the raw bytes and the reported content type.
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// StorageAdapter persists extraction results and retrieves them later.
// Names are append-only: Put must never overwrite an existing key.
// Implementations live in adapters/storage/.
type StorageAdapter interface {
	Put(ctx context.Context, key StorageKey, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Delete(ctx context.Context, key StorageKey) error
	Exists(ctx context.Context, key StorageKey) (bool, error)
	// SweepExpired deletes stored files older than ttl and reports how many
	// were removed.
	SweepExpired(ctx context.Context, ttl time.Duration) (int, error)
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(stepName string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}
