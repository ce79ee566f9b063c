// Package stegextractor recovers payloads hidden in the least-significant
// bits of raster images, classifies the recovered bytes by container
// signature, normalizes recognized still images to PNG, and stores the
// result in a flat file store with a retention window.
package stegextractor

import (
	"context"
	"io"
	"time"

	"github.com/Skryldev/steg-extractor/adapters/decoder"
	"github.com/Skryldev/steg-extractor/adapters/encoder"
	"github.com/Skryldev/steg-extractor/adapters/fetch"
	"github.com/Skryldev/steg-extractor/config"
	"github.com/Skryldev/steg-extractor/core"
	"github.com/Skryldev/steg-extractor/normalize"
	"github.com/Skryldev/steg-extractor/pipeline"
)

// Re-export Format constants for convenience.
const (
	PNG  = core.FormatPNG
	JPEG = core.FormatJPEG
	GIF  = core.FormatGIF
	WebP = core.FormatWebP
	BMP  = core.FormatBMP
	TIFF = core.FormatTIFF
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Extractor is the primary entry point.
type Extractor struct {
	inner      *core.Service
	reg        *core.DefaultRegistry
	fetcher    core.Fetcher
	normalizer *normalize.Normalizer
	cfg        config.Config
}

// New creates a fully wired Extractor with the built-in carrier decoders and
// the canonical PNG encoder registered.  Attach a store with UseStorage
// before Start to enable persisted results and the retention janitor.
func New(cfg config.Config) *Extractor {
	reg := core.NewRegistry()
	// Register built-in codecs.
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatGIF, decoder.NewGIF())
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
	reg.RegisterDecoder(core.FormatBMP, decoder.NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, decoder.NewTIFF())
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())

	inner := core.NewService(cfg, reg)
	return &Extractor{
		inner:      inner,
		reg:        reg,
		fetcher:    fetch.NewHTTP(cfg.FetchTimeout, cfg.MaxImageBytes),
		normalizer: normalize.New(reg, nil),
		cfg:        cfg,
	}
}

// SetLogger attaches a structured logger.
func (e *Extractor) SetLogger(l core.Logger) {
	e.inner.SetLogger(l)
	e.normalizer = normalize.New(e.reg, l)
}

// SetMetrics attaches a metrics collector.
func (e *Extractor) SetMetrics(m core.MetricsCollector) { e.inner.SetMetrics(m) }

// AddHook registers an observer for pipeline step events.
func (e *Extractor) AddHook(h core.Hook) { e.inner.AddHook(h) }

// UseStorage attaches the extracted-file store.
func (e *Extractor) UseStorage(st core.StorageAdapter) { e.inner.SetStorage(st) }

// UseFetcher replaces the default HTTP fetcher.
func (e *Extractor) UseFetcher(f core.Fetcher) { e.fetcher = f }

// RegisterDecoder registers a custom carrier decoder for the given format.
func (e *Extractor) RegisterDecoder(f core.Format, d core.Decoder) { e.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (e *Extractor) RegisterEncoder(f core.Format, enc core.Encoder) { e.reg.RegisterEncoder(f, enc) }

// Start starts the background worker pool and the retention janitor.
func (e *Extractor) Start() { e.inner.Start() }

// Stop drains and shuts down the worker pool.
func (e *Extractor) Stop() { e.inner.Stop() }

// DecodeURL fetches a carrier image from a URL or data URI, recovers the
// hidden payload, classifies and normalizes it, and writes it to the store.
func (e *Extractor) DecodeURL(ctx context.Context, url string) (*core.ExtractionResult, error) {
	return e.inner.Process(ctx, FromURL(url), e.Steps()...)
}

// DecodeReader runs the same pipeline on carrier bytes read from r.
func (e *Extractor) DecodeReader(ctx context.Context, r io.Reader) (*core.ExtractionResult, error) {
	return e.inner.Process(ctx, FromReader(r), e.Steps()...)
}

// Steps returns the standard extraction pipeline.  The store step is present
// only when a storage adapter is attached.
func (e *Extractor) Steps() []core.Step {
	steps := []core.Step{
		&pipeline.FetchStep{Fetcher: e.fetcher},
		&pipeline.DecodeStep{Registry: e.reg},
		&pipeline.ExtractStep{},
		&pipeline.SniffStep{},
		&pipeline.NormalizeStep{Normalizer: e.normalizer},
	}
	if st := e.inner.Storage(); st != nil {
		steps = append(steps, &pipeline.StoreStep{Storage: st, Retention: e.cfg.Retention})
	}
	return steps
}

// Process executes the provided steps synchronously and returns the result.
func (e *Extractor) Process(ctx context.Context, src core.Source, steps ...core.Step) (*core.ExtractionResult, error) {
	return e.inner.Process(ctx, src, steps...)
}

// Batch runs the same steps on multiple sources concurrently.
func (e *Extractor) Batch(ctx context.Context, sources []core.Source, steps ...core.Step) ([]*core.ExtractionResult, []error) {
	return e.inner.Batch(ctx, sources, steps...)
}

// Submit enqueues an async job for the worker pool.
func (e *Extractor) Submit(job core.Job) error { return e.inner.Submit(job) }

// NewPipeline creates a reusable, standalone pipeline.
func (e *Extractor) NewPipeline(steps ...core.Step) *pipeline.Pipeline {
	pl := pipeline.New()
	pl.Use(steps...)
	return pl
}

// Stats returns lightweight processing statistics.
func (e *Extractor) Stats() (processed, errors int64) {
	return e.inner.ProcessedCount(), e.inner.ErrorCount()
}

// ── Source constructors ────────────────────────────────────────────────────────

// FromReader creates a Source from an io.Reader.
func FromReader(r io.Reader) core.Source { return core.Source{Reader: r, Size: -1} }

// FromURL creates a Source that a FetchStep resolves.
func FromURL(url string) core.Source { return core.Source{URL: url, Size: -1} }

// ── Step constructors ─────────────────────────────────────────────────────────

// Fetch returns a step that resolves the source URL into carrier bytes.
func Fetch(f core.Fetcher) core.Step { return &pipeline.FetchStep{Fetcher: f} }

// Decode returns a decode step bound to the given registry.
func Decode(reg core.Registry) core.Step { return &pipeline.DecodeStep{Registry: reg} }

// Extract returns the LSB payload recovery step.
func Extract() core.Step { return &pipeline.ExtractStep{} }

// Sniff returns the container classification step.
func Sniff() core.Step { return &pipeline.SniffStep{} }

// Normalize returns a step that re-encodes still images to the canonical format.
func Normalize(n *normalize.Normalizer) core.Step { return &pipeline.NormalizeStep{Normalizer: n} }

// Store returns a step that writes the payload to st with the given retention.
func Store(st core.StorageAdapter, retention time.Duration) core.Step {
	return &pipeline.StoreStep{Storage: st, Retention: retention}
}
