// Package pipeline provides the built-in extraction steps and the extensible
// Step API.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"github.com/Skryldev/steg-extractor/extract"
	"github.com/Skryldev/steg-extractor/normalize"
	"github.com/Skryldev/steg-extractor/sniff"
)

// ── Fetch ─────────────────────────────────────────────────────────────────────

// FetchStep retrieves carrier bytes from the artifact's source URL.  Skipped
// when the carrier bytes are already present (reader-backed sources).
type FetchStep struct {
	Fetcher core.Fetcher
}

func (s *FetchStep) Name() string { return "fetch" }

func (s *FetchStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if len(a.CarrierData) > 0 {
		return a, nil
	}
	if a.SourceURL == "" {
		return nil, apperrors.New(apperrors.CategoryInput, s.Name(), apperrors.ErrEmptyInput)
	}

	raw, contentType, err := s.Fetcher.Fetch(ctx, a.SourceURL)
	if err != nil {
		return nil, err
	}

	out := *a
	out.CarrierData = raw
	out.CarrierFormat = contentTypeToFormat(contentType)
	return &out, nil
}

// contentTypeToFormat maps MIME types to Format values.
func contentTypeToFormat(ct string) core.Format {
	switch ct {
	case "image/jpeg", "image/jpg":
		return core.FormatJPEG
	case "image/png":
		return core.FormatPNG
	case "image/gif":
		return core.FormatGIF
	case "image/webp":
		return core.FormatWebP
	case "image/bmp":
		return core.FormatBMP
	case "image/tiff":
		return core.FormatTIFF
	}
	return core.FormatUnknown
}

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes the carrier bytes into a 3-channel PixelBuffer using the
// registry decoder for the sniffed carrier format.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
	}
	if len(a.CarrierData) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}

	format := a.CarrierFormat
	if sniffed := sniff.Detect(a.CarrierData).Format; sniffed.IsStillImage() {
		format = sniffed
	}

	dec, ok := s.Registry.DecoderFor(format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	raster, err := dec.Decode(ctx, bytes.NewReader(a.CarrierData))
	if err != nil {
		return nil, err
	}
	raster.Meta.SizeBytes = int64(len(a.CarrierData))

	out := *a
	out.CarrierFormat = raster.Format
	out.Pixels = core.PixelBufferFromImage(raster.Image)
	out.Meta = raster.Meta
	return &out, nil
}

// ── Extract ───────────────────────────────────────────────────────────────────

// ExtractStep recovers the hidden length-prefixed frame from the carrier's
// channel LSBs, trying the fixed window strategies narrowest-first.
type ExtractStep struct{}

func (s *ExtractStep) Name() string { return "extract" }

func (s *ExtractStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExtract, s.Name(), err)
	}
	if a.Pixels == nil {
		return nil, apperrors.New(apperrors.CategoryExtract, s.Name(), apperrors.ErrEmptyInput)
	}

	frame, err := extract.Recover(a.Pixels)
	if err != nil {
		return nil, err
	}

	out := *a
	out.Frame = frame
	return &out, nil
}

// ── Sniff ─────────────────────────────────────────────────────────────────────

// SniffStep classifies the recovered frame bytes by container signature.
type SniffStep struct{}

func (s *SniffStep) Name() string { return "sniff" }

func (s *SniffStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySniff, s.Name(), err)
	}
	if a.Frame == nil {
		return nil, apperrors.New(apperrors.CategorySniff, s.Name(), apperrors.ErrEmptyInput)
	}

	det := sniff.Detect(a.Frame.Bytes)

	out := *a
	out.Detection = &det
	return &out, nil
}

// ── Normalize ─────────────────────────────────────────────────────────────────

// NormalizeStep re-encodes recognized non-canonical still images to the
// canonical format; everything else passes through unchanged.
type NormalizeStep struct {
	Normalizer *normalize.Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryNormalize, s.Name(), err)
	}
	if a.Detection == nil {
		return nil, apperrors.New(apperrors.CategoryNormalize, s.Name(), apperrors.ErrEmptyInput)
	}

	det, normalized := s.Normalizer.Normalize(ctx, *a.Detection)

	out := *a
	out.Detection = &det
	out.Normalized = normalized
	return &out, nil
}

// ── Store ─────────────────────────────────────────────────────────────────────

// StoreStep writes the final payload to the flat store under a unique name
// with the format tag as extension.
type StoreStep struct {
	Storage   core.StorageAdapter
	Prefix    string        // filename prefix; default "decoded"
	Retention time.Duration // recorded as the file's expiry horizon
}

func (s *StoreStep) Name() string { return "store" }

func (s *StoreStep) Execute(ctx context.Context, a *core.Artifact) (*core.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, s.Name(), err)
	}
	if a.Detection == nil {
		return nil, apperrors.New(apperrors.CategoryStorage, s.Name(), apperrors.ErrEmptyInput)
	}

	prefix := s.Prefix
	if prefix == "" {
		prefix = "decoded"
	}
	u := uuid.New()
	name := fmt.Sprintf("%s_%d_%x.%s", prefix, time.Now().Unix(), u[:4], a.Detection.Format)

	meta := map[string]string{
		"format":     string(a.Detection.Format),
		"source":     a.SourceURL,
		"normalized": fmt.Sprintf("%t", a.Normalized),
	}
	key := core.StorageKey{Path: name}
	if err := s.Storage.Put(ctx, key, bytes.NewReader(a.Detection.Payload), meta); err != nil {
		return nil, err
	}

	now := time.Now()
	out := *a
	out.Stored = &core.StoredFile{
		Name:      name,
		Size:      int64(len(a.Detection.Payload)),
		StoredAt:  now,
		ExpiresAt: now.Add(s.Retention),
	}
	return &out, nil
}
