// Package vips provides an optional libvips-powered decode backend with a
// much wider carrier-format surface than the pure-Go decoders (lossless and
// animated WebP, CMYK JPEG, big-endian TIFF variants).  Requires libvips at
// build and run time.
package vips

import (
	"context"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"github.com/Skryldev/steg-extractor/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Backend is a libvips-powered core.Decoder.  Safe for concurrent use across
// goroutines.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
		CollectStats:     true,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// RegisterVipsBackend installs the backend as the decoder for every format
// it supports, replacing the pure-Go decoders.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{
		core.FormatJPEG, core.FormatPNG, core.FormatGIF,
		core.FormatWebP, core.FormatBMP, core.FormatTIFF,
	} {
		reg.RegisterDecoder(f, b)
	}
}

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatGIF,
		core.FormatWebP, core.FormatBMP, core.FormatTIFF,
		core.FormatUnknown:
		return true
	}
	return false
}

// Decode loads the buffer through libvips and hands back a Raster.  The
// pixel data crosses the cgo boundary once, as a canonical PNG export, so
// downstream code only ever sees plain image.Image values.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	defer ref.Close()

	format := vipsFormatToCore(ref.Format())

	ep := govips.NewPngExportParams()
	pngBytes, _, err := ref.ExportPng(ep)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.export", err)
	}
	img, err := png.Decode(utils.BytesReader(pngBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.reimport", err)
	}

	return &core.Raster{
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:     ref.Width(),
			Height:    ref.Height(),
			Format:    format,
			HasAlpha:  ref.HasAlpha(),
			SizeBytes: int64(len(raw)),
		},
	}, nil
}

func vipsFormatToCore(t govips.ImageType) core.Format {
	switch t {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeGIF:
		return core.FormatGIF
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeBMP:
		return core.FormatBMP
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	}
	return core.FormatUnknown
}
