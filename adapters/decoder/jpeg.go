// Package decoder provides format-specific carrier image decoders.
package decoder

import (
	"context"
	"image"
	"image/jpeg"
	"io"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool {
	return format == core.FormatJPEG || format == core.FormatUnknown
}

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}

	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "jpeg.decode", err)
	}
	return raster(img, core.FormatJPEG), nil
}

// raster wraps a decoded image with its metadata.
func raster(img image.Image, f core.Format) *core.Raster {
	bounds := img.Bounds()
	return &core.Raster{
		Image:  img,
		Format: f,
		Meta: core.Metadata{
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			Format:   f,
			HasAlpha: hasAlpha(img),
		},
	}
}

func hasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
