package decoder

import (
	"context"
	"io"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"golang.org/x/image/tiff"
)

// TIFF decodes TIFF images using golang.org/x/image/tiff.
type TIFF struct{}

func NewTIFF() *TIFF { return &TIFF{} }

func (t *TIFF) CanDecode(format core.Format) bool {
	return format == core.FormatTIFF
}

func (t *TIFF) Decode(ctx context.Context, r io.Reader) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "tiff.decode", err)
	}

	img, err := tiff.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "tiff.decode", err)
	}
	return raster(img, core.FormatTIFF), nil
}
