package decoder

import (
	"context"
	"io"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
	"golang.org/x/image/bmp"
)

// BMP decodes Windows bitmap images using golang.org/x/image/bmp.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanDecode(format core.Format) bool {
	return format == core.FormatBMP
}

func (b *BMP) Decode(ctx context.Context, r io.Reader) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "bmp.decode", err)
	}

	img, err := bmp.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "bmp.decode", err)
	}
	return raster(img, core.FormatBMP), nil
}
