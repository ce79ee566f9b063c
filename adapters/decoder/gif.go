package decoder

import (
	"context"
	"image/gif"
	"io"

	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
)

// GIF decodes GIF images using the standard library.  Animated inputs yield
// their first frame.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanDecode(format core.Format) bool {
	return format == core.FormatGIF
}

func (g *GIF) Decode(ctx context.Context, r io.Reader) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "gif.decode", err)
	}

	img, err := gif.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "gif.decode", err)
	}
	return raster(img, core.FormatGIF), nil
}
