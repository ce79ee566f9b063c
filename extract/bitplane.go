// Package extract recovers length-prefixed payloads hidden in the
// least-significant bits of a carrier image's pixel channels.
package extract

import "github.com/Skryldev/steg-extractor/core"

// Window is the contiguous row range of a carrier eligible for bit reading
// during one extraction attempt.  Rows in [Start, End) are read.
type Window struct {
	Start int
	End   int
}

// WindowFor derives a window from the carrier height and a symmetric trim
// fraction: trim 0.20 skips the top and bottom 20% of rows.
func WindowFor(height int, trim float64) Window {
	skip := int(float64(height) * trim)
	return Window{Start: skip, End: height - skip}
}

// Empty reports whether the window contains no rows.
func (w Window) Empty() bool { return w.End <= w.Start }

// BitReader walks the pixel channels of a window in raster order (channel
// fastest, then column, then row) and yields one LSB per channel value.
// It is lazy, finite and non-restartable; an empty window yields nothing.
type BitReader struct {
	pb      *core.PixelBuffer
	win     Window
	row     int
	col     int
	channel int
}

// NewBitReader positions a reader at the first channel of the window.
func NewBitReader(pb *core.PixelBuffer, win Window) *BitReader {
	return &BitReader{pb: pb, win: win, row: win.Start}
}

// Next returns the next LSB and true, or false when the window is exhausted.
func (r *BitReader) Next() (uint8, bool) {
	if r.win.Empty() || r.row >= r.win.End {
		return 0, false
	}
	bit := r.pb.At(r.row, r.col, r.channel) & 1

	r.channel++
	if r.channel == core.Channels {
		r.channel = 0
		r.col++
		if r.col == r.pb.Width() {
			r.col = 0
			r.row++
		}
	}
	return bit, true
}
