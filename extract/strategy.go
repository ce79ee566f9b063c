package extract

import (
	"github.com/Skryldev/steg-extractor/core"
	apperrors "github.com/Skryldev/steg-extractor/errors"
)

// windowTrims are the candidate row-trim fractions, tried narrowest-first.
// The embedding region is a priori unknown: short payloads resolve quickly
// against the central 60% of rows; the full-image scan is the last resort.
var windowTrims = [...]float64{0.20, 0.10, 0}

// Windows returns the candidate extraction windows for a carrier of the
// given height, in the fixed attempt order.
func Windows(height int) []Window {
	wins := make([]Window, 0, len(windowTrims))
	for _, trim := range windowTrims {
		wins = append(wins, WindowFor(height, trim))
	}
	return wins
}

// Recover runs the bit-plane reader and framer over each candidate window in
// order and returns the first completed frame.  When every window exhausts
// without completing a frame it returns ErrNoPayload: a negative result, not
// a fault.  The first strategy to complete wins; candidate frames are never
// compared.
func Recover(pb *core.PixelBuffer) (*core.PayloadFrame, error) {
	for _, win := range Windows(pb.Height()) {
		reader := NewBitReader(pb, win)
		framer := NewFramer()
		for {
			bit, ok := reader.Next()
			if !ok {
				break
			}
			if framer.Push(bit) {
				return framer.Frame(), nil
			}
		}
	}
	return nil, apperrors.New(apperrors.CategoryExtract, "extract.recover", apperrors.ErrNoPayload)
}
