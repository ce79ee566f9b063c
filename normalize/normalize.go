// Package normalize re-encodes recognized still-image payloads into the
// canonical raster format.
package normalize

import (
	"bytes"
	"context"

	"github.com/Skryldev/steg-extractor/core"
)

// Normalizer converts non-canonical still images to the canonical format via
// the registered codecs.  Decode or encode failures degrade to the original
// bytes: an embedded-at-offset detection often truncates a real container,
// and a best-effort result beats no result.
type Normalizer struct {
	registry core.Registry
	logger   core.Logger
}

// New returns a Normalizer backed by reg.  logger may be nil.
func New(reg core.Registry, logger core.Logger) *Normalizer {
	return &Normalizer{registry: reg, logger: logger}
}

// Normalize returns the detection re-encoded to the canonical format, along
// with true when re-encoding happened.  Payloads that need no normalization
// (the canonical format itself, vector images, audio/video, raw binary) pass
// through unchanged.  Never returns an error for corrupt payload bytes.
func (n *Normalizer) Normalize(ctx context.Context, det core.DetectionResult) (core.DetectionResult, bool) {
	if !det.Format.NeedsNormalization() {
		return det, false
	}

	dec, ok := n.registry.DecoderFor(det.Format)
	if !ok {
		n.degrade(det, "no decoder registered")
		return det, false
	}
	raster, err := dec.Decode(ctx, bytes.NewReader(det.Payload))
	if err != nil {
		n.degrade(det, err.Error())
		return det, false
	}

	enc, ok := n.registry.EncoderFor(core.FormatPNG)
	if !ok {
		n.degrade(det, "no canonical encoder registered")
		return det, false
	}
	out, err := enc.Encode(ctx, raster, core.EncodeOptions{})
	if err != nil {
		n.degrade(det, err.Error())
		return det, false
	}

	return core.DetectionResult{Format: core.FormatPNG, Payload: out}, true
}

func (n *Normalizer) degrade(det core.DetectionResult, reason string) {
	if n.logger != nil {
		n.logger.Warn("normalize.degraded",
			"format", string(det.Format),
			"size", len(det.Payload),
			"reason", reason,
		)
	}
}
