package stegextractor

import "github.com/Skryldev/steg-extractor/core"

// Inner exposes the underlying core.Service for advanced use (e.g., direct
// registry access in tests).  Prefer the high-level API for normal usage.
func (e *Extractor) Inner() *core.Service { return e.inner }
