package sstv

import "errors"

// Internal, always-recoverable conditions. The core never aborts on a
// single bad sample: the decoder's per-sample step returns these to
// DecodeImage, which ignores them and keeps pulling samples.
var (
	// ErrSyncLost indicates the decoder gave up waiting for an hsync and
	// re-entered detect_sync.
	ErrSyncLost = errors.New("sstv: sync lost, re-entering detect_sync")

	// ErrModeMismatch indicates an observed line length fell outside every
	// mode's classification window.
	ErrModeMismatch = errors.New("sstv: observed line length matches no known mode")
)

// External I/O errors, surfaced from the caller-supplied sample/pixel
// collaborators and propagated unwrapped per spec's "core treats callback
// return values as authoritative" rule.
var (
	ErrSinkClosed   = errors.New("sstv: pixel or sample sink closed or rejected write")
	ErrSourceClosed = errors.New("sstv: sample or pixel source closed unexpectedly")
)
