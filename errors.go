// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import "errors"

// Errors returned by the renderer. Wrapped errors carry detail; compare
// with errors.Is.
var (
	// ErrInvalidViewport is returned when a viewport dimension is not a
	// finite, strictly positive number. The previous viewport is kept.
	ErrInvalidViewport = errors.New("render2d: invalid viewport")

	// ErrMalformedBatch is returned when a vertex batch is not a whole
	// number of triangles or carries out-of-range attributes. Nothing from
	// the batch is recorded.
	ErrMalformedBatch = errors.New("render2d: malformed batch")

	// ErrResourceUnbound is returned when a draw needs a viewport or atlas
	// that has not been provided, or when the renderer or frame is closed.
	ErrResourceUnbound = errors.New("render2d: resource unbound")

	// ErrDebugDisabled is returned by DebugBlitAtlas on renderers built
	// without WithDebugPasses(true).
	ErrDebugDisabled = errors.New("render2d: debug passes disabled")

	// ErrFrameInFlight is returned by BeginFrame and ReleaseAtlas while a
	// frame is open.
	ErrFrameInFlight = errors.New("render2d: frame already in flight")

	// ErrNoDevice is returned by New when the provider exposes no HAL device.
	ErrNoDevice = errors.New("render2d: provider has no HAL device")
)
