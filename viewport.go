// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ViewportUniformSize is the byte size of the viewport uniform block:
// two float32 dimensions padded to a 16-byte aligned block.
const ViewportUniformSize = 16

// Viewport is the surface size in pixels used by the pixel-to-NDC transform.
// A Viewport obtained from NewViewport always has finite, positive
// dimensions. The zero Viewport is invalid and transforms fail closed.
type Viewport struct {
	Width  float32
	Height float32
}

// NewViewport validates the dimensions and returns the viewport.
func NewViewport(width, height float32) (Viewport, error) {
	vp := Viewport{Width: width, Height: height}
	if err := vp.Validate(); err != nil {
		return Viewport{}, err
	}
	return vp, nil
}

// Validate returns ErrInvalidViewport unless both dimensions are finite and
// strictly positive.
func (v Viewport) Validate() error {
	if !positiveFinite(v.Width) || !positiveFinite(v.Height) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidViewport, v.Width, v.Height)
	}
	return nil
}

// Valid reports whether Validate would succeed.
func (v Viewport) Valid() bool {
	return positiveFinite(v.Width) && positiveFinite(v.Height)
}

// ToNDC maps a pixel-space position (origin top-left, Y down) to normalized
// device coordinates (origin center, Y up).
//
//	(0, 0)           -> (-1,  1)
//	(Width, 0)       -> ( 1,  1)
//	(0, Height)      -> (-1, -1)
//	(Width, Height)  -> ( 1, -1)
//
// On an invalid viewport ToNDC returns (0, 0, false) rather than producing
// Inf or NaN.
func (v Viewport) ToNDC(px, py float32) (x, y float32, ok bool) {
	if !v.Valid() {
		return 0, 0, false
	}
	x = (px/v.Width)*2 - 1
	y = 1 - (py/v.Height)*2
	if !finite(x) || !finite(y) {
		return 0, 0, false
	}
	return x, y, true
}

// Uniform encodes the viewport uniform block consumed by the vertex stage.
// Layout: width f32, height f32, 8 bytes of zero padding.
func (v Viewport) Uniform() [ViewportUniformSize]byte {
	var buf [ViewportUniformSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Width))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Height))
	return buf
}

// String returns "WxH".
func (v Viewport) String() string {
	return fmt.Sprintf("%gx%g", v.Width, v.Height)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func positiveFinite(v float32) bool {
	return v > 0 && finite(v)
}
