// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"image/color"
	"math"
)

// RGBA is a straight-alpha color with float32 components in [0, 1].
// It matches the color attribute of a Vertex.
type RGBA struct {
	R, G, B, A float32
}

// Common colors.
var (
	Transparent = RGBA{}
	Black       = RGBA{A: 1}
	White       = RGBA{R: 1, G: 1, B: 1, A: 1}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without a
// leading '#'. Invalid input yields opaque black.
func Hex(hex string) RGBA {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var v [4]uint32
	v[3] = 255
	switch len(hex) {
	case 3, 4:
		for i := range len(hex) {
			n, ok := hexNibble(hex[i])
			if !ok {
				return Black
			}
			v[i] = n * 17
		}
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			hi, ok1 := hexNibble(hex[i])
			lo, ok2 := hexNibble(hex[i+1])
			if !ok1 || !ok2 {
				return Black
			}
			v[i/2] = hi<<4 | lo
		}
	default:
		return Black
	}
	return RGBA{
		R: float32(v[0]) / 255,
		G: float32(v[1]) / 255,
		B: float32(v[2]) / 255,
		A: float32(v[3]) / 255,
	}
}

func hexNibble(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: unitToByte(c.R),
		G: unitToByte(c.G),
		B: unitToByte(c.B),
		A: unitToByte(c.A),
	}
}

// Premultiplied returns the color with RGB scaled by alpha.
func (c RGBA) Premultiplied() RGBA {
	return RGBA{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// WithAlpha returns a copy of c with alpha replaced.
func (c RGBA) WithAlpha(a float32) RGBA {
	c.A = a
	return c
}

// Valid reports whether every component lies in [0, 1].
func (c RGBA) Valid() bool {
	return unitRange(c.R) && unitRange(c.G) && unitRange(c.B) && unitRange(c.A)
}

// Array returns the components as a vertex color attribute.
func (c RGBA) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// unitRange reports whether v is in [0, 1]. NaN is rejected.
func unitRange(v float32) bool {
	return v >= 0 && v <= 1
}

func unitToByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
