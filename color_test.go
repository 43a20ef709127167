// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"image/color"
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#fff", White},
		{"000", Black},
		{"#ff000080", RGBA{R: 1, A: 128.0 / 255}},
		{"00ff00", RGBA{G: 1, A: 1}},
		{"#0f08", RGBA{G: 1, A: 136.0 / 255}},
		{"", Black},
		{"#12345", Black},
		{"zzzzzz", Black},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Hex(tt.in)
			if !near(got.R, tt.want.R) || !near(got.G, tt.want.G) || !near(got.B, tt.want.B) || !near(got.A, tt.want.A) {
				t.Errorf("Hex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := color.NRGBA{R: 10, G: 128, B: 250, A: 200}
	got := FromColor(c).Color()
	if got != color.Color(c) {
		t.Errorf("FromColor(%v).Color() = %v", c, got)
	}
}

func TestPremultiplied(t *testing.T) {
	got := RGBA{R: 1, G: 0.5, B: 0, A: 0.5}.Premultiplied()
	want := RGBA{R: 0.5, G: 0.25, B: 0, A: 0.5}
	if got != want {
		t.Errorf("Premultiplied() = %+v, want %+v", got, want)
	}
}

func TestRGBAValid(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		c    RGBA
		want bool
	}{
		{"white", White, true},
		{"transparent", Transparent, true},
		{"over one", RGBA{R: 1.01, A: 1}, false},
		{"negative", RGBA{G: -0.1, A: 1}, false},
		{"nan alpha", RGBA{A: nan}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWithAlpha(t *testing.T) {
	if got := White.WithAlpha(0.25); got.A != 0.25 || got.R != 1 {
		t.Errorf("WithAlpha(0.25) = %+v", got)
	}
	if White.A != 1 {
		t.Error("WithAlpha modified the receiver")
	}
}
