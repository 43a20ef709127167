// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/render2d/atlas"
)

// bakeText rasterizes the runes of s with Go Regular at size pixels per em,
// packs them into a and lays them out on one line. Glyph positions are
// relative to a pen starting at (0, 0) on the baseline.
func bakeText(a *atlas.Atlas, s string, size float64) ([]atlas.PositionedGlyph, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	type baked struct {
		region atlas.Region
		offset image.Point
	}
	cache := make(map[rune]baked)

	var (
		glyphs []atlas.PositionedGlyph
		pen    fixed.Int26_6
		prev   rune = -1
	)
	for _, r := range s {
		if prev >= 0 {
			pen += face.Kern(prev, r)
		}
		prev = r

		bounds, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		g, seen := cache[r]
		if !seen {
			mask := rasterize(face, r, bounds)
			if mask != nil {
				region, err := a.Insert(mask)
				if err != nil {
					return nil, fmt.Errorf("insert %q: %w", r, err)
				}
				g = baked{region: region, offset: mask.Rect.Min}
			}
			cache[r] = g
		}
		if g.region.IsValid() {
			glyphs = append(glyphs, atlas.PositionedGlyph{
				X:      float32(pen.Round() + g.offset.X),
				Y:      float32(g.offset.Y),
				Region: g.region,
			})
		}
		pen += advance
	}
	return glyphs, nil
}

// rasterize draws one rune into an alpha mask whose bounds are the glyph's
// pixel bounds relative to the pen. Blank glyphs return nil.
func rasterize(face font.Face, r rune, bounds fixed.Rectangle26_6) *image.Alpha {
	rect := image.Rect(
		bounds.Min.X.Floor(), bounds.Min.Y.Floor(),
		bounds.Max.X.Ceil(), bounds.Max.Y.Ceil(),
	)
	if rect.Empty() {
		return nil
	}
	mask := image.NewAlpha(rect)
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{},
	}
	d.DrawString(string(r))
	return mask
}
