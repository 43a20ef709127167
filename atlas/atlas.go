// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package atlas packs pre-rasterized glyph coverage bitmaps into a single
// channel atlas image and builds glyph quads that sample it.
//
// The atlas does not rasterize fonts. Callers insert bitmaps produced by an
// external rasterizer and position glyphs themselves; BuildGlyphVertices
// turns the positioned glyphs into vertices for render2d's glyph pipeline.
//
// Regions are separated by a transparent border so linear filtering at a
// glyph's edge never picks up a neighbor.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Atlas errors.
var (
	// ErrAtlasFull is returned when no region fits the requested size.
	ErrAtlasFull = errors.New("atlas: full")

	// ErrEmptyBitmap is returned when inserting a zero-sized image.
	ErrEmptyBitmap = errors.New("atlas: empty bitmap")
)

const (
	// DefaultSize is the default atlas dimension (2048x2048).
	DefaultSize = 2048

	// MinSize is the smallest accepted atlas dimension.
	MinSize = 16

	// Padding is the transparent border kept around every region.
	Padding = 1
)

// Atlas is a single-channel coverage atlas. It implements
// render2d.AtlasSource.
//
// Atlas is safe for concurrent use. The renderer reads Coverage while
// encoding a frame, so callers must not Insert concurrently with a frame's
// End.
type Atlas struct {
	mu         sync.Mutex
	img        *image.Alpha
	alloc      *shelfAllocator
	dirty      image.Rectangle
	generation uint64
}

// New creates a size x size atlas. Sizes below MinSize are raised to
// MinSize.
func New(size int) *Atlas {
	return NewSize(size, size)
}

// NewSize creates a width x height atlas.
func NewSize(width, height int) *Atlas {
	width, height = max(width, MinSize), max(height, MinSize)
	return &Atlas{
		img:        image.NewAlpha(image.Rect(0, 0, width, height)),
		alloc:      newShelfAllocator(width, height, Padding),
		generation: 1,
	}
}

// Insert copies the alpha channel of src into a free region and returns
// the region. It fails with ErrAtlasFull when the bitmap does not fit.
func (a *Atlas) Insert(src image.Image) (Region, error) {
	b := src.Bounds()
	if b.Empty() {
		return Region{}, ErrEmptyBitmap
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.alloc.allocate(b.Dx(), b.Dy())
	if !r.IsValid() {
		return Region{}, fmt.Errorf("%w: no room for %dx%d", ErrAtlasFull, b.Dx(), b.Dy())
	}
	dst := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	draw.Copy(a.img, dst.Min, src, b, draw.Src, nil)
	a.dirty = a.dirty.Union(dst)
	return r, nil
}

// Set writes one coverage texel. It is meant for tests and markers.
func (a *Atlas) Set(x, y int, coverage uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !(image.Point{X: x, Y: y}.In(a.img.Rect)) {
		return
	}
	a.img.Pix[a.img.PixOffset(x, y)] = coverage
	a.dirty = a.dirty.Union(image.Rect(x, y, x+1, y+1))
}

// UV returns the normalized texture coordinates (u0, v0, u1, v1) of the
// region's top-left and bottom-right edges.
func (a *Atlas) UV(r Region) [4]float32 {
	a.mu.Lock()
	w, h := float32(a.img.Rect.Dx()), float32(a.img.Rect.Dy())
	a.mu.Unlock()
	return [4]float32{
		float32(r.X) / w,
		float32(r.Y) / h,
		float32(r.X+r.Width) / w,
		float32(r.Y+r.Height) / h,
	}
}

// Size returns the atlas dimensions.
func (a *Atlas) Size() (width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.img.Rect.Dx(), a.img.Rect.Dy()
}

// Coverage returns the atlas image.
func (a *Atlas) Coverage() *image.Alpha {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.img
}

// Dirty returns the region written since the last ClearDirty.
func (a *Atlas) Dirty() image.Rectangle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// ClearDirty marks the atlas contents as uploaded.
func (a *Atlas) ClearDirty() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty = image.Rectangle{}
}

// Generation changes when Reset replaces the image.
func (a *Atlas) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Utilization returns the fraction of texels allocated to regions.
func (a *Atlas) Utilization() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alloc.utilization()
}

// Len returns the number of inserted regions.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alloc.count
}

// Reset drops every region and clears the image. Previously returned
// regions become invalid. The generation changes so renderers re-upload
// the whole atlas.
func (a *Atlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.img = image.NewAlpha(a.img.Rect)
	a.alloc.reset()
	a.dirty = image.Rectangle{}
	a.generation++
}
