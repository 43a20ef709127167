// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AtlasTexture mirrors a single-channel coverage image into an R8Unorm
// texture with a clamp-to-edge linear sampler. The texture is recreated
// when the image size or generation changes.
type AtlasTexture struct {
	device hal.Device
	queue  hal.Queue

	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler

	width, height int
	generation    uint64
	uploads       int

	// bindGroup is owned by the session and invalidated on recreate.
	bindGroup hal.BindGroup
}

func newAtlasTexture(device hal.Device, queue hal.Queue) *AtlasTexture {
	return &AtlasTexture{device: device, queue: queue}
}

// Sync makes the texture match img. A size or generation change recreates
// the texture and uploads everything; otherwise only the part of dirty
// inside img is written. It returns the number of bytes uploaded.
func (a *AtlasTexture) Sync(img *image.Alpha, dirty image.Rectangle, generation uint64) (int, error) {
	if img == nil || img.Rect.Empty() {
		return 0, fmt.Errorf("atlas image is empty")
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	full := a.tex == nil || w != a.width || h != a.height || generation != a.generation
	if full {
		if err := a.recreate(w, h); err != nil {
			return 0, err
		}
		a.generation = generation
	} else if dirty.Intersect(img.Rect).Empty() {
		return 0, nil
	}

	rect := img.Rect
	if !full {
		rect = dirty.Intersect(img.Rect)
	}
	rw, rh := rect.Dx(), rect.Dy()
	data := packAlpha(img, rect)
	err := a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  a.tex,
			MipLevel: 0,
			Origin: hal.Origin3D{
				X: uint32(rect.Min.X - img.Rect.Min.X), //nolint:gosec // rect lies inside img.Rect
				Y: uint32(rect.Min.Y - img.Rect.Min.Y), //nolint:gosec // rect lies inside img.Rect
			},
			Aspect: gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rw), //nolint:gosec // atlas size checked by hal.Extent3D
			RowsPerImage: uint32(rh), //nolint:gosec // atlas size checked by hal.Extent3D
		},
		&hal.Extent3D{Width: uint32(rw), Height: uint32(rh), DepthOrArrayLayers: 1}, //nolint:gosec // see above
	)
	if err != nil {
		return 0, fmt.Errorf("write atlas %v: %w", rect, err)
	}
	a.uploads++
	slogger().Debug("atlas uploaded", "rect", rect, "full", full, "bytes", len(data))
	return len(data), nil
}

// Bytes returns the texel memory of the texture, zero before the first
// Sync.
func (a *AtlasTexture) Bytes() uint64 {
	return uint64(a.width) * uint64(a.height) //nolint:gosec // non-negative sizes
}

// Uploads returns how many times the texture was written.
func (a *AtlasTexture) Uploads() int { return a.uploads }

func (a *AtlasTexture) recreate(w, h int) error {
	a.destroyTexture()

	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_atlas",
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // positive image size
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create atlas texture %dx%d: %w", w, h, err)
	}
	a.tex = tex

	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glyph_atlas_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.destroyTexture()
		return fmt.Errorf("create atlas texture view: %w", err)
	}
	a.view = view

	if a.sampler == nil {
		sampler, err := a.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "glyph_atlas_sampler",
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    gputypes.FilterModeLinear,
			MinFilter:    gputypes.FilterModeLinear,
			MipmapFilter: gputypes.FilterModeLinear,
		})
		if err != nil {
			a.destroyTexture()
			return fmt.Errorf("create atlas sampler: %w", err)
		}
		a.sampler = sampler
	}

	a.width, a.height = w, h
	return nil
}

// destroyTexture releases the texture, its view and any bind group that
// references them. The sampler is kept.
func (a *AtlasTexture) destroyTexture() {
	if a.bindGroup != nil {
		a.device.DestroyBindGroup(a.bindGroup)
		a.bindGroup = nil
	}
	if a.view != nil {
		a.device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.tex != nil {
		a.device.DestroyTexture(a.tex)
		a.tex = nil
	}
	a.width, a.height = 0, 0
}

// Destroy releases every GPU object. Safe to call more than once.
func (a *AtlasTexture) Destroy() {
	a.destroyTexture()
	if a.sampler != nil {
		a.device.DestroySampler(a.sampler)
		a.sampler = nil
	}
}

// packAlpha returns the pixels of r, which must lie inside img.Rect, with
// rows packed edge to edge.
func packAlpha(img *image.Alpha, r image.Rectangle) []byte {
	w, h := r.Dx(), r.Dy()
	if r == img.Rect && img.Stride == w && len(img.Pix) == w*h {
		return img.Pix
	}
	out := make([]byte, w*h)
	for y := range h {
		off := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out[y*w:(y+1)*w], img.Pix[off:off+w])
	}
	return out
}
