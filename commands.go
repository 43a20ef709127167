// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"fmt"
	"image"
	"reflect"
)

// AtlasSource is a single-channel glyph coverage atlas populated by an
// external rasterizer. The renderer mirrors it into a GPU texture and
// uploads only the dirty region between frames.
//
// The renderer keys its textures by the AtlasSource value, so the dynamic
// type must be comparable; implement it on a pointer. Sources of other
// types are rejected with ErrResourceUnbound.
type AtlasSource interface {
	// Coverage returns the atlas image. Texel (0, 0) is the top-left.
	Coverage() *image.Alpha

	// Dirty returns the region written since the last ClearDirty, in
	// image coordinates. An empty rectangle means nothing changed.
	Dirty() image.Rectangle

	// ClearDirty marks the atlas as uploaded.
	ClearDirty()

	// Generation changes whenever the image is replaced or resized. A new
	// generation forces a full upload.
	Generation() uint64
}

// Submitter accepts vertex batches. *Frame and *CommandList implement it.
type Submitter interface {
	SubmitQuads(batch []Vertex) error
	SubmitGlyphs(batch []Vertex, atlas AtlasSource) error
}

// CommandKind identifies the pipeline a Command runs on.
type CommandKind uint8

const (
	// CommandQuads draws vertex-colored triangles.
	CommandQuads CommandKind = iota
	// CommandGlyphs draws coverage-tinted triangles sampling an atlas.
	CommandGlyphs
	// CommandDebugAtlas draws the whole atlas over the target.
	CommandDebugAtlas
)

func (k CommandKind) String() string {
	switch k {
	case CommandQuads:
		return "quads"
	case CommandGlyphs:
		return "glyphs"
	case CommandDebugAtlas:
		return "debug-atlas"
	}
	return fmt.Sprintf("CommandKind(%d)", uint8(k))
}

// Command is one recorded draw call. Vertices is empty for
// CommandDebugAtlas, whose vertices are built into the pass.
type Command struct {
	Kind     CommandKind
	Vertices []Vertex
	Atlas    AtlasSource

	// First is the index of Vertices[0] in CommandList.Vertices.
	First int
}

// CommandList records validated draw commands in submission order without
// touching the GPU. A Frame records into one; the software renderer
// replays one on the CPU.
//
// Every submission is validated as a whole: a rejected batch leaves the
// list unchanged.
type CommandList struct {
	viewport Viewport
	bound    AtlasSource
	debug    bool

	vertices []Vertex
	cmds     []command
}

type command struct {
	kind  CommandKind
	first int
	count int
	atlas AtlasSource
}

// NewCommandList creates a list that draws against vp. If vp is invalid,
// every draw fails with ErrResourceUnbound. Of the options, only
// WithDebugPasses applies.
func NewCommandList(vp Viewport, opts ...Option) *CommandList {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &CommandList{}
	l.reset(vp, o.debug)
	return l
}

func (l *CommandList) reset(vp Viewport, debug bool) {
	l.viewport = vp
	l.debug = debug
	l.vertices = l.vertices[:0]
	l.cmds = l.cmds[:0]
}

// Viewport returns the viewport the list draws against.
func (l *CommandList) Viewport() Viewport { return l.viewport }

// BindAtlas sets the atlas used by DebugBlitAtlas and by SubmitGlyphs calls
// with a nil atlas. A nil a unbinds. An atlas of a non-comparable type
// fails with ErrResourceUnbound and keeps the previous binding.
func (l *CommandList) BindAtlas(a AtlasSource) error {
	if a != nil {
		if err := checkComparable(a); err != nil {
			return err
		}
	}
	l.bound = a
	return nil
}

// SubmitQuads records a quad draw. The batch is copied.
func (l *CommandList) SubmitQuads(batch []Vertex) error {
	if err := l.checkViewport(); err != nil {
		return err
	}
	if err := ValidateBatch(batch); err != nil {
		return err
	}
	l.record(CommandQuads, batch, nil)
	return nil
}

// SubmitGlyphs records a glyph draw sampling atlas. A nil atlas selects the
// bound one. The batch is copied and atlas becomes the bound atlas.
func (l *CommandList) SubmitGlyphs(batch []Vertex, atlas AtlasSource) error {
	if err := l.checkViewport(); err != nil {
		return err
	}
	if atlas == nil {
		atlas = l.bound
	}
	if err := checkAtlas(atlas, "glyph draw"); err != nil {
		return err
	}
	if err := ValidateBatch(batch); err != nil {
		return err
	}
	l.bound = atlas
	l.record(CommandGlyphs, batch, atlas)
	return nil
}

// DebugBlitAtlas records the atlas debug pass over the whole target using
// the bound atlas. It ignores the viewport.
func (l *CommandList) DebugBlitAtlas() error {
	if !l.debug {
		return ErrDebugDisabled
	}
	if err := checkAtlas(l.bound, "debug blit"); err != nil {
		return err
	}
	l.cmds = append(l.cmds, command{kind: CommandDebugAtlas, first: len(l.vertices), atlas: l.bound})
	return nil
}

func (l *CommandList) checkViewport() error {
	if !l.viewport.Valid() {
		return fmt.Errorf("%w: viewport not set", ErrResourceUnbound)
	}
	return nil
}

func checkAtlas(a AtlasSource, use string) error {
	if a == nil {
		return fmt.Errorf("%w: %s without an atlas", ErrResourceUnbound, use)
	}
	if err := checkComparable(a); err != nil {
		return err
	}
	if a.Coverage() == nil {
		return fmt.Errorf("%w: %s on an atlas without an image", ErrResourceUnbound, use)
	}
	return nil
}

// checkComparable rejects atlases that cannot be used as a map key.
func checkComparable(a AtlasSource) error {
	if !reflect.TypeOf(a).Comparable() {
		return fmt.Errorf("%w: atlas type %T is not comparable", ErrResourceUnbound, a)
	}
	return nil
}

func (l *CommandList) record(kind CommandKind, batch []Vertex, atlas AtlasSource) {
	if len(batch) == 0 {
		return
	}
	first := len(l.vertices)
	l.vertices = append(l.vertices, batch...)
	l.cmds = append(l.cmds, command{kind: kind, first: first, count: len(batch), atlas: atlas})
}

// Len returns the number of recorded draw commands.
func (l *CommandList) Len() int { return len(l.cmds) }

// Vertices returns every recorded vertex in submission order.
func (l *CommandList) Vertices() []Vertex { return l.vertices }

// Commands returns the recorded commands in submission order. The vertex
// slices alias the list and are valid until the next submission.
func (l *CommandList) Commands() []Command {
	out := make([]Command, len(l.cmds))
	for i, c := range l.cmds {
		out[i] = Command{
			Kind:     c.kind,
			Vertices: l.vertices[c.first : c.first+c.count : c.first+c.count],
			Atlas:    c.atlas,
			First:    c.first,
		}
	}
	return out
}

// Reset drops all commands and keeps the viewport and bound atlas.
func (l *CommandList) Reset() {
	l.reset(l.viewport, l.debug)
}
