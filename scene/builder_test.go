// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/render2d"
	"github.com/gogpu/render2d/atlas"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestFillRect(t *testing.T) {
	b := NewBuilder().FillRect(NewRect(1, 2, 3, 4), render2d.White)
	batches := b.Build()
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	vs := batches[0].Vertices
	if len(vs) != 6 || batches[0].Kind != render2d.CommandQuads {
		t.Fatalf("batch = %v with %d vertices", batches[0].Kind, len(vs))
	}
	if vs[0].Position != [2]float32{1, 2} || vs[5].Position != [2]float32{4, 6} {
		t.Errorf("corners = %v, %v", vs[0].Position, vs[5].Position)
	}

	if NewBuilder().FillRect(NewRect(0, 0, 0, 5), render2d.White).Len() != 0 {
		t.Error("empty rect produced geometry")
	}
}

func TestStrokeRect(t *testing.T) {
	b := NewBuilder().StrokeRect(NewRect(0, 0, 10, 6), 1, render2d.White)
	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 edges", b.Len())
	}
	area := float32(0)
	for _, batch := range b.Build() {
		vs := batch.Vertices
		for i := 0; i < len(vs); i += 6 {
			w := vs[i+5].Position[0] - vs[i].Position[0]
			h := vs[i+5].Position[1] - vs[i].Position[1]
			area += w * h
		}
	}
	// Perimeter band of a 10x6 rect one pixel wide, without overlaps.
	if area != 10*6-8*4 {
		t.Errorf("stroked area = %v, want %v", area, 10*6-8*4)
	}
	if NewBuilder().StrokeRect(NewRect(0, 0, 10, 6), 0, render2d.White).Len() != 0 {
		t.Error("zero width stroke produced geometry")
	}
}

func TestDrawLineStyles(t *testing.T) {
	tests := []struct {
		style LineStyle
		to    Point
		verts int
	}{
		{LineSolid, Pt(30, 10), 6},
		{LineDotted, Pt(30, 10), 6 * 6}, // dots at 0, 6, ..., 30
		{LineDashed, Pt(30, 10), 3 * 6}, // dashes at 0, 12, 24
		{LineWavy, Pt(16, 10), 8 * 6},   // eight quarter-period segments
		{LineWavy, Pt(17, 10), 9 * 6},   // plus a tail to the end point
		{LineStyle(42), Pt(30, 10), 6},  // unknown styles draw solid
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			b := NewBuilder().DrawLine(Pt(0, 10), tt.to, 2, render2d.White, tt.style)
			batches := b.Build()
			if len(batches) != 1 {
				t.Fatalf("got %d batches", len(batches))
			}
			if got := len(batches[0].Vertices); got != tt.verts {
				t.Errorf("%v: %d vertices, want %d", tt.style, got, tt.verts)
			}
			if err := render2d.ValidateBatch(batches[0].Vertices); err != nil {
				t.Errorf("line batch rejected: %v", err)
			}
		})
	}
}

func TestDrawLineWavyStartsUp(t *testing.T) {
	vs := appendLine(nil, Pt(0, 10), Pt(16, 10), 2, render2d.White, LineWavy)
	// The end of the first segment is the first crest, above the line.
	crest := (vs[1].Position[1] + vs[5].Position[1]) / 2
	if !approx(crest, 7) {
		t.Errorf("first crest at y = %v, want 7", crest)
	}
}

func TestDrawLineDegenerate(t *testing.T) {
	b := NewBuilder().
		DrawLine(Pt(5, 5), Pt(5, 5), 1, render2d.White, LineSolid).
		DrawLine(Pt(5, 5), Pt(5.0001, 5), 1, render2d.White, LineSolid).
		DrawLine(Pt(0, 0), Pt(10, 0), 0, render2d.White, LineDashed)
	if b.Len() != 0 {
		t.Errorf("degenerate lines produced %d primitives", b.Len())
	}
}

func TestLineStyleString(t *testing.T) {
	if LineDotted.String() != "dotted" || LineStyle(9).String() != "LineStyle(9)" {
		t.Errorf("got %q, %q", LineDotted.String(), LineStyle(9).String())
	}
}

func TestClipTrimsAndRemapsUV(t *testing.T) {
	b := NewBuilder().
		PushClip(NewRect(0, 0, 5, 10)).
		FillRect(NewRect(0, 0, 10, 10), render2d.White)
	vs := b.Build()[0].Vertices
	if len(vs)%3 != 0 || len(vs) == 0 {
		t.Fatalf("clipped vertex count %d", len(vs))
	}
	onEdge := 0
	for _, v := range vs {
		if v.Position[0] > 5+1e-4 {
			t.Errorf("vertex %v outside the clip", v.Position)
		}
		if approx(v.Position[0], 5) {
			onEdge++
			if !approx(v.UV[0], 0.5) {
				t.Errorf("vertex on the clip edge has u = %v, want 0.5", v.UV[0])
			}
		}
	}
	if onEdge == 0 {
		t.Error("no vertex on the clip edge")
	}
	if b.Culled() != 0 {
		t.Errorf("Culled() = %d, want 0", b.Culled())
	}
}

func TestClipCulls(t *testing.T) {
	b := NewBuilder().
		PushClip(NewRect(0, 0, 10, 10)).
		FillRect(NewRect(20, 20, 5, 5), render2d.White).
		FillRect(NewRect(2, 2, 5, 5), render2d.White)
	if b.Culled() != 2 {
		t.Errorf("Culled() = %d, want 2", b.Culled())
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}

	// Disjoint nested clips leave nothing visible.
	b = NewBuilder().
		PushClip(NewRect(0, 0, 10, 10)).
		PushClip(NewRect(50, 50, 10, 10)).
		FillRect(NewRect(0, 0, 100, 100), render2d.White)
	if b.Len() != 0 || b.Culled() != 2 {
		t.Errorf("empty clip: Len %d, Culled %d", b.Len(), b.Culled())
	}
}

func TestClipStack(t *testing.T) {
	b := NewBuilder()
	if _, ok := b.Clip(); ok {
		t.Fatal("new builder has a clip")
	}
	b.PushClip(NewRect(0, 0, 10, 10)).PushClip(NewRect(5, 5, 10, 10))
	if c, _ := b.Clip(); c != NewRect(5, 5, 5, 5) {
		t.Errorf("nested clip = %v, want Rect(5,5 5x5)", c)
	}
	b.PopClip()
	if c, _ := b.Clip(); c != NewRect(0, 0, 10, 10) {
		t.Errorf("after pop = %v", c)
	}
	b.PopClip().PopClip()
	if _, ok := b.Clip(); ok {
		t.Error("clip left after popping everything")
	}
}

func TestBuildLayersAndMerge(t *testing.T) {
	a1, a2 := atlas.New(16), atlas.New(16)
	glyph := []atlas.PositionedGlyph{{Region: atlas.Region{X: 1, Y: 1, Width: 2, Height: 2}}}
	b := NewBuilder().
		Layer(1).FillRect(NewRect(0, 0, 1, 1), render2d.White).
		Layer(0).FillRect(NewRect(1, 0, 1, 1), render2d.White).
		FillRect(NewRect(2, 0, 1, 1), render2d.White).
		DrawGlyphs(a1, glyph, render2d.White).
		DrawGlyphs(a1, glyph, render2d.White).
		DrawGlyphs(a2, glyph, render2d.White)

	batches := b.Build()
	want := []struct {
		kind  render2d.CommandKind
		layer int
		verts int
		atlas render2d.AtlasSource
	}{
		{render2d.CommandQuads, 0, 12, nil},
		{render2d.CommandGlyphs, 0, 12, a1},
		{render2d.CommandGlyphs, 0, 6, a2},
		{render2d.CommandQuads, 1, 6, nil},
	}
	if len(batches) != len(want) {
		t.Fatalf("got %d batches, want %d", len(batches), len(want))
	}
	for i, w := range want {
		got := batches[i]
		if got.Kind != w.kind || got.Layer != w.layer || len(got.Vertices) != w.verts || got.Atlas != w.atlas {
			t.Errorf("batch %d = {%v layer %d, %d verts}, want {%v layer %d, %d verts}",
				i, got.Kind, got.Layer, len(got.Vertices), w.kind, w.layer, w.verts)
		}
	}
	// Stable within a layer: the rect added first comes first.
	if batches[0].Vertices[0].Position[0] != 1 {
		t.Errorf("layer 0 order changed: first x = %v", batches[0].Vertices[0].Position[0])
	}
}

func TestDrawGlyphsTint(t *testing.T) {
	a := atlas.New(16)
	glyphs := []atlas.PositionedGlyph{
		{Region: atlas.Region{X: 1, Y: 1, Width: 2, Height: 2}, Color: render2d.Black},
	}
	red := render2d.RGB(1, 0, 0)
	vs := NewBuilder().DrawGlyphs(a, glyphs, red).Build()[0].Vertices
	for _, v := range vs {
		if v.Color != red.Array() {
			t.Fatalf("vertex color = %v, want red", v.Color)
		}
	}
	if glyphs[0].Color != render2d.Black {
		t.Error("DrawGlyphs modified the caller's glyphs")
	}
	if NewBuilder().DrawGlyphs(nil, glyphs, red).Len() != 0 {
		t.Error("nil atlas produced geometry")
	}
}

func TestSubmit(t *testing.T) {
	vp, err := render2d.NewViewport(100, 100)
	if err != nil {
		t.Fatal(err)
	}
	a := atlas.New(16)
	glyph := []atlas.PositionedGlyph{{Region: atlas.Region{X: 1, Y: 1, Width: 2, Height: 2}}}
	b := NewBuilder().
		FillRect(NewRect(0, 0, 10, 10), render2d.White).
		DrawGlyphs(a, glyph, render2d.White).
		Layer(-1).FillRect(NewRect(0, 0, 100, 100), render2d.Black)

	list := render2d.NewCommandList(vp)
	if err := b.Submit(list); err != nil {
		t.Fatal(err)
	}
	cmds := list.Commands()
	if len(cmds) != 3 {
		t.Fatalf("recorded %d commands, want 3", len(cmds))
	}
	if cmds[0].Vertices[5].Position != [2]float32{100, 100} {
		t.Error("background layer is not drawn first")
	}
	if cmds[2].Kind != render2d.CommandGlyphs || cmds[2].Atlas != a {
		t.Errorf("last command = %v", cmds[2].Kind)
	}
}

func TestSubmitWrapsErrors(t *testing.T) {
	b := NewBuilder().FillRect(NewRect(0, 0, 1, 1), render2d.White)
	err := b.Submit(render2d.NewCommandList(render2d.Viewport{}))
	if !errors.Is(err, render2d.ErrResourceUnbound) {
		t.Fatalf("got %v, want ErrResourceUnbound", err)
	}
	if !strings.Contains(err.Error(), "scene: batch 0 (quads, layer 0)") {
		t.Errorf("error %q lacks batch context", err)
	}
}

func TestReset(t *testing.T) {
	b := NewBuilder().Layer(3).PushClip(NewRect(0, 0, 1, 1)).FillRect(NewRect(5, 5, 1, 1), render2d.White)
	b.Reset()
	if b.Len() != 0 || b.Culled() != 0 {
		t.Error("Reset kept primitives")
	}
	if _, ok := b.Clip(); ok {
		t.Error("Reset kept the clip")
	}
	if b.FillRect(NewRect(0, 0, 1, 1), render2d.White).Build()[0].Layer != 0 {
		t.Error("Reset kept the layer")
	}
}
