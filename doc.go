// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render2d draws vertex-colored quads and atlas-sampled glyphs
// onto a GPU surface.
//
// # Overview
//
// render2d is the primitive layer beneath a 2D UI: layout and text shaping
// happen elsewhere and produce flat, already-positioned vertex batches. The
// renderer turns those batches into blended pixels on a single color
// attachment using two pipelines built on gogpu/wgpu:
//
//   - the quad pipeline writes the interpolated vertex color
//   - the glyph pipeline tints a single-channel coverage atlas by the
//     vertex color, producing (r, g, b, a*coverage)
//
// # Quick Start
//
//	r, err := render2d.NewWithDevice(device, queue,
//	    render2d.WithViewport(800, 600),
//	    render2d.WithClearColor(render2d.Hex("#1e1e1e")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	frame, err := r.BeginFrame(render2d.Target{View: surfaceView, Width: 800, Height: 600})
//	if err != nil {
//	    return err
//	}
//	_ = frame.SubmitQuads(render2d.Rect(10, 10, 200, 40, render2d.RGB(0.2, 0.4, 0.9)))
//	_ = frame.SubmitGlyphs(glyphVertices, glyphAtlas)
//	stats, err := frame.End()
//
// # Coordinate System
//
// Positions are in pixels with the origin at the top-left and Y growing
// down. The vertex stage maps them to normalized device coordinates:
//
//	x_ndc = (px / width) * 2 - 1
//	y_ndc = 1 - (py / height) * 2
//
// # Ordering
//
// There is no depth buffer. Commands run in submission order, so callers
// submit back-to-front for correct alpha compositing.
//
// # Debugging
//
// A renderer created with [WithDebugPasses] can draw the whole glyph atlas
// over the surface with [Frame.DebugBlitAtlas]. The pass uses hard-coded
// device-space vertices and ignores the viewport.
//
// # Software Reference
//
// The software sub-package renders a [CommandList] on the CPU with the same
// fragment math. It backs tests and hosts without a GPU adapter.
package render2d
