// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu implements render2d's pipelines on the gogpu/wgpu HAL.
//
// It is an internal package: render2d validates batches, encodes vertices
// and snapshots the viewport, then hands a FrameInput to a Session.
//
// # Pipelines
//
//   - QuadPipeline: pixel-space vertices, interpolated vertex color
//   - GlyphPipeline: one shader module, two vertex stages selected by Mode;
//     ModeProduction transforms pixel-space glyph vertices, and
//     ModeDebugFullscreen draws a built-in six-vertex table covering the
//     target. Both share the coverage-tint fragment stage.
//
// # Frame Model
//
// Session.Render encodes one render pass with a single color attachment,
// records draws in the order given, submits, and polls the queue until the
// submission completes. The viewport uniform and vertex buffer are
// persistent and rewritten only between frames.
//
// # Shaders
//
// WGSL sources are embedded from shaders/. With Config.SPIRV they are
// compiled to SPIR-V by naga before module creation.
package gpu
