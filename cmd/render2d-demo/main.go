// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command render2d-demo renders an editor-like frame of rectangles, styled
// lines and text and writes it to a PNG file.
//
// It opens a headless Vulkan device when one is available and falls back to
// the software renderer otherwise, or when -cpu is given.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/render2d"
	"github.com/gogpu/render2d/atlas"
	"github.com/gogpu/render2d/scene"
	"github.com/gogpu/render2d/software"
)

var background = render2d.Hex("#1e1e2e")

func main() {
	var (
		width      = flag.Int("width", 800, "image width")
		height     = flag.Int("height", 240, "image height")
		output     = flag.String("out", "render2d.png", "output file")
		text       = flag.String("text", "The quick brown fox jumps over the lazy dog", "text to draw")
		debugAtlas = flag.Bool("debug-atlas", false, "draw the glyph atlas over the frame")
		cpu        = flag.Bool("cpu", false, "render with the software renderer")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	render2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	atl := atlas.New(512)
	glyphs, err := bakeText(atl, *text, 20)
	if err != nil {
		log.Fatalf("bake text: %v", err)
	}
	b := buildScene(float32(*width), float32(*height), atl, glyphs)

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	backend := "software"
	if !*cpu {
		if err := renderGPU(img, b, atl, *debugAtlas); err == nil {
			backend = "vulkan"
		} else {
			log.Printf("gpu unavailable, using software renderer: %v", err)
		}
	}
	if backend == "software" {
		stats, err := renderCPU(img, b, atl, *debugAtlas)
		if err != nil {
			log.Fatalf("software render: %v", err)
		}
		log.Printf("software frame: %d draw calls, %d triangles, %d fragments",
			stats.DrawCalls, stats.Triangles, stats.Fragments)
	}

	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %s)\n", *output, *width, *height, backend)
}

// buildScene lays out a tab bar, a few lines of text with decorations and
// a clipped panel.
func buildScene(w, h float32, atl *atlas.Atlas, glyphs []atlas.PositionedGlyph) *scene.Builder {
	b := scene.NewBuilder()

	b.FillRect(scene.NewRect(0, 0, w, 32), render2d.Hex("#181825"))
	b.FillRect(scene.NewRect(8, 4, 140, 28), background)
	b.DrawLine(scene.Pt(8, 31), scene.Pt(148, 31), 2, render2d.Hex("#89b4fa"), scene.LineSolid)

	b.FillRect(scene.NewRect(0, 32, 48, h-32), render2d.Hex("#181825"))
	for i := range 5 {
		y := 56 + float32(i)*36
		b.DrawLine(scene.Pt(56, y+8), scene.Pt(w-16, y+8), 1, render2d.Hex("#313244"), scene.LineDotted)
	}

	b.Layer(1)
	b.PushClip(scene.NewRect(56, 40, w-72, h-48))
	b.DrawGlyphs(atl, offset(glyphs, 60, 64), render2d.Hex("#cdd6f4"))
	b.DrawLine(scene.Pt(60, 70), scene.Pt(280, 70), 1, render2d.Hex("#f38ba8"), scene.LineWavy)
	b.DrawGlyphs(atl, offset(glyphs, 60, 120), render2d.Hex("#a6e3a1").WithAlpha(0.8))
	b.DrawLine(scene.Pt(60, 126), scene.Pt(w-80, 126), 1, render2d.Hex("#f9e2af"), scene.LineDashed)
	b.PopClip()

	b.Layer(2)
	panel := scene.NewRect(w-220, h-90, 200, 70)
	b.FillRect(panel, render2d.Hex("#11111b").WithAlpha(0.85))
	b.StrokeRect(panel, 1, render2d.Hex("#585b70"))
	b.PushClip(panel)
	b.DrawGlyphs(atl, offset(glyphs, panel.X+8, panel.Y+30), render2d.Hex("#fab387"))
	b.PopClip()
	return b
}

func offset(glyphs []atlas.PositionedGlyph, dx, dy float32) []atlas.PositionedGlyph {
	out := make([]atlas.PositionedGlyph, len(glyphs))
	for i, g := range glyphs {
		g.X += dx
		g.Y += dy
		out[i] = g
	}
	return out
}

func renderCPU(img *image.RGBA, b *scene.Builder, atl *atlas.Atlas, debug bool) (software.Stats, error) {
	size := img.Bounds().Size()
	vp, err := render2d.NewViewport(float32(size.X), float32(size.Y))
	if err != nil {
		return software.Stats{}, err
	}
	list := render2d.NewCommandList(vp, render2d.WithDebugPasses(debug))
	if err := list.BindAtlas(atl); err != nil {
		return software.Stats{}, err
	}
	if err := b.Submit(list); err != nil {
		return software.Stats{}, err
	}
	if debug {
		if err := list.DebugBlitAtlas(); err != nil {
			return software.Stats{}, err
		}
	}
	sw := software.Renderer{Clear: background}
	return sw.Render(img, list)
}

func savePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
