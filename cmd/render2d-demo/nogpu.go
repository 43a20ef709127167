// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package main

import (
	"errors"
	"image"

	"github.com/gogpu/render2d/atlas"
	"github.com/gogpu/render2d/scene"
)

func renderGPU(*image.RGBA, *scene.Builder, *atlas.Atlas, bool) error {
	return errors.New("built with the nogpu tag")
}
