// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/quad.wgsl
var quadShaderSource string

//go:embed shaders/glyph.wgsl
var glyphShaderSource string

// Shader entry points.
const (
	entryVertex          = "vs_main"
	entryDebugFullscreen = "vs_debug_fullscreen"
	entryFragment        = "fs_main"
	debugFullscreenVerts = 6
)

// QuadShaderSource returns the WGSL source of the quad pipeline.
func QuadShaderSource() string { return quadShaderSource }

// GlyphShaderSource returns the WGSL source shared by both glyph modes.
func GlyphShaderSource() string { return glyphShaderSource }

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("spir-v length %d is not word aligned", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// createShaderModule builds a shader module from WGSL, or from naga-compiled
// SPIR-V when spirv is set.
func createShaderModule(device hal.Device, label, wgsl string, spirv bool) (hal.ShaderModule, error) {
	if wgsl == "" {
		return nil, fmt.Errorf("%s shader source is empty", label)
	}
	src := hal.ShaderSource{WGSL: wgsl}
	if spirv {
		words, err := compileSPIRV(wgsl)
		if err != nil {
			return nil, fmt.Errorf("compile %s shader: %w", label, err)
		}
		src = hal.ShaderSource{SPIRV: words}
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", label, err)
	}
	slogger().Debug("shader module created", "label", label, "spirv", spirv)
	return module, nil
}
