// Package shaders provides the embedded GLSL sources of the height-color shader.
package shaders

import _ "embed"

// HeightVertexShader outputs world-space position and normal.
//
//go:embed height.vert
var HeightVertexShader string

// HeightFragmentShader is the GPU version of shading.Shade.
//
//go:embed height.frag
var HeightFragmentShader string
