// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// StandardVertexShader is the vertex shader for lit, shadow-receiving meshes.
//
//go:embed standard.vert
var StandardVertexShader string

// StandardFragmentShader applies base color, ambient and directional light with PCF shadows.
//
//go:embed standard.frag
var StandardFragmentShader string

// DepthVertexShader transforms shadow casters into light space.
//
//go:embed depth.vert
var DepthVertexShader string

// DepthFragmentShader writes nothing; depth comes from rasterization.
//
//go:embed depth.frag
var DepthFragmentShader string
