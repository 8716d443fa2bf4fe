// Package shadow renders the sun's depth map and feeds it to lit materials.
package shadow

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/internal/engine/shader"
)

// DefaultResolution is used when the light asks for a non-positive map size.
const DefaultResolution = 2048

// Map is a depth-only framebuffer for one directional light, sampled with
// hardware comparison (sampler2DShadow) by the 3x3 PCF in the lit shader.
type Map struct {
	fbo      uint32
	depth    uint32
	size     int32
	bias     float32
	proj     Projection
	viewport [4]int32
}

// NewMap allocates a shadow map sized and biased by the light's shadow settings.
func NewMap(s lighting.Shadow) (*Map, error) {
	size := s.MapSize
	if size <= 0 {
		size = DefaultResolution
	}
	sm := &Map{size: size, bias: s.Bias}

	gl.GenFramebuffers(1, &sm.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)

	gl.GenTextures(1, &sm.depth)
	gl.BindTexture(gl.TEXTURE_2D, sm.depth)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	// LINEAR with compare mode gives 2x2 hardware filtering per PCF tap
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Outside the shadow camera everything is lit
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.depth, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		sm.Destroy()
		return nil, fmt.Errorf("shadow framebuffer incomplete: status 0x%x", status)
	}
	return sm, nil
}

// Fits reports whether the map can serve the given settings without
// reallocating. A bias change is picked up in place.
func (sm *Map) Fits(s lighting.Shadow) bool {
	size := s.MapSize
	if size <= 0 {
		size = DefaultResolution
	}
	if !sm.IsValid() || sm.size != size {
		return false
	}
	sm.bias = s.Bias
	return true
}

// Resolution returns the width and height of the depth texture.
func (sm *Map) Resolution() int32 { return sm.size }

// Follow points the map at sun, rebuilding the light matrix only if the
// light changed since the last call.
func (sm *Map) Follow(sun lighting.DirectionalLight) {
	sm.proj.Update(sun)
}

// BeginPass binds the depth framebuffer and prepares depth for drawing
// casters with the light matrix. Front faces are culled against acne.
func (sm *Map) BeginPass(depth *shader.Program) {
	gl.GetIntegerv(gl.VIEWPORT, &sm.viewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)
	gl.Viewport(0, 0, sm.size, sm.size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)

	depth.Use()
	depth.SetMat4("uLightViewProj", sm.proj.Matrix())
}

// EndPass restores the default framebuffer, viewport and back-face culling.
func (sm *Map) EndPass() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(sm.viewport[0], sm.viewport[1], sm.viewport[2], sm.viewport[3])
	gl.CullFace(gl.BACK)
}

// Apply binds the depth texture to unit and uploads the light matrix, bias
// and sampler to a program that receives shadows.
func (sm *Map) Apply(p *shader.Program, unit int32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, sm.depth)

	p.SetMat4("uLightViewProj", sm.proj.Matrix())
	p.SetFloat("uShadowBias", sm.bias)
	p.SetInt("uShadowMap", unit)
}

// Destroy releases the framebuffer and depth texture.
func (sm *Map) Destroy() {
	if sm.fbo != 0 {
		gl.DeleteFramebuffers(1, &sm.fbo)
		sm.fbo = 0
	}
	if sm.depth != 0 {
		gl.DeleteTextures(1, &sm.depth)
		sm.depth = 0
	}
}

// IsValid reports whether the map still owns its GPU objects.
func (sm *Map) IsValid() bool {
	return sm != nil && sm.fbo != 0 && sm.depth != 0
}
