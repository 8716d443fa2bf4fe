package shadow

import (
	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// LightView returns the view matrix looking from the light's position to its target.
func LightView(light lighting.DirectionalLight) math.Mat4 {
	// Choose an up vector that is not parallel with the light direction
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	if abs32(light.Direction().Y) > 0.99 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}
	return math.LookAt(light.Position, light.Target, up)
}

// LightProjection returns the orthographic projection of the light's shadow camera.
func LightProjection(cam lighting.ShadowCamera) math.Mat4 {
	return math.Ortho(cam.Left, cam.Right, cam.Bottom, cam.Top, cam.Near, cam.Far)
}

// LightMatrix computes the light-space view-projection for a directional light.
func LightMatrix(light lighting.DirectionalLight) math.Mat4 {
	return LightProjection(light.Shadow.Camera).Mul(LightView(light))
}

// Projection caches the light-space matrix of the last light it saw.
type Projection struct {
	light  lighting.DirectionalLight
	matrix math.Mat4
	valid  bool
}

// Update returns the matrix for light and whether it had to be rebuilt.
func (p *Projection) Update(light lighting.DirectionalLight) (math.Mat4, bool) {
	if p.valid && p.light == light {
		return p.matrix, false
	}
	p.light = light
	p.matrix = LightMatrix(light)
	p.valid = true
	return p.matrix, true
}

// Matrix returns the cached matrix, or the zero matrix before any Update.
func (p *Projection) Matrix() math.Mat4 {
	return p.matrix
}

// abs32 returns the absolute value of a float32.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
