// Package lighting describes the lights of a scene.
package lighting

import "github.com/Faultbox/matcha-viewer/pkg/math"

// AmbientLight adds uniform light to every surface.
type AmbientLight struct {
	Color     math.Color
	Intensity float32
}

// Radiance returns color * intensity.
func (a AmbientLight) Radiance() math.Color {
	return a.Color.Mul(a.Intensity)
}

// ShadowCamera is the orthographic frustum of a directional shadow map.
type ShadowCamera struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

// Shadow holds directional shadow map settings.
type Shadow struct {
	MapSize int32   // Width and height in texels
	Bias    float32 // Added to the light-space depth before comparison
	Camera  ShadowCamera
}

// DirectionalLight shines from Position towards Target with parallel rays.
type DirectionalLight struct {
	Color      math.Color
	Intensity  float32
	Position   math.Vec3
	Target     math.Vec3
	CastShadow bool
	Shadow     Shadow
}

// Direction returns the normalized vector pointing from the target towards the light.
func (d DirectionalLight) Direction() math.Vec3 {
	return d.Position.Sub(d.Target).Normalize()
}

// Radiance returns color * intensity.
func (d DirectionalLight) Radiance() math.Color {
	return d.Color.Mul(d.Intensity)
}
