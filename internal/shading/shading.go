// Package shading implements the height-gradient color shader applied to the
// target mesh. Shade is the reference implementation of the GLSL program in
// the shaders package; both must compute the same color.
package shading

import (
	gomath "math"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Hash constants shared with height.frag.
var hashWeights = math.Vec3{X: 12.9898, Y: 78.233, Z: 45.164}

const (
	hashScale = 43758.5453

	bumpFrequency = 10.0
	bumpAmplitude = 0.2
	bumpMix       = 0.5

	heightGain = 1.1
	heightBias = 0.4

	viewWeight = 0.7
	topWeight  = 0.5

	// LightingMin and LightingMax bound the combined lighting factor.
	LightingMin = 0.4
	LightingMax = 1.2
)

// Params are the static inputs of the shader.
type Params struct {
	TopColor          math.Color
	BottomColor       math.Color
	MinHeight         float32
	MaxHeight         float32
	LightDirection    math.Vec3 // Normalized; uploaded but not read by the color math
	TopLightDirection math.Vec3
}

// DefaultParams returns the matcha look.
func DefaultParams() Params {
	return Params{
		TopColor:          math.ColorFromHex(0xf0f0e9),
		BottomColor:       math.ColorFromHex(0x88b04b),
		MinHeight:         0.0,
		MaxHeight:         1.5,
		LightDirection:    math.Vec3{X: 2, Y: 4, Z: 2}.Normalize(),
		TopLightDirection: math.Vec3{X: 0, Y: 1, Z: 0},
	}
}

// Validate rejects an empty height range, which would divide by zero.
func (p Params) Validate() error {
	if p.MinHeight == p.MaxHeight {
		return ErrDegenerateHeightRange
	}
	return nil
}

// NormalizedHeight maps y from [min, max] to [0, 1] (unclamped).
func NormalizedHeight(y, min, max float32) float32 {
	return (y - min) / (max - min)
}

// RemapHeight biases the gradient downward: clamp(h*1.1 - 0.4, 0, 1).
func RemapHeight(h float32) float32 {
	return math.Clamp(h*heightGain-heightBias, 0, 1)
}

// Hash is a stateless pseudo-random value in [0, 1) derived from p.
func Hash(p math.Vec3) float32 {
	d := p.Dot(hashWeights)
	s := float32(gomath.Sin(float64(d)))
	return math.Fract(s * hashScale)
}

// Bump is the surface speckle term: Hash(p*10) * 0.2, in [0, 0.2).
func Bump(p math.Vec3) float32 {
	return Hash(p.Scale(bumpFrequency)) * bumpAmplitude
}

// MixFactor is the gradient position for world position p. It is deliberately
// not clamped: values above 1 extrapolate past the top color.
func MixFactor(params Params, p math.Vec3) float32 {
	h := RemapHeight(NormalizedHeight(p.Y, params.MinHeight, params.MaxHeight))
	return h + Bump(p)*bumpMix
}

// BaseColor is the unlit gradient color at p.
func BaseColor(params Params, p math.Vec3) math.Color {
	t := MixFactor(params, p)
	return math.ColorFromVec3(params.BottomColor.Vec3().Lerp(params.TopColor.Vec3(), t))
}

// Lighting combines a view-facing term and a top-light term, clamped to
// [LightingMin, LightingMax].
func Lighting(normal, position, camera, topLight math.Vec3) float32 {
	n := normal.Normalize()
	view := n.Dot(camera.Sub(position).Normalize())
	top := n.Dot(topLight.Normalize())
	return math.Clamp(viewWeight*view+topWeight*top, LightingMin, LightingMax)
}

// Shade returns the opaque color for world position p with world normal n seen
// from camera position c. Alpha is always 1.
func Shade(params Params, p, n, c math.Vec3) math.Color {
	return BaseColor(params, p).Mul(Lighting(n, p, c, params.TopLightDirection))
}
