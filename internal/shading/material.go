package shading

import (
	"errors"
	"fmt"

	"github.com/Faultbox/matcha-viewer/internal/engine/uniform"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Uniform names, shared with height.frag.
const (
	UniformColorTop          = "uColorTop"
	UniformColorBottom       = "uColorBottom"
	UniformMinHeight         = "uMinHeight"
	UniformMaxHeight         = "uMaxHeight"
	UniformLightDirection    = "uLightDirection"
	UniformCameraPosition    = "uCameraPosition"
	UniformTopLightDirection = "uTopLightDirection"
)

// MaterialName is the name HeightMaterial reports to the renderer.
const MaterialName = "height-color"

// ErrDegenerateHeightRange is returned when min and max height are equal.
var ErrDegenerateHeightRange = errors.New("shading: min height equals max height")

// HeightMaterial binds the height-color shader to a mesh. Its uniform set
// carries the static parameters plus the per-frame camera position.
type HeightMaterial struct {
	Uniforms    *uniform.Set
	Transparent bool // Blending enabled; the shader always writes alpha 1
}

// NewHeightMaterial validates params and builds the uniform set.
func NewHeightMaterial(params Params) (*HeightMaterial, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	u := uniform.NewSet()
	u.SetColor(UniformColorTop, params.TopColor)
	u.SetColor(UniformColorBottom, params.BottomColor)
	u.SetFloat(UniformMinHeight, params.MinHeight)
	u.SetFloat(UniformMaxHeight, params.MaxHeight)
	u.SetVec3(UniformLightDirection, params.LightDirection)
	u.SetVec3(UniformCameraPosition, math.Vec3{})
	u.SetVec3(UniformTopLightDirection, params.TopLightDirection)

	return &HeightMaterial{Uniforms: u, Transparent: true}, nil
}

// MaterialName implements scenegraph.Material.
func (m *HeightMaterial) MaterialName() string {
	return MaterialName
}

// SetCameraPosition updates the only dynamic uniform.
func (m *HeightMaterial) SetCameraPosition(p math.Vec3) {
	m.Uniforms.SetVec3(UniformCameraPosition, p)
}

// CameraPosition returns the camera position last written into the uniforms.
func (m *HeightMaterial) CameraPosition() math.Vec3 {
	v, _ := m.Uniforms.Vec3(UniformCameraPosition)
	return v
}

// staticUniforms lists the uniforms Params reads, in field order.
var staticUniforms = [...]string{
	UniformColorTop,
	UniformColorBottom,
	UniformMinHeight,
	UniformMaxHeight,
	UniformLightDirection,
	UniformTopLightDirection,
}

// Params reads the static parameters back out of the uniform set.
func (m *HeightMaterial) Params() (Params, error) {
	u := m.Uniforms
	var (
		p  Params
		ok [len(staticUniforms)]bool
	)
	p.TopColor, ok[0] = u.Color(UniformColorTop)
	p.BottomColor, ok[1] = u.Color(UniformColorBottom)
	p.MinHeight, ok[2] = u.Float(UniformMinHeight)
	p.MaxHeight, ok[3] = u.Float(UniformMaxHeight)
	p.LightDirection, ok[4] = u.Vec3(UniformLightDirection)
	p.TopLightDirection, ok[5] = u.Vec3(UniformTopLightDirection)

	for i, found := range ok {
		if !found {
			return Params{}, fmt.Errorf("shading: uniform %s missing or mistyped", staticUniforms[i])
		}
	}
	return p, nil
}

// Shade evaluates the shader on the CPU with the current uniforms.
func (m *HeightMaterial) Shade(position, normal math.Vec3) (math.Color, error) {
	p, err := m.Params()
	if err != nil {
		return math.Color{}, err
	}
	return Shade(p, position, normal, m.CameraPosition()), nil
}
