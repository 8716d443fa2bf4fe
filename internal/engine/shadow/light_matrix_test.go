package shadow

import (
	"testing"

	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func testLight() lighting.DirectionalLight {
	return lighting.DirectionalLight{
		Color:      math.Color{R: 1, G: 1, B: 1},
		Intensity:  1,
		Position:   math.Vec3{X: 2, Y: 4, Z: 2},
		Target:     math.Vec3{X: 0, Y: 0.5, Z: 0},
		CastShadow: true,
		Shadow: lighting.Shadow{
			MapSize: 2048,
			Bias:    -0.0005,
			Camera: lighting.ShadowCamera{
				Left: -5, Right: 5, Bottom: -5, Top: 5, Near: 1, Far: 20,
			},
		},
	}
}

func TestLightMatrixTargetAtCenter(t *testing.T) {
	light := testLight()
	m := LightMatrix(light)

	p := m.TransformPoint(light.Target.Array())
	if abs(p[0]) > 1e-4 || abs(p[1]) > 1e-4 {
		t.Errorf("target should project to the shadow map center, got %v", p)
	}
	if p[2] <= -1 || p[2] >= 1 {
		t.Errorf("target depth %v outside the light frustum", p[2])
	}
}

func TestLightMatrixDepthOrdering(t *testing.T) {
	light := testLight()
	m := LightMatrix(light)

	dir := light.Direction()
	nearer := m.TransformPoint(light.Target.Add(dir).Array())
	farther := m.TransformPoint(light.Target.Sub(dir).Array())
	if nearer[2] >= farther[2] {
		t.Errorf("point closer to the light must have smaller depth: %v >= %v", nearer[2], farther[2])
	}
}

func TestLightViewVerticalLight(t *testing.T) {
	light := testLight()
	light.Position = math.Vec3{X: 0, Y: 10, Z: 0}
	light.Target = math.Vec3{}

	view := LightView(light)
	for i, v := range view {
		if v != v {
			t.Fatalf("view[%d] is NaN for a vertical light", i)
		}
	}
}

func TestProjectionRebuildsOnlyOnChange(t *testing.T) {
	var p Projection
	light := testLight()

	m, rebuilt := p.Update(light)
	if !rebuilt {
		t.Error("first update should build the matrix")
	}
	if m != LightMatrix(light) || p.Matrix() != m {
		t.Error("cached matrix differs from LightMatrix")
	}

	if _, rebuilt := p.Update(light); rebuilt {
		t.Error("unchanged light should reuse the cached matrix")
	}

	light.Position = math.Vec3{X: -2, Y: 4, Z: 2}
	m2, rebuilt := p.Update(light)
	if !rebuilt {
		t.Error("moved light should rebuild the matrix")
	}
	if m2 == m || m2 != LightMatrix(light) {
		t.Error("rebuilt matrix should follow the moved light")
	}
}
