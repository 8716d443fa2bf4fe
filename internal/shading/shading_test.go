package shading

import (
	"errors"
	"testing"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// samplePositions is a deterministic spread of world positions around the model.
func samplePositions() []math.Vec3 {
	var out []math.Vec3
	for x := float32(-2); x <= 2; x += 0.37 {
		for y := float32(-0.5); y <= 2.5; y += 0.29 {
			for z := float32(-2); z <= 2; z += 0.53 {
				out = append(out, math.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func TestHeightAtMinimumIsZero(t *testing.T) {
	p := DefaultParams()
	for _, pos := range samplePositions() {
		pos.Y = p.MinHeight
		h := NormalizedHeight(pos.Y, p.MinHeight, p.MaxHeight)
		if h != 0 {
			t.Fatalf("%v: normalized height at min = %v, want 0", pos, h)
		}
		if r := RemapHeight(h); r != 0 {
			t.Fatalf("%v: remapped height at min = %v, want 0", pos, r)
		}
	}
}

func TestRemapHeight(t *testing.T) {
	tests := []struct {
		h, want float32
	}{
		{0, 0},
		{0.3, 0},    // below the bias: bottom band
		{0.5, 0.15}, // 0.55 - 0.4
		{1, 0.7},    // top of range never reaches full top color
		{1.3, 1},    // clamped
		{-2, 0},
	}

	for _, tt := range tests {
		if got := RemapHeight(tt.h); abs(got-tt.want) > 1e-6 {
			t.Errorf("RemapHeight(%v) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func TestBumpDeterministic(t *testing.T) {
	for _, p := range samplePositions() {
		a := Bump(p)
		b := Bump(p)
		if a != b {
			t.Fatalf("Bump(%v) not deterministic: %v vs %v", p, a, b)
		}
		if a < 0 || a >= bumpAmplitude {
			t.Fatalf("Bump(%v) = %v, want in [0, %v)", p, a, bumpAmplitude)
		}
	}
}

func TestHashVaries(t *testing.T) {
	seen := make(map[float32]bool)
	for _, p := range samplePositions()[:50] {
		seen[Hash(p)] = true
	}
	if len(seen) < 40 {
		t.Errorf("Hash produced only %d distinct values for 50 positions", len(seen))
	}
}

func TestLightingClamped(t *testing.T) {
	dirs := []math.Vec3{
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: -1, Y: -1, Z: 0.5},
		{X: 0.3, Y: 0.9, Z: -0.2},
		{X: 0, Y: 0, Z: 0}, // degenerate normal
	}
	cameras := []math.Vec3{
		{X: -7, Y: 1, Z: 7},
		{X: 0, Y: 10, Z: 0},
		{X: 0, Y: -10, Z: 0},
		{X: 0.1, Y: 0.1, Z: 0.1},
	}

	for _, n := range dirs {
		for _, c := range cameras {
			for _, top := range dirs {
				for _, p := range samplePositions()[:20] {
					l := Lighting(n, p, c, top)
					if l < LightingMin || l > LightingMax {
						t.Fatalf("Lighting(n=%v, p=%v, c=%v, top=%v) = %v outside [%v, %v]",
							n, p, c, top, l, LightingMin, LightingMax)
					}
				}
			}
		}
	}
}

func TestLightingExtremes(t *testing.T) {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	origin := math.Vec3{}
	above := math.Vec3{X: 0, Y: 10, Z: 0}

	// Facing both camera and top light: 0.7 + 0.5 = 1.2
	if got := Lighting(up, origin, above, up); abs(got-1.2) > 1e-6 {
		t.Errorf("facing lights = %v, want 1.2", got)
	}
	// Facing away from both: floor
	down := math.Vec3{X: 0, Y: -1, Z: 0}
	if got := Lighting(down, origin, above, up); got != LightingMin {
		t.Errorf("facing away = %v, want %v", got, LightingMin)
	}
	// Sideways to the camera, up to the top light: 0.5
	side := math.Vec3{X: 10, Y: 0, Z: 0}
	if got := Lighting(up, origin, side, up); abs(got-0.5) > 1e-6 {
		t.Errorf("side view = %v, want 0.5", got)
	}
}

func TestMixFactorNotClamped(t *testing.T) {
	p := DefaultParams()

	// Well above max height the remapped height is 1, so any bump pushes past 1.
	var pos math.Vec3
	found := false
	for _, q := range samplePositions() {
		q.Y += 10
		if Bump(q) > 0.01 {
			pos, found = q, true
			break
		}
	}
	if !found {
		t.Fatal("no sample with a visible bump")
	}

	f := MixFactor(p, pos)
	if f <= 1 {
		t.Fatalf("MixFactor = %v, want > 1 above max height", f)
	}

	got := BaseColor(p, pos)
	want := math.ColorFromVec3(p.BottomColor.Vec3().Lerp(p.TopColor.Vec3(), f))
	if got != want {
		t.Errorf("BaseColor = %v, want extrapolated %v", got, want)
	}
	// Extrapolation moves past the top color away from the bottom color.
	if p.TopColor.B > p.BottomColor.B && got.B <= p.TopColor.B {
		t.Errorf("blue channel %v should overshoot top color %v", got.B, p.TopColor.B)
	}
}

func TestBottomBandUsesBottomColor(t *testing.T) {
	p := DefaultParams()
	pos := math.Vec3{X: 0.5, Y: 0.2, Z: -0.5} // normalized 0.13 -> remapped 0

	f := MixFactor(p, pos)
	if want := Bump(pos) * bumpMix; abs(f-want) > 1e-6 {
		t.Errorf("MixFactor in bottom band = %v, want bump only %v", f, want)
	}
}

func TestShadeIsBaseTimesLighting(t *testing.T) {
	p := DefaultParams()
	cam := math.Vec3{X: -7, Y: 1, Z: 7}
	n := math.Vec3{X: -0.5, Y: 0.7, Z: 0.5}

	for _, pos := range samplePositions()[:30] {
		l := Lighting(n, pos, cam, p.TopLightDirection)
		want := BaseColor(p, pos).Mul(l)
		if got := Shade(p, pos, n, cam); got != want {
			t.Errorf("Shade(%v) = %v, want %v", pos, got, want)
		}
	}
}

func TestValidateDegenerate(t *testing.T) {
	p := DefaultParams()
	p.MaxHeight = p.MinHeight
	if err := p.Validate(); !errors.Is(err, ErrDegenerateHeightRange) {
		t.Errorf("Validate() = %v, want ErrDegenerateHeightRange", err)
	}
}
