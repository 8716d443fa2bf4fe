package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Vec3{}.Normalize() = %v, want zero", got)
	}
}

func TestVec3LerpExtrapolates(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{1, 2, 4}
	got := a.Lerp(b, 1.5)
	want := Vec3{1.5, 3, 6}
	if got != want {
		t.Errorf("Lerp(1.5) = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float32
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0.3, 0.4, 1.2, 0.4},
		{1.5, 0.4, 1.2, 1.2},
	}

	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%f, %f, %f) = %f, want %f", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestFract(t *testing.T) {
	tests := []struct {
		v, want float32
	}{
		{1.25, 0.25},
		{-0.25, 0.75},
		{3, 0},
	}

	for _, tt := range tests {
		if got := Fract(tt.v); abs(got-tt.want) > 1e-6 {
			t.Errorf("Fract(%f) = %f, want %f", tt.v, got, tt.want)
		}
	}
}

func TestColorFromHex(t *testing.T) {
	c := ColorFromHex(0x88b04b)
	if abs(c.R-0x88/255.0) > 1e-6 || abs(c.G-0xb0/255.0) > 1e-6 || abs(c.B-0x4b/255.0) > 1e-6 {
		t.Errorf("ColorFromHex(0x88b04b) = %v", c)
	}
	if got := c.Hex(); got != 0x88b04b {
		t.Errorf("Hex() = %06x, want 88b04b", got)
	}
}
