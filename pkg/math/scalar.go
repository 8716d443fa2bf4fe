package math

import "math"

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Fract returns the fractional part of x, x - floor(x), matching GLSL fract.
func Fract(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

// Mix linearly interpolates between a and b by t without clamping (GLSL mix).
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}

// Sin is a float32 wrapper around math.Sin.
func Sin(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

// Cos is a float32 wrapper around math.Cos.
func Cos(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

// Atan2 is a float32 wrapper around math.Atan2.
func Atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}

// Acos is a float32 wrapper around math.Acos with the argument clamped to [-1, 1].
func Acos(x float32) float32 {
	return float32(math.Acos(float64(Clamp(x, -1, 1))))
}
