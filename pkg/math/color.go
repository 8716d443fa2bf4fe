package math

// Color is a linear RGB color with float32 channels.
type Color struct {
	R, G, B float32
}

// ColorFromHex converts a 0xRRGGBB value to a Color with channels in [0,1].
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

// Hex packs the color back into 0xRRGGBB, clamping each channel.
func (c Color) Hex() uint32 {
	to8 := func(v float32) uint32 {
		return uint32(Clamp(v, 0, 1)*255 + 0.5)
	}
	return to8(c.R)<<16 | to8(c.G)<<8 | to8(c.B)
}

// Vec3 reinterprets the color as a vector (r, g, b).
func (c Color) Vec3() Vec3 {
	return Vec3{c.R, c.G, c.B}
}

// ColorFromVec3 reinterprets a vector as a color.
func ColorFromVec3(v Vec3) Color {
	return Color{v.X, v.Y, v.Z}
}

// Mul scales each channel by s.
func (c Color) Mul(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Array returns the color as a [3]float32 for uniform uploads.
func (c Color) Array() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}
