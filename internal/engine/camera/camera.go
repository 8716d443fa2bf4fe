// Package camera provides the perspective camera and orbit controls.
package camera

import (
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Perspective is a perspective camera looking from Position towards LookAt.
// The projection matrix is cached and only refreshed by UpdateProjection.
type Perspective struct {
	FOV    float32 // Vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32

	Position math.Vec3
	LookAt   math.Vec3
	Up       math.Vec3

	projection math.Mat4
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		LookAt: math.Vec3{X: 0, Y: 0, Z: -1},
		Up:     math.Vec3{X: 0, Y: 1, Z: 0},
	}
	c.UpdateProjection()
	return c
}

// SetAspect sets the aspect ratio from a viewport size. Call UpdateProjection after.
func (c *Perspective) SetAspect(width, height int) {
	if height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// UpdateProjection recomputes the cached projection matrix.
func (c *Perspective) UpdateProjection() {
	c.projection = math.Perspective(math.Radians(c.FOV), c.Aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the projection computed by the last UpdateProjection.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return c.projection
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.LookAt, c.Up)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.projection.Mul(c.ViewMatrix())
}
