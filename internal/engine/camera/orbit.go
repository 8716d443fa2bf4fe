package camera

import (
	gomath "math"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// settleEpsilon is the remaining damped motion below which controls stop moving the camera.
const settleEpsilon = 1e-6

// polarEpsilon keeps the camera off the poles where LookAt degenerates.
const polarEpsilon = 1e-4

// OrbitControls orbits a Perspective camera around Target from pointer input.
// Input only accumulates deltas; Update applies them once per frame.
type OrbitControls struct {
	camera *Perspective

	// Target is the point the camera orbits and looks at.
	Target math.Vec3

	// Damping
	EnableDamping bool
	DampingFactor float32

	// Sensitivity
	RotateSpeed float32
	ZoomSpeed   float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPolar    float32
	MaxPolar    float32

	viewportHeight float32

	// Pending motion
	deltaTheta float32 // Azimuth around +Y (radians)
	deltaPhi   float32 // Polar angle from +Y (radians)
	scale      float32
}

// NewOrbitControls attaches orbit controls to cam with default settings.
func NewOrbitControls(cam *Perspective, viewportHeight int) *OrbitControls {
	o := &OrbitControls{
		camera:        cam,
		DampingFactor: 0.05,
		RotateSpeed:   1.0,
		ZoomSpeed:     1.0,
		MinDistance:   0,
		MaxDistance:   float32(gomath.Inf(1)),
		MinPolar:      0,
		MaxPolar:      gomath.Pi,
		scale:         1,
	}
	o.SetViewportHeight(viewportHeight)
	cam.LookAt = o.Target
	return o
}

// SetViewportHeight sets the pixel height used to convert drags to angles.
func (o *OrbitControls) SetViewportHeight(h int) {
	if h > 0 {
		o.viewportHeight = float32(h)
	}
}

// HandleDrag queues a rotation from a pointer drag of (dx, dy) pixels.
// A full viewport height of drag turns the camera by one full revolution.
func (o *OrbitControls) HandleDrag(dx, dy float32) {
	if o.viewportHeight <= 0 {
		return
	}
	turn := 2 * gomath.Pi / o.viewportHeight * o.RotateSpeed
	o.deltaTheta -= dx * turn
	o.deltaPhi -= dy * turn
}

// HandleZoom queues a dolly from a wheel delta. Positive delta moves closer.
func (o *OrbitControls) HandleZoom(delta float32) {
	if delta == 0 {
		return
	}
	step := float32(gomath.Pow(0.95, float64(o.ZoomSpeed)))
	if delta > 0 {
		o.scale *= step
	} else {
		o.scale /= step
	}
}

// Idle reports whether no motion is pending.
func (o *OrbitControls) Idle() bool {
	return o.deltaTheta == 0 && o.deltaPhi == 0 && o.scale == 1
}

// Update applies pending motion to the camera and reports whether it moved.
// With damping enabled, motion decays over several frames.
func (o *OrbitControls) Update() bool {
	if o.Idle() {
		o.camera.LookAt = o.Target
		return false
	}

	offset := o.camera.Position.Sub(o.Target)
	radius := offset.Length()
	theta := math.Atan2(offset.X, offset.Z)
	phi := float32(0)
	if radius > 0 {
		phi = math.Acos(offset.Y / radius)
	}

	if o.EnableDamping {
		theta += o.deltaTheta * o.DampingFactor
		phi += o.deltaPhi * o.DampingFactor
	} else {
		theta += o.deltaTheta
		phi += o.deltaPhi
	}

	phi = math.Clamp(phi, o.MinPolar, o.MaxPolar)
	phi = math.Clamp(phi, polarEpsilon, gomath.Pi-polarEpsilon)

	radius = math.Clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	sinPhi := math.Sin(phi)
	offset = math.Vec3{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	}
	o.camera.Position = o.Target.Add(offset)
	o.camera.LookAt = o.Target

	if o.EnableDamping {
		o.deltaTheta *= 1 - o.DampingFactor
		o.deltaPhi *= 1 - o.DampingFactor
		if abs32(o.deltaTheta) < settleEpsilon {
			o.deltaTheta = 0
		}
		if abs32(o.deltaPhi) < settleEpsilon {
			o.deltaPhi = 0
		}
	} else {
		o.deltaTheta = 0
		o.deltaPhi = 0
	}
	o.scale = 1

	return true
}

// Distance returns the current camera distance from Target.
func (o *OrbitControls) Distance() float32 {
	return o.camera.Position.Distance(o.Target)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
