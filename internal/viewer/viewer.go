// Package viewer owns the matcha scene: lights, camera, orbit controls and
// the height-color material bound to the loaded model.
package viewer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/matcha-viewer/internal/config"
	"github.com/Faultbox/matcha-viewer/internal/engine/camera"
	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/matcha-viewer/internal/logger"
	"github.com/Faultbox/matcha-viewer/internal/shading"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Light rig
var (
	ambientColor     = math.ColorFromHex(0xffffff)
	sunColor         = math.ColorFromHex(0xffffff)
	sunPosition      = math.Vec3{X: 2, Y: 4, Z: 2}
	sunTarget        = math.Vec3{X: 0, Y: 0.5, Z: 0}
	sunShadowCamera  = lighting.ShadowCamera{Left: -5, Right: 5, Bottom: -5, Top: 5, Near: 1, Far: 20}
	topLightDir      = math.Vec3{X: 0, Y: 1, Z: 0}
	ambientIntensity = float32(0.7)
	sunIntensity     = float32(1.0)
)

// Renderer draws the scene from the camera into a surface of a given size.
// Release frees whatever GPU data was created for a detached subtree.
type Renderer interface {
	Render(scene *scenegraph.Scene, cam *camera.Perspective) error
	SetSize(width, height int)
	Release(root *scenegraph.Node)
}

// Loader decodes assets asynchronously; callbacks run inside Dispatch.
type Loader interface {
	Load(path string, onLoad func(*scenegraph.Node), onError func(error))
	Dispatch() int
}

// Viewer is the single owner of all scene state.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	scene    *scenegraph.Scene
	camera   *camera.Perspective
	controls *camera.OrbitControls
	renderer Renderer
	loader   Loader

	params   shading.Params
	material *shading.HeightMaterial // nil until the target node is bound
	target   *scenegraph.Node
	model    *scenegraph.Node

	width, height int
	loadErr       error
	frames        uint64

	generation uint64 // Bumped by Open; older loads are discarded
	modelPath  string
}

// New builds the scene, lights and camera for a surface of width x height.
func New(cfg *config.Config, r Renderer, l Loader, width, height int) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("viewer: invalid surface size %dx%d", width, height)
	}

	v := &Viewer{
		cfg:      cfg,
		log:      logger.Named("viewer"),
		renderer: r,
		loader:   l,
		params:   ShaderParams(cfg),
	}
	if err := v.params.Validate(); err != nil {
		return nil, fmt.Errorf("viewer: %w", err)
	}

	v.scene = NewScene(cfg)

	cc := cfg.Camera
	v.camera = camera.NewPerspective(cc.FOV, float32(width)/float32(height), cc.Near, cc.Far)
	v.camera.Position = math.Vec3FromArray(cc.Position)

	v.controls = camera.NewOrbitControls(v.camera, height)
	v.controls.EnableDamping = cfg.Controls.Damping
	v.controls.DampingFactor = cfg.Controls.DampingFactor
	v.controls.RotateSpeed = cfg.Controls.RotateSpeed
	v.controls.ZoomSpeed = cfg.Controls.ZoomSpeed

	v.width, v.height = width, height
	v.renderer.SetSize(width, height)

	return v, nil
}

// NewScene creates the background and light rig.
func NewScene(cfg *config.Config) *scenegraph.Scene {
	s := scenegraph.NewScene()
	s.Background = math.ColorFromHex(uint32(cfg.Scene.Background))
	s.Ambient = lighting.AmbientLight{Color: ambientColor, Intensity: ambientIntensity}
	s.Sun = lighting.DirectionalLight{
		Color:      sunColor,
		Intensity:  sunIntensity,
		Position:   sunPosition,
		Target:     sunTarget,
		CastShadow: true,
		Shadow: lighting.Shadow{
			MapSize: cfg.Lighting.ShadowMapSize,
			Bias:    cfg.Lighting.ShadowBias,
			Camera:  sunShadowCamera,
		},
	}
	return s
}

// ShaderParams maps the shader section of the config to shading parameters.
// The light direction uniform is the sun position normalized.
func ShaderParams(cfg *config.Config) shading.Params {
	sc := cfg.Shader
	return shading.Params{
		TopColor:          math.ColorFromHex(uint32(sc.TopColor)),
		BottomColor:       math.ColorFromHex(uint32(sc.BottomColor)),
		MinHeight:         sc.MinHeight,
		MaxHeight:         sc.MaxHeight,
		LightDirection:    sunPosition.Normalize(),
		TopLightDirection: topLightDir,
	}
}

// Start begins loading the configured asset. It returns immediately.
func (v *Viewer) Start() {
	v.Open(v.cfg.Scene.AssetPath())
}

// Open replaces the current model with the asset at path once it has loaded.
// The previous model stays visible until then. Only the most recent Open is
// applied: loads started earlier are dropped even if they finish later.
func (v *Viewer) Open(path string) {
	v.generation++
	gen := v.generation
	v.log.Info("loading model", zap.String("path", path), zap.Uint64("generation", gen))

	v.loader.Load(path,
		func(root *scenegraph.Node) {
			if v.stale(gen, path) {
				return
			}
			v.modelPath = path
			v.OnModelLoaded(root)
		},
		func(err error) {
			if v.stale(gen, path) {
				return
			}
			v.OnLoadError(err)
		},
	)
}

func (v *Viewer) stale(gen uint64, path string) bool {
	if gen == v.generation {
		return false
	}
	v.log.Debug("discarding superseded load",
		zap.String("path", path),
		zap.Uint64("generation", gen),
		zap.Uint64("current", v.generation))
	return true
}

// Frame advances one frame: completed loads are applied, the controls
// are damped, the camera uniform is refreshed and the scene is rendered.
func (v *Viewer) Frame() error {
	v.loader.Dispatch()

	v.controls.Update()

	// Must precede Render so the frame uses this frame's camera position
	if v.material != nil {
		v.material.SetCameraPosition(v.camera.Position)
	}

	v.frames++
	if err := v.renderer.Render(v.scene, v.camera); err != nil {
		return fmt.Errorf("render frame %d: %w", v.frames, err)
	}
	return nil
}

// Resize adapts the camera and render surface to a new size before the next
// frame. Repeating the current size, or a non-positive size, changes nothing.
func (v *Viewer) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width == v.width && height == v.height {
		return false
	}
	v.width, v.height = width, height

	v.camera.SetAspect(width, height)
	v.camera.UpdateProjection()
	v.renderer.SetSize(width, height)
	v.controls.SetViewportHeight(height)

	v.log.Debug("viewport resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return true
}

// OnModelLoaded adds the model to the scene and binds the height material to
// the first mesh named after the configured target, in depth-first order.
func (v *Viewer) OnModelLoaded(root *scenegraph.Node) {
	if root == nil {
		return
	}
	if v.model != nil {
		old := v.model
		v.scene.Root.Remove(old)
		v.renderer.Release(old)
		v.material = nil
		v.target = nil
	}
	v.scene.Add(root)
	v.model = root
	v.loadErr = nil

	name := v.cfg.Scene.TargetNode
	target := root.Find(scenegraph.MeshNamed(name))
	if target == nil {
		v.log.Debug("target node not found, keeping default materials", zap.String("node", name))
		return
	}

	mat, err := shading.NewHeightMaterial(v.params)
	if err != nil {
		// Params were validated in New
		v.log.Error("building height material", zap.Error(err))
		return
	}
	mat.SetCameraPosition(v.camera.Position)

	target.Material = mat
	target.CastShadow = true
	target.ReceiveShadow = true

	v.material = mat
	v.target = target
	v.log.Info("height material bound", zap.String("node", name))
}

// OnLoadError records a failed load. The scene keeps rendering without the model.
func (v *Viewer) OnLoadError(err error) {
	v.loadErr = err
	v.log.Error("model load failed", zap.Error(err))
}

// Drag forwards a pointer drag in pixels to the orbit controls.
func (v *Viewer) Drag(dx, dy float32) {
	v.controls.HandleDrag(dx, dy)
}

// Zoom forwards a wheel delta to the orbit controls.
func (v *Viewer) Zoom(delta float32) {
	v.controls.HandleZoom(delta)
}

// Scene returns the scene graph.
func (v *Viewer) Scene() *scenegraph.Scene { return v.scene }

// Camera returns the camera.
func (v *Viewer) Camera() *camera.Perspective { return v.camera }

// Controls returns the orbit controls.
func (v *Viewer) Controls() *camera.OrbitControls { return v.controls }

// Material returns the bound height material, or nil.
func (v *Viewer) Material() *shading.HeightMaterial { return v.material }

// Target returns the node carrying the height material, or nil.
func (v *Viewer) Target() *scenegraph.Node { return v.target }

// Model returns the loaded model root, or nil.
func (v *Viewer) Model() *scenegraph.Node { return v.model }

// ModelPath returns the path the current model was opened from, or "".
func (v *Viewer) ModelPath() string { return v.modelPath }

// LoadError returns the last load failure, if any.
func (v *Viewer) LoadError() error { return v.loadErr }

// Size returns the current surface size.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

// Frames returns how many frames have been rendered.
func (v *Viewer) Frames() uint64 { return v.frames }
