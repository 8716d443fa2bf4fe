// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Scene    SceneConfig    `yaml:"scene"`
	Shader   ShaderConfig   `yaml:"shader"`
	Camera   CameraConfig   `yaml:"camera"`
	Controls ControlsConfig `yaml:"controls"`
	Lighting LightingConfig `yaml:"lighting"`
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	MSAA       int  `yaml:"msaa"` // Multisample count, 0 disables
}

// SceneConfig selects the asset and the node that receives the height shader.
type SceneConfig struct {
	AssetDir   string   `yaml:"asset_dir"`
	Asset      string   `yaml:"asset"` // Logical path, resolved against AssetDir
	TargetNode string   `yaml:"target_node"`
	Background HexColor `yaml:"background"`
}

// ShaderConfig holds the static inputs of the height-color shader.
type ShaderConfig struct {
	TopColor    HexColor `yaml:"top_color"`
	BottomColor HexColor `yaml:"bottom_color"`
	MinHeight   float32  `yaml:"min_height"`
	MaxHeight   float32  `yaml:"max_height"`
}

// CameraConfig holds perspective camera settings.
type CameraConfig struct {
	FOV      float32    `yaml:"fov"` // Vertical field of view in degrees
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position,flow"`
}

// ControlsConfig holds orbit control settings.
type ControlsConfig struct {
	Damping       bool    `yaml:"damping"`
	DampingFactor float32 `yaml:"damping_factor"`
	RotateSpeed   float32 `yaml:"rotate_speed"`
	ZoomSpeed     float32 `yaml:"zoom_speed"`
}

// LightingConfig holds shadow settings for the directional light.
type LightingConfig struct {
	ShadowMapSize int32   `yaml:"shadow_map_size"`
	ShadowBias    float32 `yaml:"shadow_bias"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// DebugConfig holds developer conveniences.
type DebugConfig struct {
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			MSAA:       4,
		},
		Scene: SceneConfig{
			AssetDir:   "public",
			Asset:      "/matcha.glb",
			TargetNode: "NurbsPath001",
			Background: 0x707070,
		},
		Shader: ShaderConfig{
			TopColor:    0xf0f0e9,
			BottomColor: 0x88b04b,
			MinHeight:   0.0,
			MaxHeight:   1.5,
		},
		Camera: CameraConfig{
			FOV:      45,
			Near:     0.1,
			Far:      100,
			Position: [3]float32{-7, 1, 7},
		},
		Controls: ControlsConfig{
			Damping:       true,
			DampingFactor: 0.05,
			RotateSpeed:   1.0,
			ZoomSpeed:     1.0,
		},
		Lighting: LightingConfig{
			ShadowMapSize: 2048,
			ShadowBias:    -0.0005,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Debug: DebugConfig{
			ScreenshotDir: "screenshots",
		},
	}
}

// Validate rejects configurations the renderer cannot honor.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Shader.MinHeight == c.Shader.MaxHeight {
		return fmt.Errorf("%w: shader height range [%g, %g] is empty", ErrInvalid, c.Shader.MinHeight, c.Shader.MaxHeight)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera fov %g", ErrInvalid, c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera clip range [%g, %g]", ErrInvalid, c.Camera.Near, c.Camera.Far)
	}
	if c.Lighting.ShadowMapSize <= 0 {
		return fmt.Errorf("%w: shadow map size %d", ErrInvalid, c.Lighting.ShadowMapSize)
	}
	if c.Controls.DampingFactor < 0 || c.Controls.DampingFactor > 1 {
		return fmt.Errorf("%w: damping factor %g", ErrInvalid, c.Controls.DampingFactor)
	}
	return nil
}
