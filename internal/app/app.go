// Package app runs the viewer inside an SDL2 window with an OpenGL renderer.
package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/matcha-viewer/internal/config"
	"github.com/Faultbox/matcha-viewer/internal/engine/debug"
	"github.com/Faultbox/matcha-viewer/internal/engine/input"
	"github.com/Faultbox/matcha-viewer/internal/engine/loader"
	"github.com/Faultbox/matcha-viewer/internal/engine/renderer"
	"github.com/Faultbox/matcha-viewer/internal/engine/window"
	"github.com/Faultbox/matcha-viewer/internal/logger"
	"github.com/Faultbox/matcha-viewer/internal/viewer"
)

const title = "Matcha"

// App is the running viewer application.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window     *window.Window
	renderer   *renderer.Renderer
	input      *input.Input
	loader     *loader.Loader
	viewer     *viewer.Viewer
	screenshot *debug.ScreenshotCapture

	// Paths picked in the file dialog, consumed on the render loop
	opened     chan string
	dialogOpen bool

	titlePath string // Model path shown in the window title
}

// New creates the window, GL renderer and viewer.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:    cfg,
		log:    logger.Named("app"),
		opened: make(chan string, 1),
	}
	a.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:  width,
		Height: height,
		MSAA:   cfg.Graphics.MSAA > 0,
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	a.loader = loader.New()
	a.screenshot = debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "matcha")

	a.viewer, err = viewer.New(cfg, a.renderer, a.loader, width, height)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}

	a.log.Info("viewer initialized")
	return a, nil
}

// Run starts the main loop and returns when the window closes.
func (a *App) Run() error {
	a.running = true
	a.viewer.Start()

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting render loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()

		select {
		case path := <-a.opened:
			a.dialogOpen = false
			if path != "" {
				a.viewer.Open(path)
			}
		default:
		}

		if err := a.viewer.Frame(); err != nil {
			return fmt.Errorf("frame error: %w", err)
		}
		a.updateTitle()

		if a.input.IsKeyPressed(sdl.SCANCODE_F12) {
			a.captureScreenshot()
		}

		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			// Event sizes are in screen coordinates; the renderer works in pixels
			a.viewer.Resize(a.window.DrawableSize())

		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_O:
				a.openFileDialog()
			}

		case input.EventMouseMove:
			if a.input.IsButtonDown(sdl.BUTTON_LEFT) {
				scale := a.pixelScale()
				a.viewer.Drag(float32(event.DeltaX)*scale, float32(event.DeltaY)*scale)
			}

		case input.EventMouseWheel:
			a.viewer.Zoom(event.Wheel)
		}
	}
}

// openFileDialog asks for another model without blocking the render loop.
// SDL and GL stay on the main thread; the picked path comes back over a channel.
func (a *App) openFileDialog() {
	if a.dialogOpen {
		return
	}
	a.dialogOpen = true

	go func() {
		path, err := dialog.File().
			Filter("glTF models", "glb", "gltf").
			Filter("All Files", "*").
			Title("Open model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				a.log.Warn("file dialog failed", zap.Error(err))
			}
			path = ""
		}
		a.opened <- path
	}()
}

// updateTitle names the displayed model in the window title once it changes.
func (a *App) updateTitle() {
	path := a.viewer.ModelPath()
	if path == a.titlePath {
		return
	}
	a.titlePath = path
	a.window.SetTitle(fmt.Sprintf("%s - %s", title, filepath.Base(path)))
}

// pixelScale converts screen coordinates to drawable pixels.
func (a *App) pixelScale() float32 {
	_, wh := a.window.GetSize()
	_, dh := a.window.DrawableSize()
	if wh <= 0 {
		return 1
	}
	return float32(dh) / float32(wh)
}

func (a *App) captureScreenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.screenshot.CaptureFromPixels(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases GPU and window resources.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.loader != nil {
		a.loader.Wait()
	}
	if a.renderer != nil {
		a.renderer.Close()
		a.renderer = nil
	}
	if a.window != nil {
		a.window.Close()
		a.window = nil
	}
}
