package scenegraph

import (
	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Scene is the root container handed to the renderer each frame.
type Scene struct {
	Background math.Color
	Root       *Node

	Ambient lighting.AmbientLight
	Sun     lighting.DirectionalLight
}

// NewScene creates an empty scene with a root node.
func NewScene() *Scene {
	return &Scene{Root: NewNode("root")}
}

// Add attaches a node under the scene root.
func (s *Scene) Add(n *Node) {
	s.Root.Add(n)
}

// DrawItems returns every mesh in the scene with its world transform.
func (s *Scene) DrawItems() []DrawItem {
	return s.Root.Flatten()
}
