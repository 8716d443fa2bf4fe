package scenegraph

import (
	"image"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Vertex is the interleaved GPU vertex layout: position, normal, texcoord.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds is an axis-aligned bounding box in local space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh holds indexed triangle geometry ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// ComputeBounds recalculates Bounds from the vertices.
func (m *Mesh) ComputeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < b.Min[i] {
				b.Min[i] = v.Position[i]
			}
			if v.Position[i] > b.Max[i] {
				b.Max[i] = v.Position[i]
			}
		}
	}
	m.Bounds = b
}

// Material is anything the renderer knows how to draw a mesh with.
type Material interface {
	MaterialName() string
}

// StandardMaterial is the default lit material: base color times an optional texture.
type StandardMaterial struct {
	Name      string
	BaseColor [4]float32
	Texture   *image.RGBA // nil when untextured
}

// NewStandardMaterial returns an untextured white material.
func NewStandardMaterial(name string) *StandardMaterial {
	return &StandardMaterial{Name: name, BaseColor: [4]float32{1, 1, 1, 1}}
}

// MaterialName implements Material.
func (m *StandardMaterial) MaterialName() string {
	return m.Name
}

// Color returns the RGB part of the base color.
func (m *StandardMaterial) Color() math.Color {
	return math.Color{R: m.BaseColor[0], G: m.BaseColor[1], B: m.BaseColor[2]}
}
