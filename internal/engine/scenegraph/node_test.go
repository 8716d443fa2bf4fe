package scenegraph

import (
	"reflect"
	"testing"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// buildTree returns:
//
//	root
//	├── a
//	│   ├── a1 (mesh "NurbsPath001")
//	│   └── a2
//	└── b (mesh "NurbsPath001")
func buildTree() (root, a1, b *Node) {
	root = NewNode("root")
	a := NewNode("a")
	a1 = NewNode("NurbsPath001")
	a1.Mesh = &Mesh{}
	a2 := NewNode("a2")
	b = NewNode("NurbsPath001")
	b.Mesh = &Mesh{}

	root.Add(a)
	a.Add(a1)
	a.Add(a2)
	root.Add(b)
	return root, a1, b
}

func TestTraverseDepthFirstOrder(t *testing.T) {
	root, _, _ := buildTree()

	var names []string
	root.Traverse(func(n *Node) bool {
		names = append(names, n.Name)
		return true
	})

	want := []string{"root", "a", "NurbsPath001", "a2", "NurbsPath001"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("traversal order = %v, want %v", names, want)
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	root, a1, _ := buildTree()

	if got := root.Find(MeshNamed("NurbsPath001")); got != a1 {
		t.Errorf("Find returned %p, want first match %p", got, a1)
	}
}

func TestFindRequiresMesh(t *testing.T) {
	root := NewNode("root")
	group := NewNode("NurbsPath001") // right name, no geometry
	root.Add(group)

	if got := root.Find(MeshNamed("NurbsPath001")); got != nil {
		t.Errorf("Find matched a non-mesh node %q", got.Name)
	}
}

func TestFindNoMatch(t *testing.T) {
	root, _, _ := buildTree()
	if got := root.Find(MeshNamed("nurbspath001")); got != nil {
		t.Errorf("name match must be exact, got %q", got.Name)
	}
}

func TestAddReparents(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	a.Add(c)
	b.Add(c)

	if len(a.Children) != 0 {
		t.Errorf("old parent still has %d children", len(a.Children))
	}
	if c.Parent != b {
		t.Error("child parent not updated")
	}
}

func TestWorldMatrixComposes(t *testing.T) {
	root := NewNode("root")
	root.Transform = math.Translate(1, 0, 0)
	child := NewNode("child")
	child.Transform = math.Scale(2, 2, 2)
	child.Mesh = &Mesh{}
	root.Add(child)

	p := child.WorldMatrix().TransformPoint([3]float32{1, 1, 1})
	if p != [3]float32{3, 2, 2} {
		t.Errorf("world transform of (1,1,1) = %v, want (3, 2, 2)", p)
	}

	items := root.Flatten()
	if len(items) != 1 || items[0].Node != child || items[0].World != child.WorldMatrix() {
		t.Errorf("Flatten() = %+v", items)
	}
}

func TestComputeBounds(t *testing.T) {
	m := &Mesh{Vertices: []Vertex{
		{Position: [3]float32{0, -1, 2}},
		{Position: [3]float32{3, 1.5, -2}},
	}}
	m.ComputeBounds()

	want := Bounds{Min: [3]float32{0, -1, -2}, Max: [3]float32{3, 1.5, 2}}
	if m.Bounds != want {
		t.Errorf("Bounds = %+v, want %+v", m.Bounds, want)
	}
}
