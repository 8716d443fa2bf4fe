// Package scenegraph provides the node hierarchy the viewer renders.
package scenegraph

import (
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Node is a scene graph entity with a local transform and optional geometry.
type Node struct {
	Name       string
	SourceName string    // Name as written in the asset, before sanitizing
	Transform  math.Mat4 // Local transform relative to Parent

	Mesh     *Mesh
	Material Material

	CastShadow    bool
	ReceiveShadow bool

	Parent   *Node
	Children []*Node
}

// NewNode creates an empty node with identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Transform: math.Identity()}
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. It is a no-op if child is not a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// IsMesh reports whether the node carries renderable geometry.
func (n *Node) IsMesh() bool {
	return n.Mesh != nil
}

// WorldMatrix composes the local transforms from the root down to n.
func (n *Node) WorldMatrix() math.Mat4 {
	if n.Parent == nil {
		return n.Transform
	}
	return n.Parent.WorldMatrix().Mul(n.Transform)
}

// Traverse visits n and its descendants depth-first, parents before children.
// Returning false from fn stops the walk; Traverse then returns false.
func (n *Node) Traverse(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Traverse(fn) {
			return false
		}
	}
	return true
}

// Predicate selects nodes in Find.
type Predicate func(*Node) bool

// Find returns the first node in depth-first order satisfying pred, or nil.
func (n *Node) Find(pred Predicate) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// MeshNamed matches renderable mesh nodes with exactly the given name.
func MeshNamed(name string) Predicate {
	return func(n *Node) bool {
		return n.IsMesh() && n.Name == name
	}
}

// DrawItem is a mesh node flattened with its world transform for rendering.
type DrawItem struct {
	Node  *Node
	World math.Mat4
}

// Flatten collects every mesh node under n with its world matrix, in traversal order.
func (n *Node) Flatten() []DrawItem {
	var items []DrawItem
	var walk func(node *Node, parent math.Mat4)
	walk = func(node *Node, parent math.Mat4) {
		world := parent.Mul(node.Transform)
		if node.IsMesh() {
			items = append(items, DrawItem{Node: node, World: world})
		}
		for _, c := range node.Children {
			walk(c, world)
		}
	}
	parent := math.Identity()
	if n.Parent != nil {
		parent = n.Parent.WorldMatrix()
	}
	walk(n, parent)
	return items
}
