// Package uniform holds named, typed shader parameters independent of the GPU API.
package uniform

import (
	"fmt"

	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Kind identifies the type stored in a Value.
type Kind int

const (
	KindFloat Kind = iota
	KindVec3
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindVec3:
		return "vec3"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single typed uniform. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Float float32
	Vec3  math.Vec3
	Color math.Color
}

// Set is an ordered mapping from uniform name to value.
// Insertion order is kept so uploads and logs are stable.
type Set struct {
	values map[string]*Value
	order  []string
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{values: make(map[string]*Value)}
}

func (s *Set) put(name string, v Value) {
	if cur, ok := s.values[name]; ok {
		*cur = v
		return
	}
	s.values[name] = &v
	s.order = append(s.order, name)
}

// SetFloat stores a float uniform.
func (s *Set) SetFloat(name string, f float32) {
	s.put(name, Value{Kind: KindFloat, Float: f})
}

// SetVec3 stores a vec3 uniform.
func (s *Set) SetVec3(name string, v math.Vec3) {
	s.put(name, Value{Kind: KindVec3, Vec3: v})
}

// SetColor stores a color uniform.
func (s *Set) SetColor(name string, c math.Color) {
	s.put(name, Value{Kind: KindColor, Color: c})
}

// Float returns the named float. ok is false if absent or of another kind.
func (s *Set) Float(name string) (float32, bool) {
	v, ok := s.values[name]
	if !ok || v.Kind != KindFloat {
		return 0, false
	}
	return v.Float, true
}

// Vec3 returns the named vec3. ok is false if absent or of another kind.
func (s *Set) Vec3(name string) (math.Vec3, bool) {
	v, ok := s.values[name]
	if !ok || v.Kind != KindVec3 {
		return math.Vec3{}, false
	}
	return v.Vec3, true
}

// Color returns the named color. ok is false if absent or of another kind.
func (s *Set) Color(name string) (math.Color, bool) {
	v, ok := s.values[name]
	if !ok || v.Kind != KindColor {
		return math.Color{}, false
	}
	return v.Color, true
}

// Get returns the raw value.
func (s *Set) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	if !ok {
		return Value{}, false
	}
	return *v, true
}

// Names returns uniform names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of uniforms.
func (s *Set) Len() int {
	return len(s.order)
}

// Each calls fn for every uniform in insertion order.
func (s *Set) Each(fn func(name string, v Value)) {
	for _, name := range s.order {
		fn(name, *s.values[name])
	}
}
