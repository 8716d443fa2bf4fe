package shader

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/matcha-viewer/internal/engine/uniform"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Program is a linked shader program with cached uniform locations.
type Program struct {
	ID        uint32
	locations map[string]int32
}

// NewProgram compiles and links a program from GLSL sources.
func NewProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &Program{ID: id, locations: make(map[string]int32)}, nil
}

// Use makes the program current.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Location returns the cached location of a uniform, or -1 when inactive.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := GetUniform(p.ID, name)
	p.locations[name] = loc
	return loc
}

// SetMat4 uploads a matrix uniform.
func (p *Program) SetMat4(name string, m math.Mat4) {
	if loc := p.Location(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, m.Ptr())
	}
}

// SetVec3 uploads a vec3 uniform.
func (p *Program) SetVec3(name string, v math.Vec3) {
	if loc := p.Location(name); loc >= 0 {
		gl.Uniform3f(loc, v.X, v.Y, v.Z)
	}
}

// SetVec4 uploads a vec4 uniform.
func (p *Program) SetVec4(name string, v [4]float32) {
	if loc := p.Location(name); loc >= 0 {
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	}
}

// SetFloat uploads a float uniform.
func (p *Program) SetFloat(name string, f float32) {
	if loc := p.Location(name); loc >= 0 {
		gl.Uniform1f(loc, f)
	}
}

// SetInt uploads an int or sampler uniform.
func (p *Program) SetInt(name string, i int32) {
	if loc := p.Location(name); loc >= 0 {
		gl.Uniform1i(loc, i)
	}
}

// Apply uploads every value of a uniform set. Colors become vec3.
// The program must be current.
func (p *Program) Apply(set *uniform.Set) {
	set.Each(func(name string, v uniform.Value) {
		switch v.Kind {
		case uniform.KindFloat:
			p.SetFloat(name, v.Float)
		case uniform.KindVec3:
			p.SetVec3(name, v.Vec3)
		case uniform.KindColor:
			p.SetVec3(name, v.Color.Vec3())
		}
	})
}

// Destroy deletes the GL program.
func (p *Program) Destroy() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}
