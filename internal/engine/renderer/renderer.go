// Package renderer draws a scene graph with OpenGL.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/matcha-viewer/internal/engine/camera"
	"github.com/Faultbox/matcha-viewer/internal/engine/lighting"
	"github.com/Faultbox/matcha-viewer/internal/engine/renderer/shaders"
	"github.com/Faultbox/matcha-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/matcha-viewer/internal/engine/shader"
	"github.com/Faultbox/matcha-viewer/internal/engine/shadow"
	"github.com/Faultbox/matcha-viewer/internal/engine/texture"
	"github.com/Faultbox/matcha-viewer/internal/logger"
	"github.com/Faultbox/matcha-viewer/internal/shading"
	heightshaders "github.com/Faultbox/matcha-viewer/internal/shading/shaders"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// Texture units
const (
	unitBaseColor = 0
	unitShadowMap = 1
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	MSAA   bool
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	standard *shader.Program
	height   *shader.Program
	depth    *shader.Program

	shadowMap *shadow.Map

	meshes   map[*scenegraph.Mesh]*gpuMesh
	textures map[*image.RGBA]uint32
	white    uint32

	warned map[string]bool
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		meshes:   make(map[*scenegraph.Mesh]*gpuMesh),
		textures: make(map[*image.RGBA]uint32),
		warned:   make(map[string]bool),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	if cfg.MSAA {
		gl.Enable(gl.MULTISAMPLE)
	}

	var err error
	if r.standard, err = shader.NewProgram(shaders.StandardVertexShader, shaders.StandardFragmentShader); err != nil {
		return nil, fmt.Errorf("standard program: %w", err)
	}
	if r.height, err = shader.NewProgram(heightshaders.HeightVertexShader, heightshaders.HeightFragmentShader); err != nil {
		r.Close()
		return nil, fmt.Errorf("height program: %w", err)
	}
	if r.depth, err = shader.NewProgram(shaders.DepthVertexShader, shaders.DepthFragmentShader); err != nil {
		r.Close()
		return nil, fmt.Errorf("depth program: %w", err)
	}

	r.white = texture.White()
	r.SetSize(cfg.Width, cfg.Height)

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for _, m := range r.meshes {
		m.destroy()
	}
	r.meshes = make(map[*scenegraph.Mesh]*gpuMesh)
	for _, id := range r.textures {
		texture.Delete(id)
	}
	r.textures = make(map[*image.RGBA]uint32)
	texture.Delete(r.white)
	r.white = 0

	if r.shadowMap != nil {
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	for _, p := range []*shader.Program{r.standard, r.height, r.depth} {
		if p != nil {
			p.Destroy()
		}
	}
}

// Release frees the GPU meshes and textures uploaded for root's subtree.
// Call it once the subtree has left the scene.
func (r *Renderer) Release(root *scenegraph.Node) {
	if root == nil {
		return
	}
	meshes, textures := 0, 0
	root.Traverse(func(n *scenegraph.Node) bool {
		if gm, ok := r.meshes[n.Mesh]; ok {
			gm.destroy()
			delete(r.meshes, n.Mesh)
			meshes++
		}
		if mat, ok := n.Material.(*scenegraph.StandardMaterial); ok && mat.Texture != nil {
			if id, ok := r.textures[mat.Texture]; ok {
				texture.Delete(id)
				delete(r.textures, mat.Texture)
				textures++
			}
		}
		return true
	})
	r.log.Debug("released model resources",
		zap.String("root", root.Name),
		zap.Int("meshes", meshes),
		zap.Int("textures", textures),
	)
}

// SetSize sets the drawing buffer size used for the viewport.
func (r *Renderer) SetSize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the drawing buffer size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Render draws one frame: the shadow pass, opaque meshes, then transparent ones.
func (r *Renderer) Render(scene *scenegraph.Scene, cam *camera.Perspective) error {
	if scene == nil || cam == nil {
		return errors.New("renderer: nil scene or camera")
	}

	items := scene.DrawItems()
	for _, it := range items {
		if _, ok := r.meshes[it.Node.Mesh]; !ok {
			r.meshes[it.Node.Mesh] = uploadMesh(it.Node.Mesh)
		}
	}

	shadows := r.prepareShadows(scene.Sun)
	if shadows {
		r.renderShadowPass(items)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	bg := scene.Background
	gl.ClearColor(bg.R, bg.G, bg.B, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	viewProj := cam.ViewProjection()

	var transparent []scenegraph.DrawItem
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, it := range items {
		if isTransparent(it.Node.Material) {
			transparent = append(transparent, it)
			continue
		}
		r.drawItem(it, scene, viewProj, shadows)
	}

	if len(transparent) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		for _, it := range transparent {
			r.drawItem(it, scene, viewProj, shadows)
		}
		gl.Disable(gl.BLEND)
	}

	gl.BindVertexArray(0)
	return nil
}

func isTransparent(m scenegraph.Material) bool {
	switch mat := m.(type) {
	case *shading.HeightMaterial:
		return mat.Transparent
	case *scenegraph.StandardMaterial:
		return mat.BaseColor[3] < 1
	}
	return false
}

// prepareShadows makes sure the shadow map matches the light and reports
// whether a shadow pass should run.
func (r *Renderer) prepareShadows(sun lighting.DirectionalLight) bool {
	if !sun.CastShadow {
		return false
	}

	if !r.shadowMap.IsValid() || !r.shadowMap.Fits(sun.Shadow) {
		if r.shadowMap != nil {
			r.shadowMap.Destroy()
			r.shadowMap = nil
		}
		sm, err := shadow.NewMap(sun.Shadow)
		if err != nil {
			if !r.warned["shadow"] {
				r.log.Warn("shadows disabled", zap.Error(err))
				r.warned["shadow"] = true
			}
			return false
		}
		r.shadowMap = sm
		r.log.Debug("shadow map created", zap.Int32("resolution", sm.Resolution()))
	}

	r.shadowMap.Follow(sun)
	return true
}

func (r *Renderer) renderShadowPass(items []scenegraph.DrawItem) {
	r.shadowMap.BeginPass(r.depth)
	for _, it := range items {
		if !it.Node.CastShadow {
			continue
		}
		gm := r.meshes[it.Node.Mesh]
		if gm == nil {
			continue
		}
		r.depth.SetMat4("uModel", it.World)
		gm.draw()
	}

	r.shadowMap.EndPass()
}

func (r *Renderer) drawItem(it scenegraph.DrawItem, scene *scenegraph.Scene, viewProj math.Mat4, shadows bool) {
	gm := r.meshes[it.Node.Mesh]
	if gm == nil {
		return
	}

	var p *shader.Program
	switch mat := it.Node.Material.(type) {
	case *shading.HeightMaterial:
		p = r.height
		p.Use()
		p.Apply(mat.Uniforms)

	case *scenegraph.StandardMaterial:
		p = r.standard
		p.Use()
		r.applyStandard(mat, it.Node, scene, shadows)

	default:
		// Unknown materials draw as plain white standard surfaces
		kind := fmt.Sprintf("%T", mat)
		if !r.warned[kind] {
			r.log.Warn("unsupported material, using default",
				zap.String("node", it.Node.Name),
				zap.String("type", kind))
			r.warned[kind] = true
		}
		p = r.standard
		p.Use()
		r.applyStandard(scenegraph.NewStandardMaterial("fallback"), it.Node, scene, shadows)
	}

	p.SetMat4("uModel", it.World)
	p.SetMat4("uNormalMatrix", it.World.NormalMatrix())
	p.SetMat4("uViewProj", viewProj)
	gm.draw()
}

func (r *Renderer) applyStandard(mat *scenegraph.StandardMaterial, node *scenegraph.Node, scene *scenegraph.Scene, shadows bool) {
	p := r.standard
	p.SetVec4("uBaseColor", mat.BaseColor)

	gl.ActiveTexture(gl.TEXTURE0 + unitBaseColor)
	gl.BindTexture(gl.TEXTURE_2D, r.textureFor(mat.Texture))
	p.SetInt("uTexture", unitBaseColor)

	p.SetVec3("uAmbient", scene.Ambient.Radiance().Vec3())
	p.SetVec3("uLightColor", scene.Sun.Radiance().Vec3())
	p.SetVec3("uLightDir", scene.Sun.Direction())

	if shadows {
		p.SetInt("uShadowsEnabled", 1)
		r.shadowMap.Apply(p, unitShadowMap)
	} else {
		p.SetInt("uShadowsEnabled", 0)
	}
	if node.ReceiveShadow {
		p.SetInt("uReceiveShadow", 1)
	} else {
		p.SetInt("uReceiveShadow", 0)
	}
}

func (r *Renderer) textureFor(img *image.RGBA) uint32 {
	if img == nil || len(img.Pix) == 0 {
		return r.white
	}
	if id, ok := r.textures[img]; ok {
		return id
	}
	id := texture.Upload(img)
	r.textures[img] = id
	return id
}

// ReadPixels reads the default framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	pixels := make([]byte, w*h*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

func uploadMesh(mesh *scenegraph.Mesh) *gpuMesh {
	gm := &gpuMesh{}
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return gm
	}

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	vertexSize := int(unsafe.Sizeof(scenegraph.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gm.indexCount = int32(len(mesh.Indices))
	gl.BindVertexArray(0)
	return gm
}

func (m *gpuMesh) draw() {
	if m.indexCount == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
}

func (m *gpuMesh) destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
}
