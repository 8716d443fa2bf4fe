package loader

import (
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/matcha-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/matcha-viewer/internal/engine/texture"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

// ErrNoScene is returned when a document has no nodes to instantiate.
var ErrNoScene = errors.New("loader: document has no scene nodes")

// LoadFile decodes a glTF or GLB file into a node hierarchy.
func LoadFile(path string) (*scenegraph.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Convert(doc, filepath.Dir(path))
}

// Convert builds a node hierarchy from a decoded document.
// baseDir resolves external image URIs and may be empty.
func Convert(doc *gltf.Document, baseDir string) (*scenegraph.Node, error) {
	c := &converter{
		doc:       doc,
		baseDir:   baseDir,
		materials: make(map[int]*scenegraph.StandardMaterial),
		images:    make(map[int]imageResult),
		names:     make(nameRegistry),
		nodeNames: make(map[int]string),
		meshNames: make(map[int][]string),
		log:       log(),
	}

	roots, sceneName := c.sceneRoots()
	if len(roots) == 0 {
		return nil, ErrNoScene
	}

	// Scene and node names are claimed before any mesh name, in that order
	name := "Scene"
	if sceneName != "" {
		name = c.names.unique(sceneName)
	}
	for _, idx := range roots {
		c.claimNodeNames(idx, 0)
	}

	root := scenegraph.NewNode(name)
	root.SourceName = sceneName
	for _, idx := range roots {
		n, err := c.node(idx, 0)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

type imageResult struct {
	img *image.RGBA
	err error
}

type converter struct {
	doc       *gltf.Document
	baseDir   string
	materials map[int]*scenegraph.StandardMaterial
	images    map[int]imageResult
	names     nameRegistry
	nodeNames map[int]string   // node index -> unique sanitized name
	meshNames map[int][]string // mesh index -> one unique name per primitive
	log       *zap.Logger
}

// sceneRoots returns the root node indices of the default scene.
// Documents without scenes instantiate every node that is nobody's child.
func (c *converter) sceneRoots() ([]int, string) {
	doc := c.doc
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		s := doc.Scenes[idx]
		return s.Nodes, s.Name
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, ch := range n.Children {
			if ch >= 0 && ch < len(isChild) {
				isChild[ch] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots, ""
}

// claimNodeNames reserves unique names for the named nodes under idx in
// depth-first order. Nodes reached twice keep their first name.
func (c *converter) claimNodeNames(idx, depth int) {
	if idx < 0 || idx >= len(c.doc.Nodes) || depth > maxDepth {
		return
	}
	if _, done := c.nodeNames[idx]; done {
		return
	}
	src := c.doc.Nodes[idx]
	name := ""
	if src.Name != "" {
		name = c.names.unique(src.Name)
	}
	c.nodeNames[idx] = name
	for _, ch := range src.Children {
		c.claimNodeNames(ch, depth+1)
	}
}

// maxDepth bounds recursion on malformed, cyclic documents.
const maxDepth = 256

func (c *converter) node(idx, depth int) (*scenegraph.Node, error) {
	if idx < 0 || idx >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("node %d: hierarchy deeper than %d", idx, maxDepth)
	}

	src := c.doc.Nodes[idx]
	n := scenegraph.NewNode(c.nodeNames[idx])
	n.SourceName = src.Name
	n.Transform = localTransform(src)

	if src.Mesh != nil {
		if err := c.attachMesh(n, *src.Mesh); err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
	}

	for _, ch := range src.Children {
		child, err := c.node(ch, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// attachMesh puts a single-primitive mesh on n itself. Multi-primitive meshes
// become one child per primitive, leaving n a plain group.
func (c *converter) attachMesh(n *scenegraph.Node, meshIdx int) error {
	if meshIdx < 0 || meshIdx >= len(c.doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", meshIdx)
	}
	mesh := c.doc.Meshes[meshIdx]

	var prims []*gltf.Primitive
	for _, p := range mesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			c.log.Debug("skipping non-triangle primitive",
				zap.String("mesh", mesh.Name),
				zap.Int("mode", int(p.Mode)))
			continue
		}
		prims = append(prims, p)
	}
	names := c.primitiveNames(meshIdx, len(prims))

	for i, p := range prims {
		m, err := readPrimitive(c.doc, p)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
		}
		mat := c.material(p.Material)

		target := n
		if len(prims) > 1 {
			target = scenegraph.NewNode(names[i])
			target.SourceName = mesh.Name
			n.Add(target)
		} else if n.SourceName == "" {
			// An unnamed node holding one primitive takes the mesh name
			n.Name = names[i]
		}
		target.Mesh = m
		target.Material = mat
	}
	return nil
}

// primitiveNames returns one unique name per primitive of a mesh, shared by
// every node that instances it. Unnamed meshes are called "mesh_<index>".
func (c *converter) primitiveNames(meshIdx, count int) []string {
	if names, ok := c.meshNames[meshIdx]; ok && len(names) == count {
		return names
	}
	base := c.doc.Meshes[meshIdx].Name
	if base == "" {
		base = "mesh_" + strconv.Itoa(meshIdx)
	}
	names := make([]string, count)
	for i := range names {
		names[i] = c.names.unique(base)
	}
	c.meshNames[meshIdx] = names
	return names
}

// localTransform returns the node matrix, or T*R*S when the node uses TRS.
func localTransform(n *gltf.Node) math.Mat4 {
	if n.Matrix != ([16]float64{}) && n.Matrix != identity64 {
		var m math.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}

	t := mgl32.Translate3D(float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2]))

	r := mgl32.Ident4()
	if n.Rotation != ([4]float64{}) {
		q := mgl32.Quat{
			W: float32(n.Rotation[3]),
			V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
		}
		r = q.Normalize().Mat4()
	}

	s := mgl32.Ident4()
	if n.Scale != ([3]float64{}) {
		s = mgl32.Scale3D(float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2]))
	}

	return math.Mat4(t.Mul4(r).Mul4(s))
}

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*scenegraph.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	if posIdx < 0 || posIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok && idx < len(doc.Accessors) {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var texCoords [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && idx < len(doc.Accessors) {
		texCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices < 0 || *prim.Indices >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, ix := range indices {
		if int(ix) >= len(positions) {
			return nil, fmt.Errorf("index %d exceeds %d vertices", ix, len(positions))
		}
	}

	m := &scenegraph.Mesh{
		Vertices: make([]scenegraph.Vertex, len(positions)),
		Indices:  indices,
	}
	for i, p := range positions {
		m.Vertices[i].Position = p
		if i < len(normals) {
			m.Vertices[i].Normal = normals[i]
		}
		if i < len(texCoords) {
			m.Vertices[i].TexCoord = texCoords[i]
		}
	}
	if len(normals) < len(positions) {
		computeNormals(m)
	}
	m.ComputeBounds()
	return m, nil
}

// computeNormals fills vertex normals from area-weighted triangle normals.
func computeNormals(m *scenegraph.Mesh) {
	sums := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, cc := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		pa := math.Vec3FromArray(m.Vertices[a].Position)
		pb := math.Vec3FromArray(m.Vertices[b].Position)
		pc := math.Vec3FromArray(m.Vertices[cc].Position)
		face := pb.Sub(pa).Cross(pc.Sub(pa))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[cc] = sums[cc].Add(face)
	}
	for i := range m.Vertices {
		n := sums[i].Normalize()
		if n == (math.Vec3{}) {
			n = math.Vec3{X: 0, Y: 1, Z: 0}
		}
		m.Vertices[i].Normal = n.Array()
	}
}

// material returns the shared StandardMaterial for a glTF material index.
func (c *converter) material(idx *int) *scenegraph.StandardMaterial {
	if idx == nil || *idx < 0 || *idx >= len(c.doc.Materials) {
		return scenegraph.NewStandardMaterial("default")
	}
	if m, ok := c.materials[*idx]; ok {
		return m
	}

	src := c.doc.Materials[*idx]
	m := scenegraph.NewStandardMaterial(src.Name)
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			for i, v := range pbr.BaseColorFactor {
				m.BaseColor[i] = float32(v)
			}
		}
		if pbr.BaseColorTexture != nil {
			img, err := c.textureImage(pbr.BaseColorTexture.Index)
			if err != nil {
				// An unreadable texture falls back to the base color
				c.log.Warn("base color texture unavailable",
					zap.String("material", src.Name),
					zap.Error(err))
			} else {
				m.Texture = img
			}
		}
	}
	c.materials[*idx] = m
	return m
}

func (c *converter) textureImage(texIdx int) (*image.RGBA, error) {
	if texIdx < 0 || texIdx >= len(c.doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", texIdx)
	}
	tex := c.doc.Textures[texIdx]
	if tex.Source == nil {
		return nil, fmt.Errorf("texture %d has no source image", texIdx)
	}
	imgIdx := *tex.Source
	if r, ok := c.images[imgIdx]; ok {
		return r.img, r.err
	}

	img, err := c.decodeImage(imgIdx)
	c.images[imgIdx] = imageResult{img: img, err: err}
	return img, err
}

func (c *converter) decodeImage(idx int) (*image.RGBA, error) {
	if idx < 0 || idx >= len(c.doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", idx)
	}
	src := c.doc.Images[idx]

	data, err := c.imageData(src)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", idx, err)
	}
	return texture.Decode(data, src.MimeType)
}

func (c *converter) imageData(img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		bvIdx := *img.BufferView
		if bvIdx < 0 || bvIdx >= len(c.doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", bvIdx)
		}
		bv := c.doc.BufferViews[bvIdx]
		if bv.Buffer < 0 || bv.Buffer >= len(c.doc.Buffers) {
			return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
		}
		data := c.doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if bv.ByteOffset < 0 || end > len(data) {
			return nil, fmt.Errorf("buffer view %d exceeds buffer", bvIdx)
		}
		return data[bv.ByteOffset:end], nil
	}

	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	if img.URI == "" {
		return nil, errors.New("image has neither buffer view nor URI")
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		return nil, fmt.Errorf("image uri: %w", err)
	}
	return os.ReadFile(filepath.Join(c.baseDir, filepath.FromSlash(uri)))
}
