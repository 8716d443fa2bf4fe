package viewer

import (
	"errors"
	"testing"
	"time"

	"github.com/Faultbox/matcha-viewer/internal/config"
	"github.com/Faultbox/matcha-viewer/internal/engine/camera"
	"github.com/Faultbox/matcha-viewer/internal/engine/loader"
	"github.com/Faultbox/matcha-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/matcha-viewer/internal/shading"
	"github.com/Faultbox/matcha-viewer/pkg/math"
)

type renderCall struct {
	cameraUniform math.Vec3
	hasMaterial   bool
	aspect        float32
	width, height int
}

type fakeRenderer struct {
	width, height int
	sizeCalls     int
	renders       []renderCall
	err           error
	viewer        *Viewer
	released      []*scenegraph.Node
}

func (r *fakeRenderer) Release(root *scenegraph.Node) {
	r.released = append(r.released, root)
}

func (r *fakeRenderer) SetSize(w, h int) {
	r.width, r.height = w, h
	r.sizeCalls++
}

func (r *fakeRenderer) Render(scene *scenegraph.Scene, cam *camera.Perspective) error {
	call := renderCall{aspect: cam.Aspect, width: r.width, height: r.height}
	if r.viewer != nil && r.viewer.Material() != nil {
		call.hasMaterial = true
		call.cameraUniform = r.viewer.Material().CameraPosition()
	}
	r.renders = append(r.renders, call)
	return r.err
}

type fakeLoader struct {
	path    string
	onLoad  func(*scenegraph.Node)
	onError func(error)
	ready   []func()
}

func (l *fakeLoader) Load(path string, onLoad func(*scenegraph.Node), onError func(error)) {
	l.path, l.onLoad, l.onError = path, onLoad, onError
}

func (l *fakeLoader) complete(root *scenegraph.Node) {
	l.ready = append(l.ready, func() { l.onLoad(root) })
}

func (l *fakeLoader) fail(err error) {
	l.ready = append(l.ready, func() { l.onError(err) })
}

func (l *fakeLoader) Dispatch() int {
	ready := l.ready
	l.ready = nil
	for _, fn := range ready {
		fn()
	}
	return len(ready)
}

func newTestViewer(t *testing.T, width, height int) (*Viewer, *fakeRenderer, *fakeLoader) {
	t.Helper()
	r := &fakeRenderer{}
	l := &fakeLoader{}
	v, err := New(config.Default(), r, l, width, height)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.viewer = v
	return v, r, l
}

func meshNode(name string) *scenegraph.Node {
	n := scenegraph.NewNode(name)
	n.Mesh = &scenegraph.Mesh{
		Vertices: []scenegraph.Vertex{{}, {}, {}},
		Indices:  []uint32{0, 1, 2},
	}
	n.Material = scenegraph.NewStandardMaterial("default")
	return n
}

// matchaModel mimics the asset: a group holding a plate and the target curve.
func matchaModel() *scenegraph.Node {
	root := scenegraph.NewNode("Scene")
	cup := scenegraph.NewNode("Cup")
	cup.Add(meshNode("Plate"))
	cup.Add(meshNode("NurbsPath001"))
	root.Add(cup)
	return root
}

func TestSceneSetup(t *testing.T) {
	v, _, _ := newTestViewer(t, 800, 600)
	s := v.Scene()

	if s.Background.Hex() != 0x707070 {
		t.Errorf("background = %06x, want 707070", s.Background.Hex())
	}
	if s.Ambient.Intensity != 0.7 || s.Ambient.Color.Hex() != 0xffffff {
		t.Errorf("ambient = %+v", s.Ambient)
	}

	sun := s.Sun
	if sun.Intensity != 1 || !sun.CastShadow {
		t.Errorf("sun = %+v", sun)
	}
	if sun.Position != (math.Vec3{X: 2, Y: 4, Z: 2}) || sun.Target != (math.Vec3{X: 0, Y: 0.5, Z: 0}) {
		t.Errorf("sun placement = %v -> %v", sun.Position, sun.Target)
	}
	if sun.Shadow.MapSize != 2048 || sun.Shadow.Bias != -0.0005 {
		t.Errorf("shadow = %+v", sun.Shadow)
	}
	want := sunShadowCamera
	if sun.Shadow.Camera != want {
		t.Errorf("shadow camera = %+v, want %+v", sun.Shadow.Camera, want)
	}

	cam := v.Camera()
	if cam.FOV != 45 || cam.Near != 0.1 || cam.Far != 100 {
		t.Errorf("camera = fov %v near %v far %v", cam.FOV, cam.Near, cam.Far)
	}
	if cam.Position != (math.Vec3{X: -7, Y: 1, Z: 7}) {
		t.Errorf("camera position = %v", cam.Position)
	}
	if !v.Controls().EnableDamping || v.Controls().DampingFactor != 0.05 {
		t.Error("controls should be damped with factor 0.05")
	}
}

func TestStartLoadsConfiguredAsset(t *testing.T) {
	v, _, l := newTestViewer(t, 800, 600)
	v.Start()
	if want := config.Default().Scene.AssetPath(); l.path != want {
		t.Errorf("load path = %q, want %q", l.path, want)
	}
}

func TestFrameWithoutMaterialIsNoop(t *testing.T) {
	v, r, _ := newTestViewer(t, 800, 600)
	v.Start()

	if err := v.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(r.renders) != 1 {
		t.Fatalf("renders = %d, want 1", len(r.renders))
	}
	if r.renders[0].hasMaterial {
		t.Error("no material should be bound before load")
	}
}

func TestCameraUniformAfterFirstFrame(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()
	l.complete(matchaModel())

	if err := v.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if v.Material() == nil {
		t.Fatal("height material not bound")
	}
	want := math.Vec3{X: -7, Y: 1, Z: 7}
	if got := v.Material().CameraPosition(); got != want {
		t.Errorf("uCameraPosition = %v, want %v", got, want)
	}
	if got := r.renders[0].cameraUniform; got != want {
		t.Errorf("uniform seen by render = %v, want %v", got, want)
	}
}

func TestUnmovedFramesBitIdentical(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()
	l.complete(matchaModel())

	for i := 0; i < 2; i++ {
		if err := v.Frame(); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
	if r.renders[0].cameraUniform != r.renders[1].cameraUniform {
		t.Errorf("uniform drifted: %v then %v", r.renders[0].cameraUniform, r.renders[1].cameraUniform)
	}
}

func TestUniformCopiedBeforeRender(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()
	l.complete(matchaModel())
	v.Frame()

	v.Drag(50, 0)
	v.Frame()

	last := r.renders[len(r.renders)-1]
	if last.cameraUniform != v.Camera().Position {
		t.Errorf("render saw %v, camera is at %v", last.cameraUniform, v.Camera().Position)
	}
	if last.cameraUniform == (math.Vec3{X: -7, Y: 1, Z: 7}) {
		t.Error("camera should have moved after a drag")
	}
}

func TestMaterialBinding(t *testing.T) {
	v, _, l := newTestViewer(t, 800, 600)
	v.Start()
	model := matchaModel()
	l.complete(model)
	v.Frame()

	target := v.Target()
	if target == nil || target.Name != "NurbsPath001" {
		t.Fatalf("target = %v", target)
	}
	if _, ok := target.Material.(*shading.HeightMaterial); !ok {
		t.Errorf("target material = %T", target.Material)
	}
	if !target.CastShadow || !target.ReceiveShadow {
		t.Error("target should cast and receive shadows")
	}
	if v.Model() != model || model.Parent != v.Scene().Root {
		t.Error("model should be attached to the scene root")
	}

	plate := model.Find(scenegraph.MeshNamed("Plate"))
	if _, ok := plate.Material.(*scenegraph.StandardMaterial); !ok {
		t.Errorf("other nodes keep their material, got %T", plate.Material)
	}

	p, err := v.Material().Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.TopColor.Hex() != 0xf0f0e9 || p.BottomColor.Hex() != 0x88b04b {
		t.Errorf("colors = %06x / %06x", p.TopColor.Hex(), p.BottomColor.Hex())
	}
	if p.MinHeight != 0 || p.MaxHeight != 1.5 {
		t.Errorf("height range = [%v, %v]", p.MinHeight, p.MaxHeight)
	}
	if p.LightDirection != (math.Vec3{X: 2, Y: 4, Z: 2}).Normalize() {
		t.Errorf("light direction = %v", p.LightDirection)
	}
}

func TestFirstMatchWins(t *testing.T) {
	v, _, l := newTestViewer(t, 800, 600)
	v.Start()

	root := scenegraph.NewNode("Scene")
	first := meshNode("NurbsPath001")
	second := meshNode("NurbsPath001")
	group := scenegraph.NewNode("Group")
	group.Add(first)
	root.Add(group)
	root.Add(second)
	l.complete(root)
	v.Frame()

	if v.Target() != first {
		t.Error("the first node in depth-first order should be bound")
	}
	if _, ok := second.Material.(*scenegraph.StandardMaterial); !ok {
		t.Error("only one node receives the height material")
	}
}

func TestMissingTargetIsSilent(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()

	root := scenegraph.NewNode("Scene")
	root.Add(meshNode("Plate"))
	// A group with the right name is not a mesh
	root.Add(scenegraph.NewNode("NurbsPath001"))
	l.complete(root)

	if err := v.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if v.Material() != nil || v.Target() != nil {
		t.Error("no material should be bound")
	}
	if v.Model() != root {
		t.Error("model should still be added to the scene")
	}
	if len(r.renders) != 1 || r.renders[0].hasMaterial {
		t.Error("scene should render with default materials")
	}
}

func TestLoadErrorKeepsRendering(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()
	boom := errors.New("missing asset")
	l.fail(boom)

	for i := 0; i < 2; i++ {
		if err := v.Frame(); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
	if !errors.Is(v.LoadError(), boom) {
		t.Errorf("LoadError = %v", v.LoadError())
	}
	if len(r.renders) != 2 {
		t.Errorf("renders = %d, want 2", len(r.renders))
	}
	if len(v.Scene().Root.Children) != 0 {
		t.Error("scene should hold no model after a failed load")
	}
}

func TestResize(t *testing.T) {
	v, r, _ := newTestViewer(t, 800, 600)

	if !v.Resize(1920, 1080) {
		t.Fatal("Resize reported no change")
	}
	if want := float32(1920) / float32(1080); v.Camera().Aspect != want {
		t.Errorf("aspect = %v, want %v", v.Camera().Aspect, want)
	}
	if r.width != 1920 || r.height != 1080 {
		t.Errorf("renderer size = %dx%d", r.width, r.height)
	}
	wantProj := math.Perspective(math.Radians(45), float32(1920)/float32(1080), 0.1, 100)
	if v.Camera().ProjectionMatrix() != wantProj {
		t.Error("projection not updated")
	}

	v.Frame()
	last := r.renders[len(r.renders)-1]
	if last.width != 1920 || last.height != 1080 || last.aspect != float32(1920)/float32(1080) {
		t.Errorf("next frame rendered with %+v", last)
	}
}

func TestResizeIdempotent(t *testing.T) {
	v, r, _ := newTestViewer(t, 800, 600)
	v.Resize(1920, 1080)
	calls := r.sizeCalls
	proj := v.Camera().ProjectionMatrix()

	if v.Resize(1920, 1080) {
		t.Error("second identical Resize reported a change")
	}
	if r.sizeCalls != calls {
		t.Errorf("SetSize called again: %d -> %d", calls, r.sizeCalls)
	}
	if v.Camera().ProjectionMatrix() != proj {
		t.Error("projection changed on repeated resize")
	}
}

func TestResizeIgnoresZero(t *testing.T) {
	v, r, _ := newTestViewer(t, 800, 600)
	calls := r.sizeCalls
	if v.Resize(0, 0) {
		t.Error("zero size should be ignored")
	}
	if w, h := v.Size(); w != 800 || h != 600 || r.sizeCalls != calls {
		t.Errorf("size changed to %dx%d", w, h)
	}
}

func TestNewRejectsDegenerateHeights(t *testing.T) {
	cfg := config.Default()
	cfg.Shader.MaxHeight = cfg.Shader.MinHeight
	if _, err := New(cfg, &fakeRenderer{}, &fakeLoader{}, 800, 600); err == nil {
		t.Error("expected error for equal height bounds")
	}
}

func TestRenderErrorPropagates(t *testing.T) {
	v, r, _ := newTestViewer(t, 800, 600)
	r.err = errors.New("context lost")
	if err := v.Frame(); !errors.Is(err, r.err) {
		t.Errorf("Frame err = %v", err)
	}
}

func TestOpenReplacesModel(t *testing.T) {
	v, r, l := newTestViewer(t, 800, 600)
	v.Start()
	first := matchaModel()
	l.complete(first)
	v.Frame()

	v.Open("other.glb")
	if l.path != "other.glb" {
		t.Errorf("load path = %q", l.path)
	}
	// Old model keeps rendering until the new one arrives
	if v.Model() != first || v.Material() == nil {
		t.Fatal("previous model should stay until the load completes")
	}

	second := scenegraph.NewNode("Other")
	second.Add(meshNode("Teapot"))
	l.complete(second)
	v.Frame()

	if v.Model() != second {
		t.Error("model not replaced")
	}
	if first.Parent != nil {
		t.Error("previous model should be detached")
	}
	if len(v.Scene().Root.Children) != 1 {
		t.Errorf("scene root has %d children, want 1", len(v.Scene().Root.Children))
	}
	if v.Material() != nil || v.Target() != nil {
		t.Error("material binding should be cleared when the new model has no target")
	}
	if len(r.released) != 1 || r.released[0] != first {
		t.Errorf("released = %v, want the previous model", r.released)
	}
}

func TestLatestOpenWinsOverSlowerLoad(t *testing.T) {
	startup := config.Default().Scene.AssetPath()
	release := make(chan struct{})
	l := loader.NewWithDecoder(func(path string) (*scenegraph.Node, error) {
		if path == startup {
			<-release
		}
		root := scenegraph.NewNode(path)
		root.Add(meshNode("NurbsPath001"))
		return root, nil
	})
	r := &fakeRenderer{}
	v, err := New(config.Default(), r, l, 800, 600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.viewer = v

	v.Start()
	v.Open("picked.glb")

	deadline := time.Now().Add(5 * time.Second)
	for v.Model() == nil {
		if time.Now().After(deadline) {
			close(release)
			t.Fatal("picked model never arrived")
		}
		time.Sleep(time.Millisecond)
		if err := v.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	picked := v.Model()

	close(release)
	l.Wait()
	if err := v.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if v.Model() != picked || picked.Name != "picked.glb" {
		t.Errorf("model = %q, want picked.glb", v.Model().Name)
	}
	if v.ModelPath() != "picked.glb" {
		t.Errorf("model path = %q", v.ModelPath())
	}
	if v.Target() == nil || v.Target().Parent != picked {
		t.Error("material should stay bound to the picked model")
	}
	if len(v.Scene().Root.Children) != 1 {
		t.Errorf("scene root has %d children, want 1", len(v.Scene().Root.Children))
	}
}

func TestStaleLoadErrorIgnored(t *testing.T) {
	v, _, l := newTestViewer(t, 800, 600)
	v.Start()
	stale := l.onError
	v.Open("other.glb")
	l.complete(matchaModel())
	v.Frame()

	stale(errors.New("startup asset missing"))
	if v.LoadError() != nil {
		t.Errorf("LoadError = %v, want nil for a superseded load", v.LoadError())
	}
	if v.ModelPath() != "other.glb" {
		t.Errorf("model path = %q", v.ModelPath())
	}
}
