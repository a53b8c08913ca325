package core

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/apex/log"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewHandleIsHiddenTranslate(t *testing.T) {
	h := NewHandle()
	if h.Visible || h.Enabled {
		t.Error("new handle should start hidden and disabled")
	}
	if h.Mode != HandleTranslate || !h.ShowX || h.ShowY || !h.ShowZ {
		t.Errorf("unexpected initial mode/axes: %v %v %v %v", h.Mode, h.ShowX, h.ShowY, h.ShowZ)
	}
	if h.Size != DefaultHandleSize {
		t.Errorf("expected size %v, got %v", DefaultHandleSize, h.Size)
	}
}

func TestHandleRotateModeAxes(t *testing.T) {
	h := NewHandle()
	h.SetMode(HandleRotate)
	if h.ShowX || !h.ShowY || h.ShowZ {
		t.Error("rotate mode should only show the Y axis")
	}
	h.SetMode(HandleTranslate)
	if !h.ShowX || h.ShowY || !h.ShowZ {
		t.Error("translate mode should show X and Z")
	}
}

func TestHandleTranslateStaysOnGround(t *testing.T) {
	n := NewNode("model")
	n.Transform.Position = mgl32.Vec3{0, 3, 0}
	h := NewHandle()
	h.Attach(n)

	if h.Translate(mgl32.Vec3{1, 1, 1}) {
		t.Fatal("disabled handle must not move its target")
	}

	changes := 0
	h.OnChange(func(*Handle) { changes++ })
	h.SetActive(true)
	if !h.Translate(mgl32.Vec3{5, 7, -2}) {
		t.Fatal("enabled handle should translate")
	}
	if got := n.Transform.Position; got != (mgl32.Vec3{5, 3, -2}) {
		t.Errorf("expected Y locked, got %v", got)
	}
	if changes != 2 {
		t.Errorf("expected 2 change notifications, got %d", changes)
	}
	if n.WorldMatrix().Col(3).Vec3() != n.Transform.Position {
		t.Error("translate should refresh the world matrix")
	}
}

func TestHandleRotateAboutY(t *testing.T) {
	n := NewNode("model")
	h := NewHandle()
	h.Attach(n)
	h.SetActive(true)
	h.SetMode(HandleRotate)

	if !h.Rotate(float32(math.Pi / 2)) {
		t.Fatal("rotate should succeed in rotate mode")
	}
	x := n.Transform.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
	if !closeEnough(x.Z(), -1, 1e-5) {
		t.Errorf("expected +X to rotate onto -Z, got %v", x)
	}
	if h.Translate(mgl32.Vec3{1, 0, 0}) {
		t.Error("translate must be refused in rotate mode")
	}
}

func TestHandleTranslateSnapsToGrid(t *testing.T) {
	n := NewNode("model")
	n.Transform.Position = mgl32.Vec3{10, 4, -20}
	h := NewHandle()
	h.Attach(n)
	h.SetActive(true)
	h.SetSnap(DefaultTranslateSnap, DefaultRotateSnap)

	h.Translate(mgl32.Vec3{130, 0, -40})
	if got := n.Transform.Position; got != (mgl32.Vec3{100, 4, -100}) {
		t.Errorf("expected X/Z on the 100 grid with Y untouched, got %v", got)
	}

	h.SetSnap(0, 0)
	h.Translate(mgl32.Vec3{5, 0, 5})
	if got := n.Transform.Position; got != (mgl32.Vec3{105, 4, -95}) {
		t.Errorf("expected free movement with snapping off, got %v", got)
	}
}

func TestHandleRotateSnapsToStep(t *testing.T) {
	n := NewNode("model")
	h := NewHandle()
	h.Attach(n)
	h.SetActive(true)
	h.SetMode(HandleRotate)
	h.SetSnap(DefaultTranslateSnap, DefaultRotateSnap)

	changes := 0
	h.OnChange(func(*Handle) { changes++ })
	h.Rotate(float32(5 * math.Pi / 180))
	if n.Transform.Rotation != mgl32.QuatIdent() || changes != 0 {
		t.Error("a turn under half a step should not rotate")
	}

	h.Rotate(float32(40 * math.Pi / 180))
	want := mgl32.QuatRotate(float32(45*math.Pi/180), mgl32.Vec3{0, 1, 0})
	if !n.Transform.Rotation.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("expected 45 degree turn, got %v", n.Transform.Rotation)
	}
	if changes != 1 {
		t.Errorf("expected 1 change notification, got %d", changes)
	}
}

func TestHandleStepSize(t *testing.T) {
	h := NewHandle()
	if got := h.StepSize(0.1); !closeEnough(got, 0.9, 1e-6) {
		t.Errorf("expected 0.9, got %v", got)
	}
	for i := 0; i < 20; i++ {
		h.StepSize(-0.1)
	}
	if h.Size != MinHandleSize {
		t.Errorf("size should stop at %v, got %v", MinHandleSize, h.Size)
	}
}

func TestHandleShapes(t *testing.T) {
	n := NewNode("model")
	n.AddMesh(NewMesh("cube", unitCube()))
	n.UpdateWorldMatrix()

	h := NewHandle()
	h.Attach(n)
	if len(h.Shapes()) != 0 {
		t.Error("hidden handle should draw nothing")
	}

	h.SetActive(true)
	shapes := h.Shapes()
	// X line, Z line, bounds cube
	if len(shapes) != 3 {
		t.Fatalf("expected 3 shapes, got %d", len(shapes))
	}
	if shapes[0].Type != GizmoLine || shapes[2].Type != GizmoCube {
		t.Errorf("unexpected shape types %v %v", shapes[0].Type, shapes[2].Type)
	}

	h.SetMode(HandleRotate)
	shapes = h.Shapes()
	if len(shapes) != 2 || shapes[0].Type != GizmoCircle {
		t.Errorf("rotate mode should draw one ring plus bounds, got %d shapes", len(shapes))
	}
}

func TestHandleDispose(t *testing.T) {
	h := NewHandle()
	h.Attach(NewNode("model"))
	h.SetActive(true)
	h.Dispose()
	if h.Target() != nil || h.Visible || h.Enabled || !h.Disposed() {
		t.Error("dispose should detach and hide the handle")
	}
}

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "registry", false)

	l.Debugf("hidden %d", 1)
	l.Warnf("bounding box empty for %s", "Silo")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug output should be suppressed")
	}
	if !strings.Contains(buf.String(), "bounding box empty for Silo") {
		t.Errorf("warning missing from output: %q", buf.String())
	}

	l.SetDebug(true)
	l.Debugf("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Error("debug output should appear once enabled")
	}
}

func TestDefaultLoggerToggleWhileLogging(t *testing.T) {
	var buf syncBuffer
	l := NewLogger(&buf, "registry", false)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Infof("load %d.%d", i, j)
				l.Debugf("detail %d.%d", i, j)
			}
		}(i)
	}
	for j := 0; j < 50; j++ {
		l.SetDebug(j%2 == 0)
	}
	wg.Wait()

	l.SetDebug(false)
	if l.out.Level != log.DebugLevel {
		t.Errorf("backend level must stay at debug, got %v", l.out.Level)
	}
	if !strings.Contains(buf.String(), "load 3.49") {
		t.Error("info output missing")
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
