package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type HandleMode int

const (
	HandleTranslate HandleMode = iota
	HandleRotate
)

func (m HandleMode) String() string {
	switch m {
	case HandleTranslate:
		return "translate"
	case HandleRotate:
		return "rotate"
	}
	return "unknown"
}

const (
	DefaultHandleSize = 0.8
	MinHandleSize     = 0.1

	// Snap steps used while snapping is held on.
	DefaultTranslateSnap float32 = 100
	DefaultRotateSnap    float32 = 15 * math.Pi / 180
)

// Handle is a manipulation gizmo attached to at most one node. Translate
// mode moves along the ground (X/Z), rotate mode spins about Y.
type Handle struct {
	ID      uuid.UUID
	Mode    HandleMode
	ShowX   bool
	ShowY   bool
	ShowZ   bool
	Visible bool
	Enabled bool
	Size    float32

	// Zero disables snapping on that mode.
	TranslateSnap float32
	RotateSnap    float32

	target    *Node
	listeners []func(*Handle)
	disposed  bool
}

// NewHandle returns a hidden, disabled handle in translate mode.
func NewHandle() *Handle {
	h := &Handle{
		ID:   uuid.New(),
		Size: DefaultHandleSize,
	}
	h.applyMode(HandleTranslate)
	return h
}

func (h *Handle) Attach(n *Node) {
	h.target = n
	h.notify()
}

func (h *Handle) Detach() {
	h.target = nil
}

func (h *Handle) Target() *Node {
	return h.target
}

func (h *Handle) SetMode(mode HandleMode) {
	h.applyMode(mode)
	h.notify()
}

func (h *Handle) applyMode(mode HandleMode) {
	h.Mode = mode
	switch mode {
	case HandleRotate:
		h.ShowX, h.ShowY, h.ShowZ = false, true, false
	default:
		h.ShowX, h.ShowY, h.ShowZ = true, false, true
	}
}

// SetActive shows and enables the handle, or hides and disables it.
func (h *Handle) SetActive(active bool) {
	if h.Visible == active && h.Enabled == active {
		return
	}
	h.Visible = active
	h.Enabled = active
	h.notify()
}

// SetSnap sets the translate step in world units and the rotate step in
// radians. Zero turns snapping off.
func (h *Handle) SetSnap(translate, rotate float32) {
	h.TranslateSnap = max(translate, 0)
	h.RotateSnap = max(rotate, 0)
}

// StepSize grows or shrinks the handle by delta, never below MinHandleSize.
func (h *Handle) StepSize(delta float32) float32 {
	size := max(h.Size+delta, MinHandleSize)
	if size != h.Size {
		h.Size = size
		h.notify()
	}
	return h.Size
}

func snap(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return float32(math.Round(float64(v/step))) * step
}

// OnChange registers fn to run whenever the handle or its target moves.
func (h *Handle) OnChange(fn func(*Handle)) {
	h.listeners = append(h.listeners, fn)
}

func (h *Handle) notify() {
	for _, fn := range h.listeners {
		fn(h)
	}
}

// Translate moves the target by delta, restricted to the visible axes.
// Returns false when the handle is disabled, detached or not in translate mode.
func (h *Handle) Translate(delta mgl32.Vec3) bool {
	if !h.Enabled || h.target == nil || h.Mode != HandleTranslate {
		return false
	}
	if !h.ShowX {
		delta[0] = 0
	}
	if !h.ShowY {
		delta[1] = 0
	}
	if !h.ShowZ {
		delta[2] = 0
	}
	tr := h.target.Transform
	p := tr.Position.Add(delta)
	// Snapping lands moved axes on the grid rather than stepping the delta.
	for i, show := range [3]bool{h.ShowX, h.ShowY, h.ShowZ} {
		if show {
			p[i] = snap(p[i], h.TranslateSnap)
		}
	}
	tr.SetPosition(p)
	h.target.UpdateWorldMatrix()
	h.notify()
	return true
}

// Rotate spins the target about the world Y axis by angle radians, rounded
// to the rotate snap when one is set.
func (h *Handle) Rotate(angle float32) bool {
	if !h.Enabled || h.target == nil || h.Mode != HandleRotate {
		return false
	}
	angle = snap(angle, h.RotateSnap)
	if angle == 0 {
		return true
	}
	tr := h.target.Transform
	q := mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
	tr.SetRotation(q.Mul(tr.Rotation).Normalize())
	h.target.UpdateWorldMatrix()
	h.notify()
	return true
}

func (h *Handle) Disposed() bool {
	return h.disposed
}

// Dispose detaches the handle and drops its listeners.
func (h *Handle) Dispose() {
	if h.disposed {
		return
	}
	h.disposed = true
	h.Visible = false
	h.Enabled = false
	h.target = nil
	h.listeners = nil
}
