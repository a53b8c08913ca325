package editor

import (
	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/layout/core"
)

// Select makes inst the selected instance. Selecting the instance that is
// already selected deselects it; nil deselects everything.
func (r *Registry) Select(inst *Instance) error {
	r.lock()
	defer r.unlock()
	if inst == nil {
		r.deselectLocked()
		return nil
	}
	if r.indexOf(inst) < 0 {
		return errors.Wrapf(ErrUnknownInstance, "select %v", inst)
	}
	if r.selected == inst {
		r.deselectLocked()
		return nil
	}
	r.selectLocked(inst)
	return nil
}

func (r *Registry) DeselectAll() {
	r.lock()
	defer r.unlock()
	r.deselectLocked()
}

func (r *Registry) Selected() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

func (r *Registry) selectLocked(inst *Instance) {
	if r.selected != nil && r.selected != inst {
		r.selected.Handle.SetActive(false)
	}
	r.selected = inst
	inst.Handle.SetMode(r.mode)
	inst.Handle.SetActive(true)
	r.requestRedraw()
}

func (r *Registry) deselectLocked() {
	for _, h := range r.handles {
		h.SetActive(false)
	}
	if r.selected != nil {
		r.requestRedraw()
	}
	r.selected = nil
}

// Mode is the transform mode applied to the next selected handle.
func (r *Registry) Mode() core.HandleMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetTransformMode switches the selected handle, and every later selection,
// to mode.
func (r *Registry) SetTransformMode(mode core.HandleMode) {
	r.lock()
	defer r.unlock()
	r.mode = mode
	if r.selected != nil {
		r.selected.Handle.SetMode(mode)
	}
}

// SetSnapping turns grid snapping on or off for every handle, current and
// future: translation lands on multiples of core.DefaultTranslateSnap and
// rotation turns in core.DefaultRotateSnap steps.
func (r *Registry) SetSnapping(on bool) {
	r.lock()
	defer r.unlock()
	r.snapping = on
	for _, h := range r.handles {
		r.applySnap(h)
	}
}

func (r *Registry) applySnap(h *core.Handle) {
	if r.snapping {
		h.SetSnap(core.DefaultTranslateSnap, core.DefaultRotateSnap)
	} else {
		h.SetSnap(0, 0)
	}
}

// StepHandleSize grows or shrinks the selected handle. It returns the new
// size, or false when nothing is selected.
func (r *Registry) StepHandleSize(delta float32) (float32, bool) {
	r.lock()
	defer r.unlock()
	if r.selected == nil {
		return 0, false
	}
	return r.selected.Handle.StepSize(delta), true
}

// Pick returns the instance owning the nearest geometry hit by ray. Hits on
// nested meshes resolve to the instance whose root node contains them.
func (r *Registry) Pick(ray core.Ray) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pickLocked(ray)
}

func (r *Registry) pickLocked(ray core.Ray) *Instance {
	if len(r.instances) == 0 {
		return nil
	}
	owners := make(map[*core.Node]*Instance, len(r.instances))
	roots := make([]*core.Node, len(r.instances))
	for i, inst := range r.instances {
		owners[inst.Node] = inst
		roots[i] = inst.Node
	}
	for _, hit := range core.IntersectNodes(ray, roots) {
		for n := hit.Node; n != nil; n = n.Parent {
			if inst, ok := owners[n]; ok {
				return inst
			}
		}
	}
	return nil
}

// Click applies pointer-click semantics: a hit on the selected instance
// deselects it, a hit on another instance selects that one, and a miss
// deselects everything. It returns the resulting selection.
func (r *Registry) Click(ray core.Ray) *Instance {
	r.lock()
	defer r.unlock()
	hit := r.pickLocked(ray)
	switch {
	case hit == nil, hit == r.selected:
		r.deselectLocked()
	default:
		r.selectLocked(hit)
	}
	return r.selected
}
