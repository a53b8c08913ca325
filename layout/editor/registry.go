package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/internal/observability"
	"github.com/gekko3d/siteplan/layout/assets"
	"github.com/gekko3d/siteplan/layout/catalog"
	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
	"github.com/gekko3d/siteplan/layout/ground"
)

var (
	ErrUnknownInstance    = errors.New("instance is not in the scene")
	ErrPlacementCancelled = errors.New("placement cancelled")
	ErrRegistryClosed     = errors.New("registry is closed")
)

// DuplicateOffset is added to X and Z of a duplicated instance.
const DuplicateOffset float32 = 30

type Options struct {
	Catalog  *catalog.Catalog
	Loader   assets.Loader
	// Scene receives instance nodes and handles. A new scene is used when nil.
	Scene    *core.Scene
	GroundY  float32
	Logger   core.Logger
	Metrics  *observability.PlacementMetrics
	// OnRedraw runs after registry mutations and handle changes. It is never
	// called with the registry locked.
	OnRedraw func()
}

// Registry tracks placed instances and their handles. Instances and handles
// are parallel slices in creation order; at most one instance is selected.
//
// Loading an asset is the only step that runs off the caller's goroutine.
// Completions take the registry lock, so mutations apply in the order loads
// finish. RemoveAll and Cancel suppress placements still in flight.
type Registry struct {
	catalog *catalog.Catalog
	loader  assets.Loader
	scene   *core.Scene
	groundY float32
	log     core.Logger
	metrics *observability.PlacementMetrics
	redraw  func()

	mu        sync.Mutex
	instances []*Instance
	handles   []*core.Handle
	selected  *Instance
	mode      core.HandleMode
	snapping  bool
	pending   map[uuid.UUID]*Task
	epoch     uint64
	closed    bool

	mutating      atomic.Bool
	redrawPending atomic.Bool
	inflight      sync.WaitGroup
}

func NewRegistry(opts Options) (*Registry, error) {
	if opts.Loader == nil {
		return nil, errors.New("registry needs an asset loader")
	}
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.New(catalog.Builtins()...); err != nil {
			return nil, err
		}
	}
	scene := opts.Scene
	if scene == nil {
		scene = core.NewScene()
	}
	return &Registry{
		catalog: cat,
		loader:  opts.Loader,
		scene:   scene,
		groundY: opts.GroundY,
		log:     core.LoggerOrNop(opts.Logger),
		metrics: opts.Metrics,
		redraw:  opts.OnRedraw,
		mode:    core.HandleTranslate,
		pending: make(map[uuid.UUID]*Task),
	}, nil
}

func (r *Registry) lock() {
	r.mu.Lock()
	r.mutating.Store(true)
}

func (r *Registry) unlock() {
	r.mutating.Store(false)
	r.mu.Unlock()
	if r.redrawPending.Swap(false) {
		r.fireRedraw()
	}
}

// requestRedraw defers to unlock while a mutation is in progress.
func (r *Registry) requestRedraw() {
	r.redrawPending.Store(true)
	if !r.mutating.Load() && r.redrawPending.Swap(false) {
		r.fireRedraw()
	}
}

func (r *Registry) fireRedraw() {
	if r.redraw != nil {
		r.redraw()
	}
}

func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }
func (r *Registry) Scene() *core.Scene        { return r.scene }
func (r *Registry) GroundY() float32          { return r.groundY }

type placement struct {
	op         string
	template   catalog.Template
	base       string
	position   mgl32.Vec3
	rotation   mgl32.Quat
	multiplier float32
}

// Place loads the template's asset and adds an instance at point once the
// load completes. The point's Y is ignored; the model is aligned to ground.
func (r *Registry) Place(ctx context.Context, templateName string, point mgl32.Vec3) *Task {
	tpl, err := r.catalog.Lookup(templateName)
	if err != nil {
		return r.reject(observability.OpPlace, templateName, err)
	}
	return r.start(ctx, placement{
		op:         observability.OpPlace,
		template:   tpl,
		base:       tpl.Name(),
		position:   point,
		rotation:   mgl32.QuatIdent(),
		multiplier: tpl.InitialMultiplier(),
	})
}

// Duplicate re-instantiates the source's template next to it, keeping its
// rotation and multiplier.
func (r *Registry) Duplicate(ctx context.Context, src *Instance) *Task {
	r.lock()
	if r.indexOf(src) < 0 {
		r.unlock()
		return r.reject(observability.OpDuplicate, "", errors.Wrapf(ErrUnknownInstance, "duplicate %v", src))
	}
	p := placement{
		op:         observability.OpDuplicate,
		template:   src.Template,
		base:       src.base,
		position:   src.Node.Transform.Position.Add(mgl32.Vec3{DuplicateOffset, 0, DuplicateOffset}),
		rotation:   src.Node.Transform.Rotation,
		multiplier: src.multiplier,
	}
	r.unlock()
	return r.start(ctx, p)
}

// reject fails a request before any load starts.
func (r *Registry) reject(op, template string, err error) *Task {
	r.metrics.ObservePlacement(op, observability.ResultRejected)
	r.log.Warnf("%s %q rejected: %v", op, template, err)
	return failedTask(op, template, err)
}

func (r *Registry) start(ctx context.Context, p placement) *Task {
	r.lock()
	if r.closed {
		r.unlock()
		return r.reject(p.op, p.template.Name(), ErrRegistryClosed)
	}
	ctx, cancel := context.WithCancel(ctx)
	t := newTask(p.op, p.template.Name(), cancel)
	r.pending[t.ID] = t
	epoch := r.epoch
	r.inflight.Add(1)
	r.unlock()

	r.log.Debugf("%s %q: request %s loading %s", p.op, p.template.Name(), t.ID, p.template.AssetRef())
	go r.run(ctx, t, p, epoch)
	return t
}

func (r *Registry) run(ctx context.Context, t *Task, p placement, epoch uint64) {
	defer r.inflight.Done()

	ctx, span := observability.StartSpan(ctx, "siteplan."+p.op,
		observability.AttrOp.String(p.op),
		observability.AttrTemplate.String(p.template.Name()),
		observability.AttrRequestID.String(t.ID.String()),
		observability.AttrAssetRef.String(p.template.AssetRef()),
	)

	start := time.Now()
	node, err := r.loader.Load(ctx, p.template.AssetRef())
	r.metrics.ObserveLoad(p.op, time.Since(start))

	inst, err := r.complete(ctx, t, p, epoch, node, err)
	observability.EndSpan(span, err)
	t.finish(inst, err)
}

func (r *Registry) complete(ctx context.Context, t *Task, p placement, epoch uint64, node *core.Node, loadErr error) (*Instance, error) {
	r.lock()
	defer r.unlock()

	_, pending := r.pending[t.ID]
	delete(r.pending, t.ID)

	var reason string
	switch {
	case !pending || ctx.Err() != nil:
		reason = "request cancelled"
	case epoch != r.epoch:
		reason = "scene cleared"
	default:
		if cur, err := r.catalog.Lookup(p.template.Name()); err != nil || cur != p.template {
			reason = "template removed"
		}
	}
	if reason != "" {
		if node != nil {
			r.discard(node)
		}
		r.metrics.ObservePlacement(p.op, observability.ResultCancelled)
		r.log.Debugf("%s %q: request %s discarded: %s", p.op, p.template.Name(), t.ID, reason)
		return nil, errors.Wrap(ErrPlacementCancelled, reason)
	}

	if loadErr == nil && node == nil {
		loadErr = &assets.LoadError{Ref: p.template.AssetRef(), Err: errors.New("loader returned no model")}
	}
	if loadErr != nil {
		if node != nil {
			r.discard(node)
		}
		r.metrics.ObservePlacement(p.op, observability.ResultFailed)
		r.log.Errorf("%s %q: %v", p.op, p.template.Name(), loadErr)
		return nil, loadErr
	}

	inst := &Instance{
		ID:         uuid.New(),
		Name:       nextName(p.base, r.instances),
		Template:   p.template,
		Node:       node,
		base:       p.base,
		multiplier: dims.ClampMultiplier(p.multiplier),
	}
	node.Name = inst.Name

	tr := node.Transform
	tr.SetPosition(mgl32.Vec3{p.position.X(), 0, p.position.Z()})
	tr.SetRotation(p.rotation)
	ground.ScaleAndAlign(node, p.template.Scale(inst.multiplier), r.groundY, r.log)

	h := core.NewHandle()
	r.applySnap(h)
	h.Attach(node)
	h.OnChange(func(*core.Handle) { r.requestRedraw() })
	inst.Handle = h

	r.instances = append(r.instances, inst)
	r.handles = append(r.handles, h)
	r.scene.AddObject(node)
	r.scene.AddHandle(h)
	r.selectLocked(inst)

	r.metrics.ObservePlacement(p.op, observability.ResultOK)
	r.metrics.SetInstances(len(r.instances))
	pos := tr.Position
	r.log.Infof("%s %q as %q at (%.1f, %.1f, %.1f)", p.op, p.template.Name(), inst.Name, pos.X(), pos.Y(), pos.Z())
	r.requestRedraw()
	return inst, nil
}

func (r *Registry) discard(node *core.Node) {
	if err := node.Dispose(); err != nil {
		r.log.Warnf("discarding %q: %v", node.Name, err)
	}
}

// Cancel suppresses a pending placement. It reports false when the request
// is unknown or already complete.
func (r *Registry) Cancel(id uuid.UUID) bool {
	r.lock()
	defer r.unlock()
	t, ok := r.pending[id]
	if !ok {
		return false
	}
	delete(r.pending, id)
	t.Cancel()
	return true
}

func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Wait blocks until every in-flight load has completed.
func (r *Registry) Wait() {
	r.inflight.Wait()
}

func (r *Registry) indexOf(inst *Instance) int {
	if inst == nil {
		return -1
	}
	for i, in := range r.instances {
		if in == inst {
			return i
		}
	}
	return -1
}

// detachLocked drops the instance at i from every collection.
func (r *Registry) detachLocked(i int) *Instance {
	inst := r.instances[i]
	r.instances = append(r.instances[:i], r.instances[i+1:]...)
	r.handles = append(r.handles[:i], r.handles[i+1:]...)
	r.scene.RemoveObject(inst.Node)
	r.scene.RemoveHandle(inst.Handle)
	inst.Handle.Detach()
	if r.selected == inst {
		r.selected = nil
	}
	return inst
}

func disposeInstance(inst *Instance) error {
	inst.Handle.Dispose()
	return inst.Node.Dispose()
}

// Remove deletes the instance. It is gone from the registry even when
// releasing its meshes fails; that failure is returned.
func (r *Registry) Remove(inst *Instance) error {
	r.lock()
	i := r.indexOf(inst)
	if i < 0 {
		r.unlock()
		return errors.Wrapf(ErrUnknownInstance, "remove %v", inst)
	}
	r.detachLocked(i)
	r.metrics.SetInstances(len(r.instances))
	r.requestRedraw()
	r.unlock()

	r.log.Infof("removed %q", inst.Name)
	if err := disposeInstance(inst); err != nil {
		r.log.Warnf("remove %q: %v", inst.Name, err)
		return err
	}
	return nil
}

// RemoveAll clears the scene and cancels pending placements. Every instance
// is released even if some fail; the first failure is returned.
func (r *Registry) RemoveAll() error {
	r.lock()
	removed := r.instances
	r.instances = nil
	r.handles = nil
	r.selected = nil
	for id, t := range r.pending {
		t.Cancel()
		delete(r.pending, id)
	}
	r.epoch++
	for _, inst := range removed {
		r.scene.RemoveObject(inst.Node)
		r.scene.RemoveHandle(inst.Handle)
		inst.Handle.Detach()
	}
	r.metrics.SetInstances(0)
	r.requestRedraw()
	r.unlock()

	return r.disposeAll(removed)
}

func (r *Registry) disposeAll(removed []*Instance) error {
	var first error
	failed := 0
	for _, inst := range removed {
		if err := disposeInstance(inst); err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		r.log.Warnf("%d of %d instances failed to release", failed, len(removed))
		return errors.Wrapf(first, "%d of %d instances failed to release", failed, len(removed))
	}
	return nil
}

// Close refuses new placements, cancels in-flight ones, waits for them and
// clears the scene. Calling it again only clears the scene.
func (r *Registry) Close() error {
	r.lock()
	r.closed = true
	for _, t := range r.pending {
		t.Cancel()
	}
	r.unlock()
	r.Wait()
	return r.RemoveAll()
}

func (r *Registry) Instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Instance, len(r.instances))
	copy(out, r.instances)
	return out
}

func (r *Registry) Handles() []*core.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*core.Handle, len(r.handles))
	copy(out, r.handles)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// SetPosition moves the instance to p exactly, Y included. Use Realign to
// put it back on the ground.
func (r *Registry) SetPosition(inst *Instance, p mgl32.Vec3) error {
	r.lock()
	defer r.unlock()
	if r.indexOf(inst) < 0 {
		return errors.Wrapf(ErrUnknownInstance, "move %v", inst)
	}
	inst.Node.Transform.SetPosition(p)
	inst.Node.UpdateWorldMatrix()
	r.log.Debugf("move %q to (%.1f, %.1f, %.1f)", inst.Name, p.X(), p.Y(), p.Z())
	r.requestRedraw()
	return nil
}

// Find returns the instance with the given display name.
func (r *Registry) Find(name string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
		if inst.Name == name {
			return inst
		}
	}
	return nil
}

// SetScaleMultiplier clamps m, rescales the instance and realigns it to the
// ground. The applied multiplier is returned.
func (r *Registry) SetScaleMultiplier(inst *Instance, m float32) (float32, error) {
	m = dims.ClampMultiplier(m)

	r.lock()
	defer r.unlock()
	if r.indexOf(inst) < 0 {
		return 0, errors.Wrapf(ErrUnknownInstance, "scale %v", inst)
	}
	inst.multiplier = m
	ground.ScaleAndAlign(inst.Node, inst.Template.Scale(m), r.groundY, r.log)
	r.log.Debugf("scale %q x%.2f", inst.Name, m)
	r.requestRedraw()
	return m, nil
}

// Realign pins the instance back onto the ground after external edits.
func (r *Registry) Realign(inst *Instance) error {
	r.lock()
	defer r.unlock()
	if r.indexOf(inst) < 0 {
		return errors.Wrapf(ErrUnknownInstance, "realign %v", inst)
	}
	ground.Align(inst.Node, r.groundY, r.log)
	r.requestRedraw()
	return nil
}

// RegisterTemplate adds a template to the catalog.
func (r *Registry) RegisterTemplate(t catalog.Template) error {
	if err := r.catalog.Register(t); err != nil {
		return err
	}
	r.log.Infof("registered template %q", t.Name())
	return nil
}

// UnregisterTemplate removes a template and every instance of it. Pending
// placements of the template are discarded when they complete.
func (r *Registry) UnregisterTemplate(name string) (int, error) {
	r.lock()
	tpl, err := r.catalog.Unregister(name)
	if err != nil {
		r.unlock()
		return 0, err
	}
	var removed []*Instance
	for i := len(r.instances) - 1; i >= 0; i-- {
		if r.instances[i].Template == tpl {
			removed = append(removed, r.detachLocked(i))
		}
	}
	r.metrics.SetInstances(len(r.instances))
	if len(removed) > 0 {
		r.requestRedraw()
	}
	r.unlock()

	r.log.Infof("unregistered template %q, removed %d instances", tpl.Name(), len(removed))
	return len(removed), r.disposeAll(removed)
}
