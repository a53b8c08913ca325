// Package siteplan places equipment models on a facility ground map.
//
// A Workspace owns everything a session needs: the ground map, the camera
// used to turn screen positions into rays, the template catalog and the
// registry of placed instances.
package siteplan

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/internal/observability"
	"github.com/gekko3d/siteplan/layout/assets"
	"github.com/gekko3d/siteplan/layout/catalog"
	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
	"github.com/gekko3d/siteplan/layout/editor"
	"github.com/gekko3d/siteplan/layout/groundmap"
)

var (
	ErrMissedGround = errors.New("point is not on the ground map")
	ErrNotImported  = errors.New("only imported templates can be deleted")
)

type WorkspaceOptions struct {
	// Loader overrides the glTF loader built from the config.
	Loader   assets.Loader
	Logger   core.Logger
	Metrics  *observability.PlacementMetrics
	OnRedraw func()
}

type Workspace struct {
	Config   Config
	Map      *groundmap.GroundMap
	Camera   *core.Camera
	Registry *editor.Registry

	log      core.Logger
	importer *catalog.Importer
}

func NewWorkspace(cfg Config, opts WorkspaceOptions) (*Workspace, error) {
	log := opts.Logger
	if log == nil {
		log = core.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)
	}

	gm, err := groundmap.Load(cfg.Ground)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.FromConfig(cfg.Templates)
	if err != nil {
		return nil, err
	}

	loader := opts.Loader
	if loader == nil {
		loader = assets.NewGLTFLoader(assets.GLTFLoaderOptions{
			HTTPTimeout: cfg.Assets.HTTPTimeout,
			HTTPRetries: cfg.Assets.HTTPRetries,
			Logger:      log,
		})
	}
	loader = resolveRefs(loader, cfg.Assets.BaseDir)

	reg, err := editor.NewRegistry(editor.Options{
		Catalog:  cat,
		Loader:   loader,
		GroundY:  gm.Y,
		Logger:   log,
		Metrics:  opts.Metrics,
		OnRedraw: opts.OnRedraw,
	})
	if err != nil {
		return nil, err
	}

	cam, err := newCamera(cfg.Camera)
	if err != nil {
		return nil, err
	}

	w, d := gm.Extent()
	log.Debugf("ground map %dx%d px, %.0f x %.0f units, %.4f m/px", gm.WidthPx, gm.HeightPx, w, d, gm.MetersPerPixel)
	return &Workspace{
		Config:   cfg,
		Map:      gm,
		Camera:   cam,
		Registry: reg,
		log:      log,
		importer: &catalog.Importer{Loader: loader, Logger: log},
	}, nil
}

func newCamera(cfg CameraConfig) (*core.Camera, error) {
	cam := core.NewCamera()
	if cfg.Fov > 0 {
		cam.FovY = cfg.Fov
	}
	if cfg.Near > 0 {
		cam.Near = cfg.Near
	}
	if cfg.Far > cam.Near {
		cam.Far = cfg.Far
	}
	if cfg.Aspect > 0 {
		cam.Aspect = cfg.Aspect
	}
	if len(cfg.Position) > 0 {
		if len(cfg.Position) != 3 {
			return nil, errors.Errorf("camera position needs 3 values, got %d", len(cfg.Position))
		}
		cam.Position = mgl32.Vec3{cfg.Position[0], cfg.Position[1], cfg.Position[2]}
	}
	return cam, nil
}

// resolveRefs joins relative file references onto dir.
func resolveRefs(l assets.Loader, dir string) assets.Loader {
	if dir == "" {
		return l
	}
	return assets.LoaderFunc(func(ctx context.Context, ref string) (*core.Node, error) {
		if ref != "" && !filepath.IsAbs(ref) && !strings.Contains(ref, "://") {
			ref = filepath.Join(dir, ref)
		}
		return l.Load(ctx, ref)
	})
}

// GroundPoint intersects the camera ray through normalized device
// coordinates with the ground map.
func (w *Workspace) GroundPoint(nx, ny float32) (mgl32.Vec3, error) {
	p, ok := w.Map.Intersect(w.Camera.PickRay(nx, ny))
	if !ok {
		return mgl32.Vec3{}, errors.Wrapf(ErrMissedGround, "ndc (%.3f, %.3f)", nx, ny)
	}
	return p, nil
}

// Drop places a template where the screen point meets the ground map.
// Drops that miss the map are rejected before any load starts.
func (w *Workspace) Drop(ctx context.Context, template string, nx, ny float32) (*editor.Task, error) {
	p, err := w.GroundPoint(nx, ny)
	if err != nil {
		w.log.Warnf("drop %q rejected: %v", template, err)
		return nil, err
	}
	return w.Registry.Place(ctx, template, p), nil
}

// DropAtPixel is Drop for a pixel position in a viewport of the given size.
func (w *Workspace) DropAtPixel(ctx context.Context, template string, x, y float64, width, height int) (*editor.Task, error) {
	nx, ny := core.NDC(x, y, width, height)
	return w.Drop(ctx, template, nx, ny)
}

// Click selects or deselects by the screen point.
func (w *Workspace) Click(nx, ny float32) *editor.Instance {
	return w.Registry.Click(w.Camera.PickRay(nx, ny))
}

type ImportResult struct {
	Template *catalog.ImportedTemplate
	// FootprintPercent is the model's largest side as a share of the map.
	FootprintPercent float32
}

// Import measures an asset, registers it as a template and reports how much
// of the map it covers.
func (w *Workspace) Import(ctx context.Context, req catalog.ImportRequest) (ImportResult, error) {
	tpl, err := w.importer.Import(ctx, req)
	if err != nil {
		return ImportResult{}, err
	}
	if err := w.Registry.RegisterTemplate(tpl); err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Template: tpl, FootprintPercent: w.Map.FootprintPercent(tpl.RealDimensions())}
	w.log.Infof("%q covers %.1f%% of the map", tpl.Name(), res.FootprintPercent)
	return res, nil
}

// DeleteFromLibrary unregisters an imported template and removes its
// instances. Built-in templates cannot be deleted.
func (w *Workspace) DeleteFromLibrary(name string) (int, error) {
	tpl, err := w.Registry.Catalog().Lookup(name)
	if err != nil {
		return 0, err
	}
	if !tpl.Imported() {
		return 0, errors.Wrapf(ErrNotImported, "%q", tpl.Name())
	}
	return w.Registry.UnregisterTemplate(name)
}

// Instance looks up a placed instance by display name.
func (w *Workspace) Instance(name string) (*editor.Instance, error) {
	inst := w.Registry.Find(name)
	if inst == nil {
		return nil, errors.Wrapf(editor.ErrUnknownInstance, "%q", name)
	}
	return inst, nil
}

// SetPosition moves the named instance to p, Y included, as typed into a
// position field.
func (w *Workspace) SetPosition(name string, p mgl32.Vec3) (*editor.Instance, error) {
	inst, err := w.Instance(name)
	if err != nil {
		return nil, err
	}
	return inst, w.Registry.SetPosition(inst, p)
}

// DropToGround stands the named instance back on the ground map.
func (w *Workspace) DropToGround(name string) (*editor.Instance, error) {
	inst, err := w.Instance(name)
	if err != nil {
		return nil, err
	}
	return inst, w.Registry.Realign(inst)
}

// Focus frames the instance with the camera.
func (w *Workspace) Focus(inst *editor.Instance) {
	w.Camera.Focus(inst.Bounds())
}

func (w *Workspace) SetView(v core.View) {
	w.Camera.SetView(v)
	w.log.Debugf("camera view %s", v)
}

type InstanceStats struct {
	Name      string
	Template  string
	Vertices  int
	Materials int
	// Size is the world bounding box size converted to meters.
	Size      dims.Dimensions
}

type Stats struct {
	Instances int
	Vertices  int
	Materials int
	Selected  string
	// Mode is the transform mode the next selection gets.
	Mode      core.HandleMode
	Items     []InstanceStats
}

func (w *Workspace) Stats() Stats {
	var s Stats
	mpu := w.Map.MetersPerUnit()
	for _, inst := range w.Registry.Instances() {
		ns := inst.Stats()
		s.Instances++
		s.Vertices += ns.Vertices
		s.Materials += ns.Materials
		s.Items = append(s.Items, InstanceStats{
			Name:      inst.Name,
			Template:  inst.Template.Name(),
			Vertices:  ns.Vertices,
			Materials: ns.Materials,
			Size:      dims.FromVec3(inst.Bounds().Size().Mul(mpu)),
		})
	}
	if sel := w.Registry.Selected(); sel != nil {
		s.Selected = sel.Name
	}
	s.Mode = w.Registry.Mode()
	return s
}

// Close cancels pending placements and releases every instance.
func (w *Workspace) Close() error {
	return w.Registry.Close()
}
