// Package catalog holds the model templates that can be placed in a scene.
//
// A template is either a CatalogTemplate, scaled per axis from known real
// and authored dimensions, or an ImportedTemplate, scaled uniformly from a
// single real height measured at import time. Both answer Scale for a
// given user multiplier.
package catalog

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gosimple/slug"

	"github.com/gekko3d/siteplan/layout/dims"
)

var (
	CatalogPresets  = []float32{1, 1.5, 2}
	ImportedPresets = []float32{0.1, 0.5, 1, 1.5, 2}
)

type Template interface {
	Name() string
	// Key is the normalized name templates are stored under.
	Key() string
	AssetRef() string
	Imported() bool
	// Scale is the node scale for a multiplier already clamped by the caller.
	Scale(multiplier float32) mgl32.Vec3
	ScaleOptions() []float32
	InitialMultiplier() float32
	RealDimensions() dims.Dimensions
	// DefaultPosition is catalog metadata: where callers may place the
	// template when no point is given. Placement itself always uses the
	// requested point.
	DefaultPosition() mgl32.Vec3
}

// Key normalizes a template name. "Cement Silo" and "cement-silo" share a key.
func Key(name string) string {
	return slug.Make(name)
}

func copyPresets(p []float32) []float32 {
	out := make([]float32, len(p))
	copy(out, p)
	return out
}

type CatalogTemplate struct {
	name     string
	assetRef string
	real     *dims.Dimensions
	authored *dims.Dimensions
	fallback float32
	presets  []float32
	position mgl32.Vec3
}

type CatalogTemplateOptions struct {
	Name     string
	AssetRef string
	Real     *dims.Dimensions
	Authored *dims.Dimensions
	// DefaultScale is the uniform scale used when Real or Authored is
	// missing. Zero means 1.
	DefaultScale    float32
	ScaleOptions    []float32
	DefaultPosition mgl32.Vec3
}

func NewCatalogTemplate(opts CatalogTemplateOptions) *CatalogTemplate {
	t := &CatalogTemplate{
		name:     opts.Name,
		assetRef: opts.AssetRef,
		fallback: opts.DefaultScale,
		presets:  copyPresets(opts.ScaleOptions),
		position: opts.DefaultPosition,
	}
	if t.fallback <= 0 {
		t.fallback = 1
	}
	if len(t.presets) == 0 {
		t.presets = copyPresets(CatalogPresets)
	}
	if opts.Real != nil {
		d := *opts.Real
		t.real = &d
	}
	if opts.Authored != nil {
		d := *opts.Authored
		t.authored = &d
	}
	return t
}

func (t *CatalogTemplate) Name() string               { return t.name }
func (t *CatalogTemplate) Key() string                { return Key(t.name) }
func (t *CatalogTemplate) AssetRef() string           { return t.assetRef }
func (t *CatalogTemplate) Imported() bool             { return false }
func (t *CatalogTemplate) InitialMultiplier() float32 { return dims.DefaultMultiplier }
func (t *CatalogTemplate) DefaultPosition() mgl32.Vec3 {
	return t.position
}

func (t *CatalogTemplate) ScaleOptions() []float32 {
	return copyPresets(t.presets)
}

func (t *CatalogTemplate) RealDimensions() dims.Dimensions {
	if t.real == nil {
		return dims.Dimensions{}
	}
	return *t.real
}

func (t *CatalogTemplate) AuthoredDimensions() (dims.Dimensions, bool) {
	if t.authored == nil {
		return dims.Dimensions{}, false
	}
	return *t.authored, true
}

func (t *CatalogTemplate) Scale(multiplier float32) mgl32.Vec3 {
	return t.Convert(multiplier).Scale
}

// Convert reports whether the per-axis path ran.
func (t *CatalogTemplate) Convert(multiplier float32) dims.Result {
	return dims.Convert(t.real, t.authored, multiplier, t.fallback*multiplier)
}

// ImportedTemplate is created by Importer from a measured asset.
type ImportedTemplate struct {
	name             string
	assetRef         string
	userHeight       float32
	authoredSize     dims.Dimensions
	recommendedScale float32
}

func (t *ImportedTemplate) Name() string               { return t.name }
func (t *ImportedTemplate) Key() string                { return Key(t.name) }
func (t *ImportedTemplate) AssetRef() string           { return t.assetRef }
func (t *ImportedTemplate) Imported() bool             { return true }
func (t *ImportedTemplate) InitialMultiplier() float32 { return dims.DefaultMultiplier }
func (t *ImportedTemplate) DefaultPosition() mgl32.Vec3 {
	return mgl32.Vec3{}
}

func (t *ImportedTemplate) ScaleOptions() []float32 {
	return copyPresets(ImportedPresets)
}

// UserHeight is the real height in meters given at import.
func (t *ImportedTemplate) UserHeight() float32 { return t.userHeight }

// AuthoredSize is the bounding box size of the asset as loaded.
func (t *ImportedTemplate) AuthoredSize() dims.Dimensions { return t.authoredSize }

func (t *ImportedTemplate) RecommendedScale() float32 { return t.recommendedScale }

// RealDimensions is the authored size at the recommended scale. It differs
// from the requested height when the scale was clamped.
func (t *ImportedTemplate) RealDimensions() dims.Dimensions {
	return t.authoredSize.Scaled(t.recommendedScale)
}

func (t *ImportedTemplate) Scale(multiplier float32) mgl32.Vec3 {
	s := t.recommendedScale * multiplier
	return mgl32.Vec3{s, s, s}
}

// Builtins returns the stock equipment templates.
func Builtins() []Template {
	return []Template{
		NewCatalogTemplate(CatalogTemplateOptions{
			Name:     "Silo",
			AssetRef: "models/silo.glb",
			Real:     dims.New(25, 71, 25),
			Authored: dims.New(7.79, 16.4, 7.79),
		}),
		NewCatalogTemplate(CatalogTemplateOptions{
			Name:            "Preheater",
			AssetRef:        "models/preheater.glb",
			Real:            dims.New(24, 118, 50),
			Authored:        dims.New(10.4, 12.7, 20.1),
			DefaultPosition: mgl32.Vec3{400, 0, 200},
		}),
		NewCatalogTemplate(CatalogTemplateOptions{
			Name:            "Storage",
			AssetRef:        "models/storage.glb",
			Real:            dims.New(30, 100, 30),
			Authored:        dims.New(2.41, 7.31, 2.41),
			DefaultPosition: mgl32.Vec3{300, 0, -200},
		}),
	}
}
