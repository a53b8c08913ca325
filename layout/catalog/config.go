package catalog

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/layout/dims"
)

// TemplateConfig describes an extra catalog entry in the config file.
type TemplateConfig struct {
	Name         string           `mapstructure:"name"`
	Asset        string           `mapstructure:"asset"`
	Real         *dims.Dimensions `mapstructure:"real"`
	Authored     *dims.Dimensions `mapstructure:"authored"`
	DefaultScale float32          `mapstructure:"default_scale"`
	ScaleOptions []float32        `mapstructure:"scale_options"`
	Position     []float32        `mapstructure:"position"`
}

func (c TemplateConfig) Template() (*CatalogTemplate, error) {
	if Key(c.Name) == "" {
		return nil, errors.Wrap(ErrInvalidImportInput, "template config has no name")
	}
	if c.Asset == "" {
		return nil, errors.Wrapf(ErrInvalidImportInput, "template %q has no asset", c.Name)
	}
	var pos mgl32.Vec3
	if len(c.Position) > 0 {
		if len(c.Position) != 3 {
			return nil, errors.Wrapf(ErrInvalidImportInput, "template %q: position needs 3 values, got %d", c.Name, len(c.Position))
		}
		pos = mgl32.Vec3{c.Position[0], c.Position[1], c.Position[2]}
	}
	return NewCatalogTemplate(CatalogTemplateOptions{
		Name:            c.Name,
		AssetRef:        c.Asset,
		Real:            c.Real,
		Authored:        c.Authored,
		DefaultScale:    c.DefaultScale,
		ScaleOptions:    c.ScaleOptions,
		DefaultPosition: pos,
	}), nil
}

// FromConfig builds a catalog of the built-in templates followed by the
// configured ones.
func FromConfig(extra []TemplateConfig) (*Catalog, error) {
	c, err := New(Builtins()...)
	if err != nil {
		return nil, err
	}
	for _, tc := range extra {
		t, err := tc.Template()
		if err != nil {
			return nil, err
		}
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}
