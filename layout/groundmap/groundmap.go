// Package groundmap describes the textured facility map that models are
// placed on: a horizontal plane centered on the origin whose texture pixels
// have a known size in meters.
package groundmap

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
)

const (
	DefaultSize     float32 = 1843
	DefaultPixels           = 1843
	DefaultGroundY  float32 = 0
	referenceMeters float32 = 156.66
	referencePixels float32 = 153
)

// DefaultMetersPerPixel is the scale of the stock facility map.
var DefaultMetersPerPixel = referenceMeters / referencePixels

type Config struct {
	Image          string  `mapstructure:"image"`
	Size           float32 `mapstructure:"size"`
	MetersPerPixel float32 `mapstructure:"meters_per_pixel"`
	GroundY        float32 `mapstructure:"ground_y"`
}

type GroundMap struct {
	Image    string
	Format   string
	WidthPx  int
	HeightPx int
	// Size is the plane's X extent in world units. The Z extent follows the
	// image aspect ratio.
	Size           float32
	MetersPerPixel float32
	Y              float32
}

func Default() *GroundMap {
	return &GroundMap{
		WidthPx:        DefaultPixels,
		HeightPx:       DefaultPixels,
		Size:           DefaultSize,
		MetersPerPixel: DefaultMetersPerPixel,
		Y:              DefaultGroundY,
	}
}

// Load reads only the image header to size the map. An empty Image keeps
// the default pixel dimensions.
func Load(cfg Config) (*GroundMap, error) {
	m := Default()
	if cfg.Size > 0 {
		m.Size = cfg.Size
	}
	if cfg.MetersPerPixel > 0 {
		m.MetersPerPixel = cfg.MetersPerPixel
	}
	m.Y = cfg.GroundY
	if cfg.Image == "" {
		return m, nil
	}

	f, err := os.Open(cfg.Image)
	if err != nil {
		return nil, errors.Wrap(err, "open ground map")
	}
	defer f.Close()

	ic, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode ground map %s", cfg.Image)
	}
	if ic.Width <= 0 || ic.Height <= 0 {
		return nil, errors.Errorf("ground map %s has no pixels", cfg.Image)
	}
	m.Image = cfg.Image
	m.Format = format
	m.WidthPx = ic.Width
	m.HeightPx = ic.Height
	return m, nil
}

// Extent is the plane size in world units along X and Z.
func (m *GroundMap) Extent() (float32, float32) {
	return m.Size, m.Size * float32(m.HeightPx) / float32(m.WidthPx)
}

// Bounds is the flat box covered by the plane.
func (m *GroundMap) Bounds() core.AABB {
	w, d := m.Extent()
	return core.NewAABB(mgl32.Vec3{-w / 2, m.Y, -d / 2}, mgl32.Vec3{w / 2, m.Y, d / 2})
}

func (m *GroundMap) Contains(p mgl32.Vec3) bool {
	w, d := m.Extent()
	return p.X() >= -w/2 && p.X() <= w/2 && p.Z() >= -d/2 && p.Z() <= d/2
}

// Intersect returns where the ray meets the plane, if inside the map.
func (m *GroundMap) Intersect(ray core.Ray) (mgl32.Vec3, bool) {
	p, ok := ray.IntersectPlaneY(m.Y)
	if !ok || !m.Contains(p) {
		return mgl32.Vec3{}, false
	}
	return p, true
}

// RealExtent is the map size in meters along X and Z.
func (m *GroundMap) RealExtent() (float32, float32) {
	return float32(m.WidthPx) * m.MetersPerPixel, float32(m.HeightPx) * m.MetersPerPixel
}

// RealSize is the larger real extent.
func (m *GroundMap) RealSize() float32 {
	w, d := m.RealExtent()
	if d > w {
		return d
	}
	return w
}

func (m *GroundMap) MetersPerUnit() float32 {
	return m.MetersPerPixel * float32(m.WidthPx) / m.Size
}

// FootprintPercent is the largest side of d as a share of the map.
func (m *GroundMap) FootprintPercent(d dims.Dimensions) float32 {
	largest := d.Width
	if d.Height > largest {
		largest = d.Height
	}
	if d.Length > largest {
		largest = d.Length
	}
	size := m.RealSize()
	if size <= 0 {
		return 0
	}
	return largest / size * 100
}
