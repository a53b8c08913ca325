package groundmap

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
)

func writeImage(t *testing.T, name string, w, h int, encode func(*os.File, image.Image) error) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
	return p
}

func TestDefault(t *testing.T) {
	m := Default()
	w, d := m.Extent()
	assert.Equal(t, float32(1843), w)
	assert.Equal(t, float32(1843), d)

	rw, _ := m.RealExtent()
	assert.InDelta(t, 1887.087, rw, 0.01)
	assert.InDelta(t, 1843*156.66/153/1843, m.MetersPerUnit(), 1e-4)
}

func TestLoadReadsImageSize(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		format string
		encode func(*os.File, image.Image) error
	}{
		{"png", "map.png", "png", func(f *os.File, img image.Image) error { return png.Encode(f, img) }},
		{"bmp", "map.bmp", "bmp", func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeImage(t, tc.file, 400, 200, tc.encode)
			m, err := Load(Config{Image: p, Size: 1000, MetersPerPixel: 2})
			require.NoError(t, err)

			assert.Equal(t, tc.format, m.Format)
			assert.Equal(t, 400, m.WidthPx)
			assert.Equal(t, 200, m.HeightPx)

			w, d := m.Extent()
			assert.Equal(t, float32(1000), w)
			assert.Equal(t, float32(500), d)

			rw, rd := m.RealExtent()
			assert.Equal(t, float32(800), rw)
			assert.Equal(t, float32(400), rd)
			assert.Equal(t, float32(0.8), m.MetersPerUnit())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(Config{Image: filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0o644))
	_, err = Load(Config{Image: p})
	assert.Error(t, err)
}

func TestIntersect(t *testing.T) {
	m := Default()

	down := core.NewRay(mgl32.Vec3{100, 50, -200}, mgl32.Vec3{0, -1, 0})
	p, ok := m.Intersect(down)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{100, 0, -200}, p)

	outside := core.NewRay(mgl32.Vec3{5000, 50, 0}, mgl32.Vec3{0, -1, 0})
	_, ok = m.Intersect(outside)
	assert.False(t, ok)

	up := core.NewRay(mgl32.Vec3{0, 50, 0}, mgl32.Vec3{0, 1, 0})
	_, ok = m.Intersect(up)
	assert.False(t, ok)
}

func TestFootprintPercent(t *testing.T) {
	m := Default()
	pct := m.FootprintPercent(dims.Dimensions{Width: 24, Height: 118, Length: 50})
	assert.InDelta(t, 118/m.RealSize()*100, pct, 1e-4)
	assert.InDelta(t, 6.25, pct, 0.01)
}
