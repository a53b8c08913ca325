package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 11})

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		entry float32
	}{
		{"straight on", NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}), true, 9},
		{"pointing away", NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}), false, 0},
		{"parallel outside", NewRay(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{0, 0, 1}), false, 0},
		{"negative tiny component", NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-0.5e-8, 0, 1}), true, 9},
		{"origin inside", NewRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{1, 0, 0}), true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tMin, tMax := IntersectAABB(tc.ray, box)
			hit := tMin <= tMax && tMax >= 0
			require.Equal(t, tc.hit, hit)
			if tc.hit {
				assert.InDelta(t, tc.entry, tMin, 1e-4)
			}
		})
	}
}

func TestIntersectPlaneY(t *testing.T) {
	ray := NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, -1, 0})
	p, ok := ray.IntersectPlaneY(0)
	require.True(t, ok)
	assert.InDelta(t, 10, p.X(), 1e-4)
	assert.Equal(t, float32(0), p.Y())

	_, ok = NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 0, 0}).IntersectPlaneY(0)
	assert.False(t, ok, "parallel ray must miss")

	_, ok = NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 1, 0}).IntersectPlaneY(0)
	assert.False(t, ok, "ray pointing up must miss")
}

func TestIntersectNodesNearestFirst(t *testing.T) {
	near := NewNode("near")
	near.Transform.Position = mgl32.Vec3{0, 0, 5}
	near.AddMesh(NewMesh("cube", unitCube()))

	farRoot := NewNode("farRoot")
	farRoot.Transform.Position = mgl32.Vec3{0, 0, 20}
	part := NewNode("part")
	deep := NewNode("deep")
	deep.AddMesh(NewMesh("cube", unitCube()))
	part.Add(deep)
	farRoot.Add(part)

	near.UpdateWorldMatrix()
	farRoot.UpdateWorldMatrix()

	hits := IntersectNodes(NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}), []*Node{farRoot, near})
	require.Len(t, hits, 2)
	assert.Same(t, near, hits[0].Node)
	assert.Same(t, deep, hits[1].Node)
	assert.InDelta(t, 4.5, hits[0].T, 1e-4)
	assert.Same(t, farRoot, hits[1].Node.Root())
}

func TestCameraPickRayCenter(t *testing.T) {
	cam := NewCamera()
	ray := cam.PickRay(0, 0)
	p, ok := ray.IntersectPlaneY(0)
	require.True(t, ok)
	assert.InDelta(t, 0, p.X(), 1e-2)
	assert.InDelta(t, 0, p.Z(), 1e-2)

	// Right half of the screen lands at positive X.
	p, ok = cam.PickRay(0.5, 0).IntersectPlaneY(0)
	require.True(t, ok)
	assert.Greater(t, p.X(), float32(0))
}

func TestCameraTopViewIsOrthographic(t *testing.T) {
	cam := NewCamera()
	cam.SetView(ViewTop)
	require.Equal(t, Orthographic, cam.Projection)

	ray := cam.PickRay(0.5, 0.5)
	assert.InDelta(t, 0, ray.Direction.X(), 1e-5)
	assert.InDelta(t, -1, ray.Direction.Y(), 1e-5)

	p, ok := ray.IntersectPlaneY(0)
	require.True(t, ok)
	assert.InDelta(t, 0.5*900*cam.Aspect, p.X(), 1e-2)
	// Screen up maps to -Z when looking down.
	assert.InDelta(t, -450, p.Z(), 1e-2)
}

func TestCameraFocus(t *testing.T) {
	cam := NewCamera()
	cam.Focus(NewAABB(mgl32.Vec3{-10, 0, -10}, mgl32.Vec3{10, 40, 10}))
	assert.Equal(t, mgl32.Vec3{0, 20, 0}, cam.Target)
	assert.InDelta(t, 80, cam.Position.X(), 1e-3)
	assert.InDelta(t, 20+60, cam.Position.Y(), 1e-3)

	before := cam.Position
	cam.Focus(EmptyAABB())
	assert.Equal(t, before, cam.Position, "empty box must not move the camera")
}

func TestNDC(t *testing.T) {
	x, y := NDC(0, 0, 800, 600)
	assert.Equal(t, float32(-1), x)
	assert.Equal(t, float32(1), y)
	x, y = NDC(400, 300, 800, 600)
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(0), y)
}
