package ground

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/siteplan/layout/core"
	"github.com/gekko3d/siteplan/layout/dims"
)

// siloNode mimics an authored asset whose origin is not at its base: the
// mesh spans Y in [-2, 14.4] so its authored height is 16.4.
func siloNode() *core.Node {
	root := core.NewNode("Silo")
	body := core.NewNode("body")
	body.AddMesh(core.NewMesh("body", core.NewAABB(
		mgl32.Vec3{-3.895, -2, -3.895},
		mgl32.Vec3{3.895, 14.4, 3.895},
	)))
	root.Add(body)
	return root
}

func TestSiloEndToEnd(t *testing.T) {
	scale, ok := dims.PerAxis(dims.New(25, 71, 25), dims.New(7.79, 16.4, 7.79), 1)
	require.True(t, ok)

	node := siloNode()
	res := ScaleAndAlign(node, scale, 0, nil)

	assert.InDelta(t, 3.209, node.Transform.Scale.X(), 1e-3)
	assert.InDelta(t, 4.329, node.Transform.Scale.Y(), 1e-3)
	assert.InDelta(t, 3.209, node.Transform.Scale.Z(), 1e-3)

	// Scaled geometry bottom sits at -2 * scaleY before alignment.
	scaledMinY := float32(-2) * scale.Y()
	assert.InDelta(t, 0-scaledMinY, node.Transform.Position.Y(), 1e-3)
	assert.InDelta(t, 0, res.Bounds.Min.Y(), 1e-3)
	assert.InDelta(t, 71, res.Bounds.Size().Y(), 1e-2)
	assert.False(t, res.Degenerate)
	assert.NoError(t, res.Err)
}

func TestAlignIsIdempotent(t *testing.T) {
	node := siloNode()
	node.Transform.Position = mgl32.Vec3{12, 37, -4}
	node.Transform.Scale = mgl32.Vec3{1.5, 2.5, 1.5}

	first := Align(node, 0, nil)
	second := Align(node, 0, nil)

	assert.InDelta(t, first.Y, second.Y, 1e-4)
	assert.InDelta(t, 0, second.Bounds.Min.Y(), 1e-4)
	assert.Equal(t, float32(12), node.Transform.Position.X(), "alignment must not move X")
	assert.Equal(t, float32(-4), node.Transform.Position.Z(), "alignment must not move Z")
}

func TestAlignToRaisedGround(t *testing.T) {
	node := siloNode()
	res := Align(node, 5, nil)
	assert.InDelta(t, 5, res.Bounds.Min.Y(), 1e-4)
	assert.InDelta(t, 7, res.Y, 1e-4)
}

func TestAlignRefreshesWorldMatrix(t *testing.T) {
	node := siloNode()
	Align(node, 0, nil)

	// The cached matrix must already carry the new position.
	assert.Equal(t, node.Transform.Position, node.WorldMatrix().Col(3).Vec3())
	assert.False(t, node.Transform.Dirty)
}

func TestAlignDegenerateGeometry(t *testing.T) {
	var buf bytes.Buffer
	logger := core.NewLogger(&buf, "ground", false)

	node := core.NewNode("Empty")
	node.Add(core.NewNode("child"))
	node.Transform.Position = mgl32.Vec3{3, 9, 3}

	res := Align(node, 0, logger)
	assert.True(t, res.Degenerate)
	assert.True(t, errors.Is(res.Err, ErrDegenerateGeometry))
	assert.Equal(t, float32(0), node.Transform.Position.Y())
	assert.Contains(t, buf.String(), "bounding box is empty")
}

func TestScaleCommittedBeforeBounds(t *testing.T) {
	node := siloNode()
	node.UpdateWorldMatrix()

	res := ScaleAndAlign(node, mgl32.Vec3{2, 2, 2}, 0, nil)
	// Height 16.4 doubled; a stale scale would report 16.4.
	assert.InDelta(t, 32.8, res.Bounds.Size().Y(), 1e-3)
}
