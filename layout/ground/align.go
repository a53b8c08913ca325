// Package ground pins models to the ground plane.
package ground

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/gekko3d/siteplan/layout/core"
)

// ErrDegenerateGeometry marks a node whose bounding box is empty. Alignment
// still succeeds by placing the node origin on the ground.
var ErrDegenerateGeometry = errors.New("degenerate geometry: empty bounding box")

type Result struct {
	Y          float32
	Bounds     core.AABB
	Degenerate bool
	Err        error
}

// Align moves a root node vertically so the lowest point of its geometry
// sits at groundY. World matrices are refreshed before the bounding box is
// read and again after the move, so later picks and box queries see the
// corrected position.
//
// The offset is measured from the node's own origin, so aligning an
// already aligned node leaves it where it is.
func Align(node *core.Node, groundY float32, logger core.Logger) Result {
	node.UpdateWorldMatrix()
	box := node.WorldAABB()

	tr := node.Transform
	var res Result
	if box.IsEmpty() {
		core.LoggerOrNop(logger).Warnf("model %q bounding box is empty, positioning at ground level", node.Name)
		tr.Position[1] = groundY
		res.Degenerate = true
		res.Err = ErrDegenerateGeometry
	} else {
		bottom := box.Min.Y() - tr.Position.Y()
		tr.Position[1] = groundY - bottom
	}
	tr.Dirty = true

	node.UpdateWorldMatrix()
	res.Y = tr.Position.Y()
	res.Bounds = node.WorldAABB()
	return res
}

// ScaleAndAlign commits scale to the node before aligning it.
func ScaleAndAlign(node *core.Node, scale mgl32.Vec3, groundY float32, logger core.Logger) Result {
	node.Transform.SetScale(scale)
	return Align(node, groundY, logger)
}
