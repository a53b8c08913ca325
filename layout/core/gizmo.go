package core

import "github.com/go-gl/mathgl/mgl32"

type GizmoType int

const (
	GizmoLine GizmoType = iota
	GizmoCube
	GizmoCircle
)

// Gizmo represents a debug shape to be drawn.
type Gizmo struct {
	Type        GizmoType
	Color       [4]float32
	ModelMatrix mgl32.Mat4

	// For Line: P1 is Start, P2 is End. ModelMatrix is Identity usually.
	P1, P2 mgl32.Vec3
}

var (
	axisColorX  = [4]float32{1, 0.2, 0.2, 1}
	axisColorY  = [4]float32{0.2, 1, 0.2, 1}
	axisColorZ  = [4]float32{0.2, 0.4, 1, 1}
	boundsColor = [4]float32{1, 0.8, 0.1, 1}
)

// Shapes returns the wireframe shapes a renderer should draw for the handle:
// one line per visible translate axis or a ring per rotate axis, plus the
// target's bounding box. Hidden or detached handles draw nothing.
func (h *Handle) Shapes() []Gizmo {
	if !h.Visible || h.target == nil {
		return nil
	}

	box := h.target.WorldAABB()
	origin := h.target.WorldMatrix().Col(3).Vec3()
	length := h.Size
	if !box.IsEmpty() {
		size := box.Size()
		length = h.Size * max(size.X(), max(size.Y(), size.Z())) * 0.5
	}

	var out []Gizmo
	axes := []struct {
		show  bool
		dir   mgl32.Vec3
		color [4]float32
	}{
		{h.ShowX, mgl32.Vec3{1, 0, 0}, axisColorX},
		{h.ShowY, mgl32.Vec3{0, 1, 0}, axisColorY},
		{h.ShowZ, mgl32.Vec3{0, 0, 1}, axisColorZ},
	}
	for _, a := range axes {
		if !a.show {
			continue
		}
		switch h.Mode {
		case HandleRotate:
			// Circle gizmos lie in the local XY plane; rotate it onto the plane normal to the axis.
			ring := mgl32.Translate3D(origin.X(), origin.Y(), origin.Z()).
				Mul4(mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, a.dir).Mat4()).
				Mul4(mgl32.Scale3D(length, length, length))
			out = append(out, Gizmo{Type: GizmoCircle, Color: a.color, ModelMatrix: ring})
		default:
			out = append(out, Gizmo{
				Type:        GizmoLine,
				Color:       a.color,
				ModelMatrix: mgl32.Ident4(),
				P1:          origin,
				P2:          origin.Add(a.dir.Mul(length)),
			})
		}
	}

	if !box.IsEmpty() {
		c, s := box.Center(), box.Size()
		out = append(out, Gizmo{
			Type:        GizmoCube,
			Color:       boundsColor,
			ModelMatrix: mgl32.Translate3D(c.X(), c.Y(), c.Z()).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z())),
		})
	}
	return out
}
