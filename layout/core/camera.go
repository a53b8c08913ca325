package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

type View int

const (
	ViewDefault View = iota
	ViewTop
	ViewFront
)

func (v View) String() string {
	switch v {
	case ViewDefault:
		return "default"
	case ViewTop:
		return "top"
	case ViewFront:
		return "front"
	}
	return "unknown"
}

// Camera is a Y-up orbit camera looking at Target.
type Camera struct {
	Position   mgl32.Vec3
	Target     mgl32.Vec3
	FovY       float32 // degrees
	Aspect     float32
	Near       float32
	Far        float32
	Projection Projection
	// OrthoHalfHeight is the half extent of the orthographic view volume.
	OrthoHalfHeight float32
}

func NewCamera() *Camera {
	c := &Camera{
		FovY:            70,
		Aspect:          16.0 / 9.0,
		Near:            0.01,
		Far:             30000,
		OrthoHalfHeight: 900,
	}
	c.SetView(ViewDefault)
	return c
}

// SetView moves the camera to one of the preset views over the map center.
func (c *Camera) SetView(v View) {
	c.Target = mgl32.Vec3{0, 0, 0}
	switch v {
	case ViewTop:
		c.Projection = Orthographic
		c.Position = mgl32.Vec3{0, 500, 0}
	case ViewFront:
		c.Projection = Perspective
		c.Position = mgl32.Vec3{0, 150, 1200}
	default:
		c.Projection = Perspective
		c.Position = mgl32.Vec3{0, 1000, 900}
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) up() mgl32.Vec3 {
	f := c.Forward()
	// Looking straight down makes world Y degenerate; use -Z as screen up.
	if float32(math.Abs(float64(f.Y()))) > 0.999 {
		return mgl32.Vec3{0, 0, -1}
	}
	return mgl32.Vec3{0, 1, 0}
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Forward().Cross(c.up()).Normalize()
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.up())
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	if c.Projection == Orthographic {
		h := c.OrthoHalfHeight
		w := h * c.Aspect
		return mgl32.Ortho(-w, w, -h, h, c.Near, c.Far)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// NDC converts a pixel position to normalized device coordinates.
func NDC(x, y float64, width, height int) (float32, float32) {
	nx := (2.0*float32(x))/float32(width) - 1.0
	ny := 1.0 - (2.0*float32(y))/float32(height)
	return nx, ny
}

// PickRay returns the world ray through the given normalized device
// coordinates.
func (c *Camera) PickRay(nx, ny float32) Ray {
	forward := c.Forward()
	right := c.Right()
	up := right.Cross(forward)

	if c.Projection == Orthographic {
		h := c.OrthoHalfHeight
		origin := c.Position.Add(right.Mul(nx * h * c.Aspect)).Add(up.Mul(ny * h))
		return Ray{Origin: origin, Direction: forward}
	}

	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(c.FovY) / 2.0)))
	dir := forward.Add(right.Mul(nx * c.Aspect * tanHalfFov)).Add(up.Mul(ny * tanHalfFov))
	return Ray{Origin: c.Position, Direction: dir.Normalize()}
}

// Focus frames box: the camera targets its center from a diagonal offset
// proportional to its largest extent.
func (c *Camera) Focus(box AABB) {
	if box.IsEmpty() {
		return
	}
	center := box.Center()
	size := box.Size()
	distance := max(size.X(), max(size.Y(), size.Z())) * 2.5
	c.Target = center
	c.Position = center.Add(mgl32.Vec3{0.8, 0.6, 0.8}.Mul(distance))
}
