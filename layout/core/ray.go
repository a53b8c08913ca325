package core

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectPlaneY returns the point where the ray crosses the horizontal
// plane at height y. Rays parallel to the plane or pointing away miss.
func (r Ray) IntersectPlaneY(y float32) (mgl32.Vec3, bool) {
	dy := r.Direction.Y()
	if float32(math.Abs(float64(dy))) < 1e-8 {
		return mgl32.Vec3{}, false
	}
	t := (y - r.Origin.Y()) / dy
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	p := r.At(t)
	p[1] = y
	return p, true
}

// IntersectAABB returns the entry and exit distances of the ray through box.
// The ray misses when tMin > tMax. Entry is clamped to 0 for origins inside.
func IntersectAABB(ray Ray, box AABB) (float32, float32) {
	tMin := float32(0)
	tMax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o := ray.Origin[axis]
		d := ray.Direction[axis]
		lo, hi := box.Min[axis], box.Max[axis]

		if float32(math.Abs(float64(d))) < 1e-12 {
			if o < lo || o > hi {
				return 1, 0
			}
			continue
		}

		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = max(tMin, t1)
		tMax = min(tMax, t2)
		if tMin > tMax {
			return tMin, tMax
		}
	}
	return tMin, tMax
}

// Hit is one ray intersection against a node's own meshes.
type Hit struct {
	Node  *Node
	T     float32
	Point mgl32.Vec3
}

// IntersectNodes tests the ray against every mesh-carrying node under roots,
// using cached world matrices, and returns hits sorted nearest first. Each
// node reports at most one hit, against the world box of its own meshes.
func IntersectNodes(ray Ray, roots []*Node) []Hit {
	var hits []Hit
	for _, root := range roots {
		root.Traverse(func(n *Node) bool {
			if len(n.Meshes) == 0 {
				return true
			}
			box := n.MeshWorldAABB()
			if box.IsEmpty() {
				return true
			}
			tMin, tMax := IntersectAABB(ray, box)
			if tMin > tMax || tMax < 0 {
				return true
			}
			hits = append(hits, Hit{Node: n, T: tMin, Point: ray.At(tMin)})
			return true
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].T < hits[j].T })
	return hits
}
