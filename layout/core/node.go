package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Node is a scene-graph node. World matrices are cached: edits to Transform
// are not observed by WorldMatrix or WorldAABB until UpdateWorldMatrix runs.
type Node struct {
	Name      string
	Transform *Transform
	// Matrix overrides Transform as the local matrix when set. Imported
	// assets use it for nodes authored with a baked matrix.
	Matrix   *mgl32.Mat4
	Meshes   []*Mesh
	Parent   *Node
	Children []*Node

	world    mgl32.Mat4
	disposed bool
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: NewTransform(),
		world:     mgl32.Ident4(),
	}
}

// Add reparents child under n.
func (n *Node) Add(child *Node) {
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

func (n *Node) AddMesh(m *Mesh) {
	n.Meshes = append(n.Meshes, m)
}

func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return n.Transform.ObjectToWorld()
}

// WorldMatrix returns the cached world matrix.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	return n.world
}

// UpdateWorldMatrix recomputes the cached world matrix of n and all of its
// descendants. The parent's cached matrix is used as-is.
func (n *Node) UpdateWorldMatrix() {
	parent := mgl32.Ident4()
	if n.Parent != nil {
		parent = n.Parent.world
	}
	n.updateWorld(parent)
}

func (n *Node) updateWorld(parent mgl32.Mat4) {
	n.world = parent.Mul4(n.LocalMatrix())
	n.Transform.Dirty = false
	for _, c := range n.Children {
		c.updateWorld(n.world)
	}
}

// Traverse visits n and its descendants depth first. Returning false from fn
// skips the visited node's children.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// WorldAABB is the union of every mesh bound under n, using cached world
// matrices. It is empty when n carries no geometry.
func (n *Node) WorldAABB() AABB {
	box := EmptyAABB()
	n.Traverse(func(c *Node) bool {
		for _, m := range c.Meshes {
			box.Union(m.Bounds.Transform(c.world))
		}
		return true
	})
	return box
}

// MeshWorldAABB is the union of the meshes attached directly to n.
func (n *Node) MeshWorldAABB() AABB {
	box := EmptyAABB()
	for _, m := range n.Meshes {
		box.Union(m.Bounds.Transform(n.world))
	}
	return box
}

// Root walks up to the top-most ancestor.
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// IsAncestorOf reports whether n is other or one of its ancestors.
func (n *Node) IsAncestorOf(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

type NodeStats struct {
	Nodes     int
	Meshes    int
	Vertices  int
	Materials int
}

func (n *Node) Stats() NodeStats {
	var s NodeStats
	n.Traverse(func(c *Node) bool {
		s.Nodes++
		for _, m := range c.Meshes {
			s.Meshes++
			s.Vertices += m.VertexCount
			s.Materials += m.MaterialCount
		}
		return true
	})
	return s
}

func (n *Node) Disposed() bool {
	return n.disposed
}

// Dispose releases every mesh under n. All meshes are attempted even when
// some fail; the first failure is returned.
func (n *Node) Dispose() error {
	if n.disposed {
		return nil
	}
	n.disposed = true

	var first error
	failed, total := 0, 0
	n.Traverse(func(c *Node) bool {
		for _, m := range c.Meshes {
			total++
			if err := m.Release(); err != nil {
				failed++
				if first == nil {
					first = err
				}
			}
		}
		return true
	})
	if first != nil {
		return errors.Wrapf(first, "dispose %q: %d of %d meshes failed", n.Name, failed, total)
	}
	return nil
}
