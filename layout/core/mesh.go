package core

import (
	"github.com/pkg/errors"
)

// Mesh is the geometry attached to a node. Bounds are in the owning node's
// local space. Release frees whatever backs the mesh (GPU buffers, decoded
// vertex data) and is safe to call more than once.
type Mesh struct {
	Name          string
	Bounds        AABB
	VertexCount   int
	MaterialCount int

	release  func() error
	released bool
}

func NewMesh(name string, bounds AABB) *Mesh {
	return &Mesh{Name: name, Bounds: bounds}
}

// OnRelease sets the function run when the mesh is released.
func (m *Mesh) OnRelease(fn func() error) {
	m.release = fn
}

func (m *Mesh) Released() bool {
	return m.released
}

func (m *Mesh) Release() error {
	if m.released {
		return nil
	}
	m.released = true
	if m.release == nil {
		return nil
	}
	fn := m.release
	m.release = nil
	if err := fn(); err != nil {
		return errors.Wrapf(err, "release mesh %q", m.Name)
	}
	return nil
}
