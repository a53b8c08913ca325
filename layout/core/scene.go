package core

// Scene is the live scene graph: top-level model nodes plus the manipulation
// handles drawn over them.
type Scene struct {
	Objects []*Node
	Handles []*Handle
}

func NewScene() *Scene {
	return &Scene{
		Objects: []*Node{},
	}
}

func (s *Scene) AddObject(obj *Node) {
	s.Objects = append(s.Objects, obj)
}

func (s *Scene) RemoveObject(obj *Node) bool {
	for i, o := range s.Objects {
		if o == obj {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) AddHandle(h *Handle) {
	s.Handles = append(s.Handles, h)
}

func (s *Scene) RemoveHandle(h *Handle) bool {
	for i, o := range s.Handles {
		if o == h {
			s.Handles = append(s.Handles[:i], s.Handles[i+1:]...)
			return true
		}
	}
	return false
}

// Commit refreshes world matrices for every object whose transform changed
// since the last refresh. Returns true if anything was updated.
func (s *Scene) Commit() bool {
	anyChanged := false
	for _, obj := range s.Objects {
		dirty := false
		obj.Traverse(func(n *Node) bool {
			if n.Transform.Dirty {
				dirty = true
				return false
			}
			return true
		})
		if dirty {
			obj.UpdateWorldMatrix()
			anyChanged = true
		}
	}
	return anyChanged
}

// Bounds is the union of all object boxes.
func (s *Scene) Bounds() AABB {
	box := EmptyAABB()
	for _, obj := range s.Objects {
		box.Union(obj.WorldAABB())
	}
	return box
}
