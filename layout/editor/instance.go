// Package editor owns the placed model instances of a scene: their nodes,
// manipulation handles, selection and display names.
package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/siteplan/layout/catalog"
	"github.com/gekko3d/siteplan/layout/core"
)

// Instance is a placed model. Its fields are owned by the Registry and must
// only be changed through it.
type Instance struct {
	ID       uuid.UUID
	Name     string
	Template catalog.Template
	Node     *core.Node
	Handle   *core.Handle

	base       string
	multiplier float32
}

func (i *Instance) Multiplier() float32 {
	return i.multiplier
}

func (i *Instance) Position() mgl32.Vec3 {
	return i.Node.Transform.Position
}

// Bounds is the world box from cached matrices.
func (i *Instance) Bounds() core.AABB {
	return i.Node.WorldAABB()
}

func (i *Instance) Stats() core.NodeStats {
	return i.Node.Stats()
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Template.Name())
}

// nameSuffix reports the numeric suffix of name relative to base. The bare
// base counts as suffix 0.
func nameSuffix(name, base string) (int, bool) {
	if name == base {
		return 0, true
	}
	rest, ok := strings.CutPrefix(name, base+" ")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// nextName returns base when no existing name shares it, otherwise base
// followed by one more than the largest suffix in use. Names stay unique
// after instances are removed.
func nextName(base string, existing []*Instance) string {
	highest := -1
	for _, inst := range existing {
		if n, ok := nameSuffix(inst.Name, base); ok && n > highest {
			highest = n
		}
	}
	if highest < 0 {
		return base
	}
	return fmt.Sprintf("%s %d", base, highest+1)
}
