package catalog

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrDuplicateTemplate = errors.New("template already registered")
)

// Catalog maps template keys to templates, remembering registration order.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]Template
	order     []string
}

func New(templates ...Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template)}
	for _, t := range templates {
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(t Template) error {
	if t == nil || t.Key() == "" {
		return errors.Wrap(ErrInvalidImportInput, "template has no name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := t.Key()
	if existing, ok := c.templates[key]; ok {
		return errors.Wrapf(ErrDuplicateTemplate, "%q collides with %q", t.Name(), existing.Name())
	}
	c.templates[key] = t
	c.order = append(c.order, key)
	return nil
}

// Unregister removes the template and returns it.
func (c *Catalog) Unregister(name string) (Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := Key(name)
	t, ok := c.templates[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTemplate, "%q", name)
	}
	delete(c.templates, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return t, nil
}

func (c *Catalog) Lookup(name string) (Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[Key(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTemplate, "%q", name)
	}
	return t, nil
}

// Templates lists templates in registration order.
func (c *Catalog) Templates() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Template, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.templates[k])
	}
	return out
}

func (c *Catalog) Imported() []Template {
	var out []Template
	for _, t := range c.Templates() {
		if t.Imported() {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}
