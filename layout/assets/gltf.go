package assets

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/gekko3d/siteplan/layout/core"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHTTPRetries = 2
)

type GLTFLoaderOptions struct {
	HTTPTimeout time.Duration
	HTTPRetries int
	// Client overrides the HTTP client built from the options above.
	Client *resty.Client
	Logger core.Logger
}

// GLTFLoader reads .glb and .gltf assets from disk or over HTTP. Remote
// assets must be self-contained (GLB or data URIs). Downloaded bytes are
// cached per URL; every Load decodes a fresh node tree from them.
type GLTFLoader struct {
	client *resty.Client
	log    core.Logger

	mu    sync.Mutex
	cache map[string][]byte

	live atomic.Int64
}

func NewGLTFLoader(opts GLTFLoaderOptions) *GLTFLoader {
	client := opts.Client
	if client == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		retries := opts.HTTPRetries
		if retries < 0 {
			retries = DefaultHTTPRetries
		}
		client = resty.New().
			SetTimeout(timeout).
			SetRetryCount(retries)
	}
	return &GLTFLoader{
		client: client,
		log:    core.LoggerOrNop(opts.Logger),
		cache:  make(map[string][]byte),
	}
}

// LiveMeshes is the number of meshes loaded and not yet released.
func (l *GLTFLoader) LiveMeshes() int64 {
	return l.live.Load()
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (l *GLTFLoader) Load(ctx context.Context, ref string) (*core.Node, error) {
	if ref == "" {
		return nil, &LoadError{Ref: ref, Err: errors.New("empty asset reference")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}

	var (
		doc *gltf.Document
		err error
	)
	if isRemote(ref) {
		doc, err = l.fetch(ctx, ref)
	} else {
		doc, err = gltf.Open(ref)
		if err != nil {
			err = loadErr(ref, err, "open gltf")
		}
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}

	root, err := l.build(doc, assetName(ref))
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	l.log.Debugf("loaded %s: %+v", ref, root.Stats())
	return root, nil
}

func (l *GLTFLoader) fetch(ctx context.Context, url string) (*gltf.Document, error) {
	l.mu.Lock()
	data, ok := l.cache[url]
	l.mu.Unlock()

	if !ok {
		resp, err := l.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, loadErr(url, err, "fetch")
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, &LoadError{Ref: url, Err: errors.Errorf("fetch: unexpected status %s", resp.Status())}
		}
		data = resp.Body()
		l.mu.Lock()
		l.cache[url] = data
		l.mu.Unlock()
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, loadErr(url, err, "decode gltf")
	}
	return doc, nil
}

func assetName(ref string) string {
	base := path.Base(ref)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

type treeBuilder struct {
	doc      *gltf.Document
	loader   *GLTFLoader
	visiting map[int]bool
}

func (l *GLTFLoader) build(doc *gltf.Document, name string) (*core.Node, error) {
	b := &treeBuilder{doc: doc, loader: l, visiting: make(map[int]bool)}
	root := core.NewNode(name)

	var roots []int
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil {
			idx = int(*doc.Scene)
		}
		if idx < 0 || idx >= len(doc.Scenes) {
			return nil, errors.Errorf("scene index %d out of range", idx)
		}
		for _, ni := range doc.Scenes[idx].Nodes {
			roots = append(roots, int(ni))
		}
	} else {
		referenced := make(map[int]bool)
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				referenced[int(c)] = true
			}
		}
		for i := range doc.Nodes {
			if !referenced[i] {
				roots = append(roots, i)
			}
		}
	}

	for _, ni := range roots {
		child, err := b.node(ni)
		if err != nil {
			_ = root.Dispose()
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

func (b *treeBuilder) node(i int) (*core.Node, error) {
	if i < 0 || i >= len(b.doc.Nodes) {
		return nil, errors.Errorf("node index %d out of range", i)
	}
	if b.visiting[i] {
		return nil, errors.Errorf("node %d is part of a cycle", i)
	}
	b.visiting[i] = true
	defer delete(b.visiting, i)

	gn := b.doc.Nodes[i]
	n := core.NewNode(gn.Name)
	applyNodeTransform(n, gn)

	if gn.Mesh != nil {
		m, err := b.mesh(int(*gn.Mesh))
		if err != nil {
			return nil, err
		}
		n.AddMesh(m)
	}

	for _, ci := range gn.Children {
		child, err := b.node(int(ci))
		if err != nil {
			_ = n.Dispose()
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func applyNodeTransform(n *core.Node, gn *gltf.Node) {
	var m mgl32.Mat4
	for k := range gn.Matrix {
		m[k] = float32(gn.Matrix[k])
	}
	if m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		// glTF and mgl32 are both column-major.
		n.Matrix = &m
		return
	}

	tr := n.Transform
	tr.Position = mgl32.Vec3{float32(gn.Translation[0]), float32(gn.Translation[1]), float32(gn.Translation[2])}

	r := mgl32.Quat{W: float32(gn.Rotation[3]), V: mgl32.Vec3{float32(gn.Rotation[0]), float32(gn.Rotation[1]), float32(gn.Rotation[2])}}
	if r.Len() > 0 {
		tr.Rotation = r.Normalize()
	}

	s := mgl32.Vec3{float32(gn.Scale[0]), float32(gn.Scale[1]), float32(gn.Scale[2])}
	if s != (mgl32.Vec3{}) {
		tr.Scale = s
	}
	tr.Dirty = true
}

func (b *treeBuilder) mesh(i int) (*core.Mesh, error) {
	if i < 0 || i >= len(b.doc.Meshes) {
		return nil, errors.Errorf("mesh index %d out of range", i)
	}
	gm := b.doc.Meshes[i]
	m := core.NewMesh(gm.Name, core.EmptyAABB())

	for _, p := range gm.Primitives {
		if p.Material != nil {
			m.MaterialCount++
		}
		ai, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		if int(ai) >= len(b.doc.Accessors) {
			return nil, errors.Errorf("mesh %q: accessor %d out of range", gm.Name, ai)
		}
		acc := b.doc.Accessors[ai]
		m.VertexCount += int(acc.Count)
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			b.loader.log.Warnf("mesh %q: POSITION accessor has no bounds, skipping primitive", gm.Name)
			continue
		}
		m.Bounds.ExpandByPoint(mgl32.Vec3{float32(acc.Min[0]), float32(acc.Min[1]), float32(acc.Min[2])})
		m.Bounds.ExpandByPoint(mgl32.Vec3{float32(acc.Max[0]), float32(acc.Max[1]), float32(acc.Max[2])})
	}

	live := &b.loader.live
	live.Add(1)
	m.OnRelease(func() error {
		live.Add(-1)
		return nil
	})
	return m, nil
}
