package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tower.gltf: a root "Tower" raised 2 units holding a body mesh spanning
// Y in [-1, 9] and a roof child offset by 10 spanning Y in [0, 2].
const towerGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Tower", "translation": [0, 2, 0], "mesh": 0, "children": [1]},
    {"name": "Roof", "translation": [0, 10, 0], "mesh": 1}
  ],
  "meshes": [
    {"name": "body", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]},
    {"name": "roof", "primitives": [{"attributes": {"POSITION": 1}}]}
  ],
  "materials": [{"name": "concrete"}],
  "accessors": [
    {"componentType": 5126, "count": 24, "type": "VEC3", "min": [-2, -1, -2], "max": [2, 9, 2]},
    {"componentType": 5126, "count": 12, "type": "VEC3", "min": [-3, 0, -3], "max": [3, 2, 3]}
  ]
}`

func writeAsset(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFile(t *testing.T) {
	l := NewGLTFLoader(GLTFLoaderOptions{})
	root, err := l.Load(context.Background(), writeAsset(t, "tower.gltf", towerGLTF))
	require.NoError(t, err)

	assert.Equal(t, "tower", root.Name)
	require.Len(t, root.Children, 1)
	tower := root.Children[0]
	assert.Equal(t, "Tower", tower.Name)
	require.Len(t, tower.Children, 1)
	assert.Equal(t, "Roof", tower.Children[0].Name)

	stats := root.Stats()
	assert.Equal(t, 2, stats.Meshes)
	assert.Equal(t, 36, stats.Vertices)
	assert.Equal(t, 1, stats.Materials)

	root.UpdateWorldMatrix()
	box := root.WorldAABB()
	assert.InDelta(t, 1, box.Min.Y(), 1e-5)
	assert.InDelta(t, 14, box.Max.Y(), 1e-5)
	assert.InDelta(t, -3, box.Min.X(), 1e-5)
	assert.InDelta(t, 3, box.Max.Z(), 1e-5)
}

func TestLoadReturnsFreshTrees(t *testing.T) {
	l := NewGLTFLoader(GLTFLoaderOptions{})
	ref := writeAsset(t, "tower.gltf", towerGLTF)

	a, err := l.Load(context.Background(), ref)
	require.NoError(t, err)
	b, err := l.Load(context.Background(), ref)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.EqualValues(t, 4, l.LiveMeshes())

	require.NoError(t, a.Dispose())
	assert.EqualValues(t, 2, l.LiveMeshes())
	require.NoError(t, b.Dispose())
	assert.EqualValues(t, 0, l.LiveMeshes())

	// Disposing twice must not release twice.
	require.NoError(t, a.Dispose())
	assert.EqualValues(t, 0, l.LiveMeshes())
}

func TestLoadFailures(t *testing.T) {
	l := NewGLTFLoader(GLTFLoaderOptions{})

	tests := []struct {
		name string
		ref  string
	}{
		{"empty ref", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.glb")},
		{"malformed file", writeAsset(t, "broken.gltf", `{"asset": {`)},
		{"bad node index", writeAsset(t, "dangling.gltf", `{"asset": {"version": "2.0"}, "scenes": [{"nodes": [3]}]}`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root, err := l.Load(context.Background(), tc.ref)
			assert.Nil(t, root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAssetLoad), "got %v", err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tc.ref, le.Ref)
		})
	}
	assert.EqualValues(t, 0, l.LiveMeshes())
}

func TestLoadCancelled(t *testing.T) {
	l := NewGLTFLoader(GLTFLoaderOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, writeAsset(t, "tower.gltf", towerGLTF))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssetLoad))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadRemoteCachesBytes(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/tower.gltf" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "model/gltf+json")
		_, _ = w.Write([]byte(towerGLTF))
	}))
	defer srv.Close()

	l := NewGLTFLoader(GLTFLoaderOptions{HTTPRetries: 0})
	url := srv.URL + "/models/tower.gltf?v=3"

	for i := 0; i < 3; i++ {
		root, err := l.Load(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "tower", root.Name)
		require.NoError(t, root.Dispose())
	}
	assert.EqualValues(t, 1, hits.Load())

	_, err := l.Load(context.Background(), srv.URL+"/models/missing.glb")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssetLoad))
	assert.Contains(t, err.Error(), "404")
}

func TestAssetName(t *testing.T) {
	assert.Equal(t, "silo", assetName("/data/silo.glb"))
	assert.Equal(t, "preheater", assetName("https://cdn.example.com/m/preheater.gltf?rev=2"))
	assert.Equal(t, "storage", assetName("storage"))
}
