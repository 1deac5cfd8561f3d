package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/leterax/go-skyview/internal/openglhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// countingLoader hands out placeholder textures and records every load.
type countingLoader struct {
	calls []string
	fail  map[string]bool
}

func (c *countingLoader) load(path string) (*openglhelper.Texture, error) {
	c.calls = append(c.calls, path)
	if c.fail[path] {
		return nil, errors.New("decode failed")
	}
	return &openglhelper.Texture{}, nil
}

type stubImporter struct {
	scene *Scene
	err   error
}

func (s stubImporter) Import(string, ImportFlags) (*Scene, error) {
	return s.scene, s.err
}

func mesh(name string, material int) SceneMesh {
	return SceneMesh{Name: name, Material: material}
}

func meshNames(meshes []SceneMesh) []string {
	names := make([]string, len(meshes))
	for i, m := range meshes {
		names[i] = m.Name
	}
	return names
}

func TestFlattenNodeIsPreOrder(t *testing.T) {
	scene := &Scene{
		Meshes: []SceneMesh{mesh("a", -1), mesh("b", -1), mesh("c", -1), mesh("d", -1), mesh("e", -1)},
	}
	scene.Root = &Node{
		Meshes: []int{4},
		Children: []*Node{
			{Meshes: []int{0, 1}, Children: []*Node{{Meshes: []int{3}}}},
			{Meshes: []int{2}},
		},
	}

	assert.Equal(t, []string{"e", "a", "b", "d", "c"}, meshNames(flattenNode(scene, scene.Root)))
}

func TestFlattenNodeSkipsBadIndices(t *testing.T) {
	scene := &Scene{Meshes: []SceneMesh{mesh("a", -1)}}
	scene.Root = &Node{Meshes: []int{-1, 0, 7}}

	assert.Equal(t, []string{"a"}, meshNames(flattenNode(scene, scene.Root)))
	assert.Empty(t, flattenNode(scene, nil))
}

func TestPrepareDeduplicatesTexturesByPath(t *testing.T) {
	scene := &Scene{
		Meshes: []SceneMesh{mesh("first", 0), mesh("second", 1)},
		Materials: []Material{
			{Name: "m0", Diffuse: []string{"diffuse.png"}},
			{Name: "m1", Diffuse: []string{"diffuse.png"}, Specular: []string{"specular.png"}},
		},
	}
	scene.Root = &Node{Meshes: []int{0, 1}}

	loader := &countingLoader{}
	l := Loader{Logger: zaptest.NewLogger(t)}
	specs := l.prepare(scene, newTextureCache("assets", loader.load))

	require.Len(t, specs, 2)
	assert.Equal(t, []string{
		filepath.Join("assets", "diffuse.png"),
		filepath.Join("assets", "specular.png"),
	}, loader.calls)

	require.Len(t, specs[0].Textures, 1)
	require.Len(t, specs[1].Textures, 2)
	assert.Same(t, specs[0].Textures[0].Texture, specs[1].Textures[0].Texture)
	assert.Equal(t, openglhelper.DiffuseTexture, specs[1].Textures[0].Kind)
	assert.Equal(t, openglhelper.SpecularTexture, specs[1].Textures[1].Kind)
	assert.Equal(t, "diffuse.png", specs[1].Textures[0].Path)
}

func TestPrepareComparesExactPaths(t *testing.T) {
	scene := &Scene{
		Meshes: []SceneMesh{mesh("a", 0), mesh("b", 1)},
		Materials: []Material{
			{Diffuse: []string{"tex/a.png"}},
			{Diffuse: []string{"tex/../tex/a.png"}},
		},
	}
	scene.Root = &Node{Meshes: []int{0, 1}}

	loader := &countingLoader{}
	Loader{}.withDefaults().prepare(scene, newTextureCache("", loader.load))
	assert.Len(t, loader.calls, 2)
}

func TestPrepareSkipsFailedTextures(t *testing.T) {
	scene := &Scene{
		Meshes:    []SceneMesh{mesh("a", 0), mesh("plain", -1)},
		Materials: []Material{{Diffuse: []string{"missing.png", "ok.png"}}},
	}
	scene.Root = &Node{Meshes: []int{0, 1}}

	loader := &countingLoader{fail: map[string]bool{"missing.png": true}}
	l := Loader{Logger: zaptest.NewLogger(t)}
	specs := l.prepare(scene, newTextureCache("", loader.load))

	require.Len(t, specs, 2)
	require.Len(t, specs[0].Textures, 1)
	assert.Equal(t, "ok.png", specs[0].Textures[0].Path)
	assert.Empty(t, specs[1].Textures)
}

func TestLoadFailureLeavesEmptyModel(t *testing.T) {
	tests := []struct {
		name     string
		importer Importer
		is       error
	}{
		{"import error", stubImporter{err: errors.New("no such file")}, nil},
		{"no root", stubImporter{scene: &Scene{}}, nil},
		{"incomplete", stubImporter{scene: &Scene{Root: &Node{}, Incomplete: true}}, ErrIncompleteScene},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &countingLoader{}
			m, err := Loader{Importer: tt.importer, Textures: loader.load, Logger: zaptest.NewLogger(t)}.
				Load("models/missing.obj", Triangulate)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			require.NotNil(t, m)
			assert.Empty(t, m.Meshes())
			assert.Zero(t, m.TextureCount())
			assert.Empty(t, loader.calls)

			m.Render(nil)
			m.Destroy()
			m.Destroy()
		})
	}
}

func TestZeroModelIsSafe(t *testing.T) {
	var m Model
	m.Render(nil)
	m.Destroy()
	assert.Empty(t, m.Meshes())
}

func TestImportFlags(t *testing.T) {
	flags := Triangulate | FlipUVs
	assert.True(t, flags.Has(Triangulate))
	assert.True(t, flags.Has(FlipUVs|Triangulate))
	assert.False(t, flags.Has(OptimizeGraph))
	assert.False(t, flags.Has(FlipUVs|OptimizeMeshes))
}

func TestPrepareLoadsMissingSharedTextureOnce(t *testing.T) {
	scene := &Scene{
		Meshes: []SceneMesh{mesh("a", 0), mesh("b", 0), mesh("c", 1)},
		Materials: []Material{
			{Diffuse: []string{"missing.png"}},
			{Diffuse: []string{"missing.png"}, Specular: []string{"spec.png"}},
		},
	}
	scene.Root = &Node{Meshes: []int{0, 1, 2}}

	core, logs := observer.New(zap.ErrorLevel)
	loader := &countingLoader{fail: map[string]bool{"missing.png": true}}
	specs := Loader{Logger: zap.New(core)}.prepare(scene, newTextureCache("", loader.load))

	assert.Equal(t, []string{"missing.png", "spec.png"}, loader.calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to load texture").Len())
	require.Len(t, specs, 3)
	assert.Empty(t, specs[0].Textures)
	assert.Empty(t, specs[1].Textures)
	require.Len(t, specs[2].Textures, 1)
	assert.Equal(t, openglhelper.SpecularTexture, specs[2].Textures[0].Kind)
}

func TestModelDestroyReleasesOwnedTextures(t *testing.T) {
	a, b := &openglhelper.Texture{}, &openglhelper.Texture{}
	m := &Model{textures: []*openglhelper.Texture{a, b}}

	m.Destroy()
	assert.True(t, a.Released())
	assert.True(t, b.Released())
	assert.Zero(t, m.TextureCount())
	m.Destroy()
}
