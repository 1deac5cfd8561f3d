package model

import (
	"fmt"
	"path/filepath"

	"github.com/leterax/go-skyview/internal/openglhelper"
	"go.uber.org/zap"
)

// TextureLoader decodes and uploads the image at path.
type TextureLoader func(path string) (*openglhelper.Texture, error)

// Loader turns scene files into Models. Zero fields fall back to the OBJ
// importer, openglhelper.Create2DImage and a no-op logger.
type Loader struct {
	Importer Importer
	Textures TextureLoader
	Logger   *zap.Logger
}

// Model is the set of meshes of one scene file. It owns every texture its
// meshes sample; meshes only borrow them. The zero value is an empty model
// that renders nothing.
type Model struct {
	meshes   []*openglhelper.Mesh
	textures []*openglhelper.Texture
	released bool
}

// meshSpec is a scene mesh with its textures resolved.
type meshSpec struct {
	SceneMesh
	Textures []openglhelper.TextureRef
}

// textureCache loads each texture path of a model once, whether the load
// succeeds or fails. Paths are compared as written in the material and
// resolved against dir.
type textureCache struct {
	dir    string
	load   TextureLoader
	byPath map[string]*openglhelper.Texture
	failed map[string]error
	order  []*openglhelper.Texture
}

func newTextureCache(dir string, load TextureLoader) *textureCache {
	return &textureCache{
		dir:    dir,
		load:   load,
		byPath: make(map[string]*openglhelper.Texture),
		failed: make(map[string]error),
	}
}

// get returns the texture for path. fresh is false when the result came
// from an earlier call.
func (c *textureCache) get(path string) (t *openglhelper.Texture, fresh bool, err error) {
	if t, ok := c.byPath[path]; ok {
		return t, false, nil
	}
	if err, ok := c.failed[path]; ok {
		return nil, false, err
	}
	t, err = c.load(filepath.Join(c.dir, path))
	if err != nil {
		err = fmt.Errorf("texture %s: %w", path, err)
		c.failed[path] = err
		return nil, true, err
	}
	c.byPath[path] = t
	c.order = append(c.order, t)
	return t, true, nil
}

// refs resolves the diffuse then specular textures of m. Textures that fail
// to load are left out. Each failing path's error is returned once per
// cache.
func (c *textureCache) refs(m Material) ([]openglhelper.TextureRef, []error) {
	var refs []openglhelper.TextureRef
	var errs []error
	add := func(paths []string, kind openglhelper.TextureKind) {
		for _, p := range paths {
			t, fresh, err := c.get(p)
			if err != nil {
				if fresh {
					errs = append(errs, err)
				}
				continue
			}
			refs = append(refs, openglhelper.TextureRef{Texture: t, Kind: kind, Path: p})
		}
	}
	add(m.Diffuse, openglhelper.DiffuseTexture)
	add(m.Specular, openglhelper.SpecularTexture)
	return refs, errs
}

func (l Loader) withDefaults() Loader {
	if l.Importer == nil {
		l.Importer = OBJImporter{}
	}
	if l.Textures == nil {
		l.Textures = openglhelper.Create2DImage
	}
	if l.Logger == nil {
		l.Logger = zap.NewNop()
	}
	return l
}

// Load imports path and uploads its meshes and textures. On an import error
// it returns an empty Model along with the error. Texture and mesh failures
// are logged and the affected texture or mesh is skipped.
func (l Loader) Load(path string, flags ImportFlags) (*Model, error) {
	l = l.withDefaults()

	scene, err := l.Importer.Import(path, flags)
	if err != nil {
		return &Model{}, fmt.Errorf("failed to import %s: %w", path, err)
	}
	if err := scene.validate(); err != nil {
		return &Model{}, fmt.Errorf("failed to import %s: %w", path, err)
	}

	cache := newTextureCache(filepath.Dir(path), l.Textures)
	specs := l.prepare(scene, cache)

	m := &Model{textures: cache.order}
	for _, spec := range specs {
		mesh, err := openglhelper.NewMesh(spec.Vertices, spec.Indices, spec.Textures)
		if err != nil {
			l.Logger.Error("Skipping mesh", zap.String("model", path), zap.String("mesh", spec.Name), zap.Error(err))
			continue
		}
		m.meshes = append(m.meshes, mesh)
	}

	l.Logger.Info("Loaded model",
		zap.String("path", path),
		zap.Int("meshes", len(m.meshes)),
		zap.Int("textures", len(m.textures)))
	return m, nil
}

// prepare flattens the scene and resolves every mesh's textures through cache.
func (l Loader) prepare(scene *Scene, cache *textureCache) []meshSpec {
	flat := flattenNode(scene, scene.Root)
	specs := make([]meshSpec, 0, len(flat))
	for _, sm := range flat {
		spec := meshSpec{SceneMesh: sm}
		if sm.Material >= 0 && sm.Material < len(scene.Materials) {
			refs, errs := cache.refs(scene.Materials[sm.Material])
			for _, err := range errs {
				l.Logger.Error("Failed to load texture", zap.String("mesh", sm.Name), zap.Error(err))
			}
			spec.Textures = refs
		}
		specs = append(specs, spec)
	}
	return specs
}

// Render draws every mesh with s bound.
func (m *Model) Render(s openglhelper.UniformSetter) {
	for _, mesh := range m.meshes {
		mesh.Render(s)
	}
}

// Meshes returns the uploaded meshes.
func (m *Model) Meshes() []*openglhelper.Mesh {
	return m.meshes
}

// TextureCount returns the number of distinct textures loaded.
func (m *Model) TextureCount() int {
	return len(m.textures)
}

// Destroy releases every mesh, then the textures they shared. Safe to call
// more than once.
func (m *Model) Destroy() {
	if m.released {
		return
	}
	for _, mesh := range m.meshes {
		mesh.Destroy()
	}
	for _, t := range m.textures {
		t.Destroy()
	}
	m.meshes = nil
	m.textures = nil
	m.released = true
}
