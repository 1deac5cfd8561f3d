package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/leterax/go-skyview/internal/openglhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProgram struct {
	version   int
	destroyed int
}

func (p *stubProgram) Use()                       {}
func (p *stubProgram) SetInt(string, int32)       {}
func (p *stubProgram) SetMat4(string, mgl32.Mat4) {}
func (p *stubProgram) Destroy()                   { p.destroyed++ }

// stubBuilder hands out numbered programs and fails while fail is set.
type stubBuilder struct {
	built []*stubProgram
	fail  bool
}

func (b *stubBuilder) build(...openglhelper.StageFile) (CompiledProgram, error) {
	if b.fail {
		return nil, errors.New("link failed")
	}
	p := &stubProgram{version: len(b.built) + 1}
	b.built = append(b.built, p)
	return p, nil
}

func sceneStages(dir string) []openglhelper.StageFile {
	return []openglhelper.StageFile{
		{Kind: openglhelper.VertexStage, Path: filepath.Join(dir, "scene.vert")},
		{Kind: openglhelper.FragmentStage, Path: filepath.Join(dir, "scene.frag")},
	}
}

func current(t *testing.T, p *LiveProgram) *stubProgram {
	t.Helper()
	require.True(t, p.Ready())
	return p.current.(*stubProgram)
}

func TestShaderLibraryAddBuilds(t *testing.T) {
	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)

	p, err := lib.Add("scene", sceneStages("shaders")...)
	require.NoError(t, err)
	assert.Equal(t, "scene", p.Name())
	assert.Equal(t, 1, current(t, p).version)
	assert.Same(t, p, lib.Program("scene"))
	assert.Nil(t, lib.Program("missing"))
}

func TestShaderLibraryReloadSwapsOnSuccess(t *testing.T) {
	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)
	p, err := lib.Add("scene", sceneStages("shaders")...)
	require.NoError(t, err)
	old := current(t, p)

	assert.Equal(t, 0, lib.Reload(), "nothing changed")

	require.True(t, lib.Invalidate(filepath.Join("shaders", "scene.frag")))
	assert.Equal(t, 1, lib.Reload())
	assert.Equal(t, 2, current(t, p).version)
	assert.Equal(t, 1, old.destroyed)

	assert.Equal(t, 0, lib.Reload(), "dirty set is cleared")
}

func TestShaderLibraryReloadKeepsOldProgramOnFailure(t *testing.T) {
	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)
	p, err := lib.Add("scene", sceneStages("shaders")...)
	require.NoError(t, err)
	old := current(t, p)

	b.fail = true
	lib.Invalidate(filepath.Join("shaders", "scene.vert"))
	assert.Equal(t, 0, lib.Reload())
	assert.Same(t, old, current(t, p))
	assert.Zero(t, old.destroyed)
}

func TestShaderLibraryRetriesFailedInitialBuild(t *testing.T) {
	b := &stubBuilder{fail: true}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)

	p, err := lib.Add("scene", sceneStages("shaders")...)
	require.Error(t, err)
	require.NotNil(t, p)
	assert.False(t, p.Ready())

	// Calls on an unbuilt program are no-ops.
	p.Use()
	p.SetInt(UniformSkyboxTexture, 0)
	p.SetMat4(UniformPV, mgl32.Ident4())

	b.fail = false
	lib.Invalidate(filepath.Join("shaders", "scene.vert"))
	assert.Equal(t, 1, lib.Reload())
	assert.True(t, p.Ready())
}

func TestShaderLibraryInvalidateOnlyAffectsUsers(t *testing.T) {
	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)
	scene, err := lib.Add("scene", sceneStages("shaders")...)
	require.NoError(t, err)
	post, err := lib.Add("post",
		openglhelper.StageFile{Kind: openglhelper.VertexStage, Path: "shaders/post.vert"},
		openglhelper.StageFile{Kind: openglhelper.FragmentStage, Path: "shaders/post.frag"},
	)
	require.NoError(t, err)

	assert.False(t, lib.Invalidate("shaders/unrelated.glsl"))
	assert.True(t, lib.Invalidate("./shaders/post.frag"))
	assert.Equal(t, 1, lib.Reload())

	assert.Equal(t, 1, current(t, scene).version)
	assert.Equal(t, 3, current(t, post).version)
}

func TestShaderLibraryDestroyReleasesPrograms(t *testing.T) {
	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)
	p, err := lib.Add("scene", sceneStages("shaders")...)
	require.NoError(t, err)
	built := current(t, p)

	lib.Destroy()
	lib.Destroy()
	assert.Equal(t, 1, built.destroyed)
	assert.False(t, p.Ready())
}

func TestShaderLibraryWatchPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	stages := sceneStages(dir)
	for _, s := range stages {
		require.NoError(t, os.WriteFile(s.Path, []byte("#version 460 core\n"), 0o644))
	}

	b := &stubBuilder{}
	lib := NewShaderLibrary(zaptest.NewLogger(t), b.build)
	p, err := lib.Add("scene", stages...)
	require.NoError(t, err)
	require.NoError(t, lib.Watch())
	defer lib.Destroy()

	require.NoError(t, os.WriteFile(stages[1].Path, []byte("#version 460 core\nvoid main() {}\n"), 0o644))

	require.Eventually(t, func() bool {
		lib.Reload()
		return p.current.(*stubProgram).version > 1
	}, 5*time.Second, 20*time.Millisecond)
}
