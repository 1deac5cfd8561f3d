package render

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/leterax/go-skyview/internal/openglhelper"
	"go.uber.org/zap"
)

// CompiledProgram is a linked program owned by a LiveProgram.
type CompiledProgram interface {
	Program
	Destroy()
}

// ProgramBuilder compiles and links one program from its stage files.
type ProgramBuilder func(stages ...openglhelper.StageFile) (CompiledProgram, error)

// BuildFromFiles is the driver-backed ProgramBuilder.
func BuildFromFiles(stages ...openglhelper.StageFile) (CompiledProgram, error) {
	s, err := openglhelper.LoadShaderFromFiles(stages...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LiveProgram is a stable handle to a program whose linked object may be
// swapped by ShaderLibrary.Reload. Before the first successful build every
// call is a no-op.
type LiveProgram struct {
	name    string
	stages  []openglhelper.StageFile
	current CompiledProgram
}

// Name returns the program's library key.
func (p *LiveProgram) Name() string { return p.name }

// Ready reports whether a linked program is installed.
func (p *LiveProgram) Ready() bool { return p.current != nil }

func (p *LiveProgram) Use() {
	if p.current != nil {
		p.current.Use()
	}
}

func (p *LiveProgram) SetInt(name string, value int32) {
	if p.current != nil {
		p.current.SetInt(name, value)
	}
}

func (p *LiveProgram) SetMat4(name string, value mgl32.Mat4) {
	if p.current != nil {
		p.current.SetMat4(name, value)
	}
}

// Destroy releases the installed program.
func (p *LiveProgram) Destroy() {
	if p.current != nil {
		p.current.Destroy()
		p.current = nil
	}
}

// ShaderLibrary owns the application's programs and rebuilds them when their
// source files change on disk.
//
// Reload must run on the thread that owns the GL context. File events are
// queued by fsnotify and drained there without blocking.
type ShaderLibrary struct {
	logger *zap.Logger
	build  ProgramBuilder

	programs []*LiveProgram
	byPath   map[string][]*LiveProgram
	dirty    map[*LiveProgram]struct{}

	watcher *fsnotify.Watcher
	watched map[string]struct{}
}

// NewShaderLibrary creates an empty library. A nil build uses BuildFromFiles.
func NewShaderLibrary(logger *zap.Logger, build ProgramBuilder) *ShaderLibrary {
	if build == nil {
		build = BuildFromFiles
	}
	return &ShaderLibrary{
		logger:  logger,
		build:   build,
		byPath:  make(map[string][]*LiveProgram),
		dirty:   make(map[*LiveProgram]struct{}),
		watched: make(map[string]struct{}),
	}
}

// Add registers and builds a program. On a build error the returned handle
// is still registered and is retried the next time one of its files changes.
func (l *ShaderLibrary) Add(name string, stages ...openglhelper.StageFile) (*LiveProgram, error) {
	p := &LiveProgram{name: name, stages: stages}
	l.programs = append(l.programs, p)
	for _, stage := range stages {
		key := pathKey(stage.Path)
		l.byPath[key] = append(l.byPath[key], p)
	}

	compiled, err := l.build(stages...)
	if err != nil {
		return p, fmt.Errorf("build %s program: %w", name, err)
	}
	p.current = compiled
	return p, nil
}

// Program returns the program registered under name, or nil.
func (l *ShaderLibrary) Program(name string) *LiveProgram {
	for _, p := range l.programs {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Watch starts watching the directories of every registered stage file.
func (l *ShaderLibrary) Watch() error {
	if l.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create shader watcher: %w", err)
		}
		l.watcher = w
	}

	for path := range l.byPath {
		dir := filepath.Dir(path)
		if _, ok := l.watched[dir]; ok {
			continue
		}
		if err := l.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		l.watched[dir] = struct{}{}
	}
	return nil
}

// Invalidate marks every program using path for rebuilding on the next
// Reload. It reports whether any program uses the file.
func (l *ShaderLibrary) Invalidate(path string) bool {
	users := l.byPath[pathKey(path)]
	for _, p := range users {
		l.dirty[p] = struct{}{}
	}
	return len(users) > 0
}

// Reload drains pending file events and rebuilds invalidated programs. A
// rebuilt program replaces the old one only if it links; otherwise the error
// is logged and the old program stays in use. It returns the number of
// programs swapped.
func (l *ShaderLibrary) Reload() int {
	l.drainEvents()
	if len(l.dirty) == 0 {
		return 0
	}

	swapped := 0
	for _, p := range l.programs {
		if _, ok := l.dirty[p]; !ok {
			continue
		}
		delete(l.dirty, p)

		compiled, err := l.build(p.stages...)
		if err != nil {
			l.logger.Error("Shader reload failed, keeping previous program",
				zap.String("program", p.name), zap.Error(err))
			continue
		}
		if p.current != nil {
			p.current.Destroy()
		}
		p.current = compiled
		swapped++
		l.logger.Info("Reloaded shader program", zap.String("program", p.name))
	}
	return swapped
}

func (l *ShaderLibrary) drainEvents() {
	if l.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				l.Invalidate(event.Name)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("Shader watcher error", zap.Error(err))
		default:
			return
		}
	}
}

// Destroy stops watching and releases every program.
func (l *ShaderLibrary) Destroy() {
	if l.watcher != nil {
		if err := l.watcher.Close(); err != nil {
			l.logger.Warn("Failed to close shader watcher", zap.Error(err))
		}
		l.watcher = nil
	}
	for i := len(l.programs) - 1; i >= 0; i-- {
		l.programs[i].Destroy()
	}
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
