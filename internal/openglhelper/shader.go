package openglhelper

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrReleased is returned when an operation targets a resource whose driver
// object has already been deleted.
var ErrReleased = errors.New("resource already released")

// StageKind identifies one programmable pipeline stage.
type StageKind int

const (
	VertexStage StageKind = iota
	FragmentStage
	GeometryStage
)

// GLEnum returns the driver constant for the stage. ok is false for values
// outside the enumeration.
func (k StageKind) GLEnum() (enum uint32, ok bool) {
	switch k {
	case VertexStage:
		return gl.VERTEX_SHADER, true
	case FragmentStage:
		return gl.FRAGMENT_SHADER, true
	case GeometryStage:
		return gl.GEOMETRY_SHADER, true
	default:
		return 0, false
	}
}

// Valid reports whether k is one of the declared stages.
func (k StageKind) Valid() bool {
	_, ok := k.GLEnum()
	return ok
}

func (k StageKind) String() string {
	switch k {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case GeometryStage:
		return "geometry"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// StageFile names a source file for one stage.
type StageFile struct {
	Kind StageKind
	Path string
}

// UniformSetter is the subset of a program that meshes need to bind samplers.
type UniformSetter interface {
	SetInt(name string, value int32)
}

// Shader represents an OpenGL shader program
type Shader struct {
	ID       uint32
	linked   bool
	released bool
}

// compileShader compiles a single shader. The stage object is deleted when
// compilation fails.
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

// NewProgram creates an empty program ready for AttachStage.
func NewProgram() *Shader {
	return &Shader{ID: gl.CreateProgram()}
}

// NewShader creates a new shader program from vertex and fragment shader source
func NewShader(vertexShaderSource, fragmentShaderSource string) (*Shader, error) {
	s := NewProgram()
	if err := s.AttachStage(vertexShaderSource, VertexStage); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.AttachStage(fragmentShaderSource, FragmentStage); err != nil {
		s.Destroy()
		return nil, err
	}
	if err := s.Link(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadShaderFromFiles builds and links a program from one file per stage.
func LoadShaderFromFiles(stages ...StageFile) (*Shader, error) {
	s := NewProgram()
	for _, stage := range stages {
		if err := s.AttachStageFile(stage.Path, stage.Kind); err != nil {
			s.Destroy()
			return nil, err
		}
	}
	if err := s.Link(); err != nil {
		return nil, err
	}
	return s, nil
}

// AttachStage compiles source as the given stage and attaches it. The compiled
// stage object is deleted right after attachment; the program keeps it alive.
func (s *Shader) AttachStage(source string, kind StageKind) error {
	if s.released {
		return ErrReleased
	}
	shaderType, ok := kind.GLEnum()
	if !ok {
		return fmt.Errorf("unknown shader stage %v", kind)
	}

	stage, err := compileShader(source, shaderType)
	if err != nil {
		return fmt.Errorf("%v shader compilation failed: %w", kind, err)
	}

	gl.AttachShader(s.ID, stage)
	gl.DeleteShader(stage)
	return nil
}

// AttachStageFile reads path and attaches it as the given stage.
func (s *Shader) AttachStageFile(path string, kind StageKind) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %v shader file: %w", kind, err)
	}
	if err := s.AttachStage(string(source), kind); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Link links the attached stages. On failure the program is deleted and the
// Shader must not be used again.
func (s *Shader) Link() error {
	if s.released {
		return ErrReleased
	}
	if err := linkProgram(s.ID); err != nil {
		s.Destroy()
		return err
	}
	s.linked = true
	return nil
}

// linkProgram and deleteProgram are the driver calls behind Link and Destroy.
var (
	linkProgram   = glLinkProgram
	deleteProgram = func(id uint32) { gl.DeleteProgram(id) }
)

func glLinkProgram(id uint32) error {
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		return fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return nil
}

// Linked reports whether Link succeeded and the program is still alive.
func (s *Shader) Linked() bool {
	return s.linked && !s.released
}

// Use activates the shader program
func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

// Destroy releases the shader program
func (s *Shader) Destroy() {
	if s.released {
		return
	}
	deleteProgram(s.ID)
	s.ID = 0
	s.released = true
}

// location looks the uniform up on every call. Unknown names and released
// programs yield -1, which the upload functions ignore.
func (s *Shader) location(name string) int32 {
	if s.released {
		return -1
	}
	return gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
}

// SetBool sets a boolean uniform
func (s *Shader) SetBool(name string, value bool) {
	var intValue int32
	if value {
		intValue = 1
	}
	gl.Uniform1i(s.location(name), intValue)
}

// SetInt sets an integer uniform
func (s *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(s.location(name), value)
}

// SetFloat sets a float uniform
func (s *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(s.location(name), value)
}

// SetDouble sets a double uniform
func (s *Shader) SetDouble(name string, value float64) {
	gl.Uniform1d(s.location(name), value)
}

// SetVec2 sets a vec2 uniform
func (s *Shader) SetVec2(name string, vec mgl32.Vec2) {
	gl.Uniform2fv(s.location(name), 1, &vec[0])
}

// SetVec3 sets a vec3 uniform
func (s *Shader) SetVec3(name string, vec mgl32.Vec3) {
	gl.Uniform3fv(s.location(name), 1, &vec[0])
}

// SetVec4 sets a vec4 uniform
func (s *Shader) SetVec4(name string, vec mgl32.Vec4) {
	gl.Uniform4fv(s.location(name), 1, &vec[0])
}

// SetMat4 sets a mat4 uniform
func (s *Shader) SetMat4(name string, mat mgl32.Mat4) {
	gl.UniformMatrix4fv(s.location(name), 1, false, &mat[0])
}
