// Package config holds the viewer's tunables and loads overrides from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SkyboxFaceCount is the number of cubemap faces listed in Assets.SkyboxFaces.
const SkyboxFaceCount = 6

// Config is the full viewer configuration.
type Config struct {
	Window  Window  `yaml:"window"`
	Render  Render  `yaml:"render"`
	Camera  Camera  `yaml:"camera"`
	Assets  Assets  `yaml:"assets"`
	Shaders Shaders `yaml:"shaders"`
}

// Window holds the window and swap settings.
type Window struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Debug      bool   `yaml:"debug"` // GL debug context
}

// Render holds the offscreen target settings.
type Render struct {
	MSAA       bool       `yaml:"msaa"`
	Samples    int        `yaml:"samples"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// Camera holds the initial pose and the motion tunables.
type Camera struct {
	Position  [3]float32 `yaml:"position"`
	Front     [3]float32 `yaml:"front"`
	MoveSpeed float32    `yaml:"move_speed"`
	LookSpeed float32    `yaml:"look_speed"`
	FOV       float32    `yaml:"fov"`
	MinFOV    float32    `yaml:"min_fov"`
	MaxFOV    float32    `yaml:"max_fov"`
}

// Assets names the files loaded at startup.
type Assets struct {
	Model       string   `yaml:"model"`
	SkyboxCube  string   `yaml:"skybox_cube"`
	SkyboxFaces []string `yaml:"skybox_faces"` // +X, -X, +Y, -Y, +Z, -Z
}

// Shaders locates the GLSL sources.
type Shaders struct {
	Dir       string `yaml:"dir"`
	HotReload bool   `yaml:"hot_reload"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: Window{
			Width:      800,
			Height:     600,
			Title:      "LearningOpenGL",
			Fullscreen: true,
			VSync:      true,
		},
		Render: Render{
			MSAA:       true,
			Samples:    4,
			ClearColor: [4]float32{0.2, 0.3, 0.3, 1.0},
		},
		Camera: Camera{
			Position:  [3]float32{0, 0, 3},
			Front:     [3]float32{0, 0, -1},
			MoveSpeed: 2.5,
			LookSpeed: 0.3,
			FOV:       70,
			MinFOV:    0.1,
			MaxFOV:    120,
		},
		Assets: Assets{
			Model:       filepath.Join("assets", "models", "survival_backpack", "backpack.obj"),
			SkyboxCube:  filepath.Join("assets", "models", "cube.obj"),
			SkyboxFaces: SkyboxFaces(filepath.Join("assets", "textures", "skybox"), ".jpg"),
		},
		Shaders: Shaders{
			Dir:       filepath.Join("pkg", "render", "shaders"),
			HotReload: true,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path yields the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the renderer cannot work with.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Render.MSAA && c.Render.Samples < 1 {
		return fmt.Errorf("msaa needs at least 1 sample, got %d", c.Render.Samples)
	}
	cam := c.Camera
	if cam.MinFOV <= 0 || cam.MinFOV > cam.MaxFOV {
		return fmt.Errorf("fov bounds [%g, %g] are invalid", cam.MinFOV, cam.MaxFOV)
	}
	if cam.FOV < cam.MinFOV || cam.FOV > cam.MaxFOV {
		return fmt.Errorf("fov %g outside [%g, %g]", cam.FOV, cam.MinFOV, cam.MaxFOV)
	}
	if cam.Front == [3]float32{} {
		return errors.New("camera front must not be zero")
	}
	if n := len(c.Assets.SkyboxFaces); n != SkyboxFaceCount {
		return fmt.Errorf("skybox needs %d faces, got %d", SkyboxFaceCount, n)
	}
	if c.Shaders.Dir == "" {
		return errors.New("shader directory is empty")
	}
	return nil
}

// SkyboxFaces returns the face paths in cubemap upload order (+X, -X, +Y,
// -Y, +Z, -Z) for files named right, left, top, bottom, front and back.
func SkyboxFaces(dir, ext string) []string {
	names := [SkyboxFaceCount]string{"right", "left", "top", "bottom", "front", "back"}
	faces := make([]string, 0, SkyboxFaceCount)
	for _, name := range names {
		faces = append(faces, filepath.Join(dir, name+ext))
	}
	return faces
}

// SkyboxFaceArray returns the face paths as a fixed array. Validate must have
// passed.
func (a Assets) SkyboxFaceArray() [SkyboxFaceCount]string {
	var faces [SkyboxFaceCount]string
	copy(faces[:], a.SkyboxFaces)
	return faces
}
