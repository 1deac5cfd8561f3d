package render

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/leterax/go-skyview/internal/logger"
	"github.com/leterax/go-skyview/internal/openglhelper"
	"github.com/leterax/go-skyview/pkg/config"
	"github.com/leterax/go-skyview/pkg/model"
	"go.uber.org/zap"
)

// Import flags for the two scene files.
const (
	ModelImportFlags  = model.Triangulate | model.FlipUVs
	SkyboxImportFlags = model.FlipUVs | model.OptimizeMeshes | model.OptimizeGraph
)

// Renderer handles rendering logic and the frame loop. It owns every GPU
// resource of the application.
type Renderer struct {
	cfg    config.Config
	logger *zap.Logger

	window *openglhelper.Window
	gpu    openglhelper.Context
	camera *Camera

	shaders    *ShaderLibrary
	scene      *model.Model
	skyboxCube *model.Model
	cubemap    *openglhelper.Texture
	quad       *openglhelper.Quad

	// Offscreen targets, recreated after a resize
	msaa    *openglhelper.Framebuffer
	resolve *openglhelper.Framebuffer

	compositor *Compositor

	// Framebuffer dimensions
	width         int
	height        int
	aspect        float32
	pendingResize bool

	// Timing
	lastFrameTime float64
	deltaTime     float32

	resources openglhelper.Resources
	lastErr   string
}

// NewRenderer opens the window and loads every resource. Window, context and
// render target failures are returned; asset failures are logged and leave
// the affected resource empty.
func NewRenderer(cfg config.Config, log *zap.Logger) (*Renderer, error) {
	window, err := openglhelper.NewWindow(openglhelper.WindowConfig{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Title:      cfg.Window.Title,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Debug:      cfg.Window.Debug,
	}, logger.GLDebug(log.Named("gl")))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	r := &Renderer{
		cfg:    cfg,
		logger: log,
		window: window,
	}
	r.resources.Track(openglhelper.DestroyFunc(window.Close))
	r.width, r.height = window.Size()
	r.aspect = aspectRatio(r.width, r.height)

	log.Info("OpenGL context ready",
		zap.String("version", window.GLVersion()),
		zap.Int("width", r.width),
		zap.Int("height", r.height))

	r.camera = NewCamera(mgl32.Vec3(cfg.Camera.Position), mgl32.Vec3(cfg.Camera.Front), CameraSettings{
		MoveSpeed: cfg.Camera.MoveSpeed,
		LookSpeed: cfg.Camera.LookSpeed,
		FOV:       cfg.Camera.FOV,
		MinFOV:    cfg.Camera.MinFOV,
		MaxFOV:    cfg.Camera.MaxFOV,
	})

	r.gpu.SetMultisample(cfg.Render.MSAA)
	r.gpu.SetDepthTest(true)
	r.gpu.SetDepthFunc(openglhelper.DepthLess)
	r.gpu.SetClearColor(mgl32.Vec4(cfg.Render.ClearColor))

	r.loadShaders()
	r.loadAssets()

	r.msaa, r.resolve, err = r.createTargets(int32(r.width), int32(r.height))
	if err != nil {
		r.resources.Release()
		return nil, err
	}
	r.resources.Track(openglhelper.DestroyFunc(r.destroyTargets))

	r.quad = openglhelper.NewFullscreenQuad()
	r.resources.Track(r.quad)

	r.compositor = NewCompositor(r.gpu, r.msaa, r.resolve,
		ScenePass{
			Program:     r.shaders.Program("scene"),
			Model:       r.scene,
			ModelMatrix: mgl32.Ident4(),
		},
		SkyboxPass{
			Program: r.shaders.Program("skybox"),
			Cube:    r.skyboxCube,
			Cubemap: r.cubemapBinding(),
		},
		PostPass{
			Program: r.shaders.Program("post"),
			Quad:    r.quad,
		},
	)

	r.installCallbacks()
	window.SetMouseCaptured(true)

	return r, nil
}

// loadShaders builds the three programs. A program that fails to build stays
// empty until a later edit of its sources links.
func (r *Renderer) loadShaders() {
	r.shaders = NewShaderLibrary(r.logger.Named("shaders"), nil)
	r.resources.Track(r.shaders)

	dir := r.cfg.Shaders.Dir
	for _, name := range []string{"scene", "skybox", "post"} {
		_, err := r.shaders.Add(name,
			openglhelper.StageFile{Kind: openglhelper.VertexStage, Path: filepath.Join(dir, name+".vert")},
			openglhelper.StageFile{Kind: openglhelper.FragmentStage, Path: filepath.Join(dir, name+".frag")},
		)
		if err != nil {
			r.logger.Error("Failed to build shader program", zap.String("program", name), zap.Error(err))
		}
	}

	if r.cfg.Shaders.HotReload {
		if err := r.shaders.Watch(); err != nil {
			r.logger.Warn("Shader hot reload disabled", zap.Error(err))
		}
	}
}

// loadAssets loads the scene model, the skybox cube and its cubemap.
func (r *Renderer) loadAssets() {
	loader := model.Loader{Logger: r.logger.Named("model")}

	var err error
	r.scene, err = loader.Load(r.cfg.Assets.Model, ModelImportFlags)
	if err != nil {
		r.logger.Error("Failed to load model", zap.String("path", r.cfg.Assets.Model), zap.Error(err))
	}
	r.resources.Track(r.scene)

	r.skyboxCube, err = loader.Load(r.cfg.Assets.SkyboxCube, SkyboxImportFlags)
	if err != nil {
		r.logger.Error("Failed to load skybox cube", zap.String("path", r.cfg.Assets.SkyboxCube), zap.Error(err))
	}
	r.resources.Track(r.skyboxCube)

	cubemap, err := openglhelper.CreateCubemap(r.cfg.Assets.SkyboxFaceArray())
	if err != nil {
		r.logger.Error("Failed to load skybox", zap.Error(err))
		return
	}
	cubemap.Bind()
	cubemap.SetParameteri(gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	cubemap.SetParameteri(gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	cubemap.SetParameteri(gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	cubemap.SetParameteri(gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	cubemap.SetParameteri(gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	cubemap.Unbind()

	r.cubemap = cubemap
	r.resources.Track(cubemap)
}

// cubemapBinding keeps a missing cubemap a nil interface.
func (r *Renderer) cubemapBinding() Bindable {
	if r.cubemap == nil {
		return nil
	}
	return r.cubemap
}

// createTargets builds the multisampled scene target and the single-sample
// target it resolves into. Nothing stays allocated on failure.
func (r *Renderer) createTargets(width, height int32) (msaa, resolve *openglhelper.Framebuffer, err error) {
	samples := int32(r.cfg.Render.Samples)
	msaa, err = openglhelper.NewFramebuffer(width, height, r.cfg.Render.MSAA, samples)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create multisample framebuffer: %w", err)
	}
	if err := msaa.CreateColorBufferTexture(); err != nil {
		msaa.Destroy()
		return nil, nil, fmt.Errorf("failed to create multisample color buffer: %w", err)
	}
	if err := msaa.CreateRenderbuffer(openglhelper.DepthStencilFormat); err != nil {
		return nil, nil, fmt.Errorf("failed to create multisample depth buffer: %w", err)
	}

	resolve, err = openglhelper.NewFramebuffer(width, height, false, 0)
	if err != nil {
		msaa.Destroy()
		return nil, nil, fmt.Errorf("failed to create resolve framebuffer: %w", err)
	}
	if err := resolve.CreateColorBufferTexture(); err != nil {
		msaa.Destroy()
		resolve.Destroy()
		return nil, nil, fmt.Errorf("failed to create resolve color buffer: %w", err)
	}

	r.logger.Debug("Created render targets",
		zap.Int32("width", width),
		zap.Int32("height", height),
		zap.Int32("samples", msaa.Samples()))
	return msaa, resolve, nil
}

func (r *Renderer) destroyTargets() {
	if r.msaa != nil {
		r.msaa.Destroy()
	}
	if r.resolve != nil {
		r.resolve.Destroy()
	}
}

// applyPendingResize swaps in targets matching the window. On failure the
// old targets stay in use.
func (r *Renderer) applyPendingResize() {
	if !r.pendingResize {
		return
	}
	r.pendingResize = false

	msaa, resolve, err := r.createTargets(int32(r.width), int32(r.height))
	if err != nil {
		r.logger.Error("Failed to resize render targets", zap.Error(err))
		return
	}
	r.destroyTargets()
	r.msaa, r.resolve = msaa, resolve
	r.compositor.SetTargets(msaa, resolve)
}

// Run starts the main rendering loop and releases every resource when the
// window closes.
func (r *Renderer) Run() {
	defer r.Cleanup()

	r.lastFrameTime = openglhelper.Time()
	for !r.window.ShouldClose() {
		r.shaders.Reload()

		r.window.SwapBuffers()

		r.applyPendingResize()
		r.renderFrame()

		// Calculate delta time
		currentTime := openglhelper.Time()
		r.deltaTime = float32(currentTime - r.lastFrameTime)
		r.lastFrameTime = currentTime

		r.processKeyboard()
		r.window.PollEvents()
	}
}

// renderFrame composes one frame. A failing frame is logged once until the
// error changes.
func (r *Renderer) renderFrame() {
	frame := NewFrameState(r.camera.FOV(), r.aspect, r.camera.ViewMatrix())
	err := r.compositor.Compose(frame)
	if err == nil {
		r.lastErr = ""
		return
	}
	if msg := err.Error(); msg != r.lastErr {
		r.lastErr = msg
		r.logger.Error("Frame failed", zap.Error(err))
	}
}

// pressedMovement polls the movement keys.
func (r *Renderer) pressedMovement() Movement {
	var m Movement
	if r.window.IsKeyPressed(KeyW) {
		m |= MoveForward
	}
	if r.window.IsKeyPressed(KeyS) {
		m |= MoveBackward
	}
	if r.window.IsKeyPressed(KeyA) {
		m |= MoveLeft
	}
	if r.window.IsKeyPressed(KeyD) {
		m |= MoveRight
	}
	return m
}

func (r *Renderer) processKeyboard() {
	if r.window.IsKeyPressed(KeyEscape) {
		r.window.SetShouldClose(true)
	}
	r.camera.ProcessKeyboard(r.pressedMovement(), r.deltaTime)
}

// Cleanup frees all resources. Later calls do nothing.
func (r *Renderer) Cleanup() {
	r.resources.Release()
}

func (r *Renderer) installCallbacks() {
	w := r.window.GLFWWindow()
	w.SetKeyCallback(r.keyCallback)
	w.SetCursorPosCallback(r.cursorPosCallback)
	w.SetScrollCallback(r.scrollCallback)
	w.SetFramebufferSizeCallback(r.framebufferSizeCallback)
	w.SetFocusCallback(r.focusCallback)
}

// Callback functions
func (r *Renderer) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == KeyEscape && action == glfw.Press {
		r.window.SetShouldClose(true)
	}
}

func (r *Renderer) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	r.camera.ProcessMouse(xpos, ypos)
}

func (r *Renderer) scrollCallback(_ *glfw.Window, _, yoffset float64) {
	r.camera.ProcessScroll(yoffset)
}

func (r *Renderer) focusCallback(_ *glfw.Window, focused bool) {
	if focused {
		r.camera.ResetFirstMouse(true)
	}
}

// framebufferSizeCallback updates the viewport and aspect and schedules new
// render targets. A minimized window reports 0x0 and is ignored.
func (r *Renderer) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.window.OnResize(width, height)
	r.width, r.height = width, height
	r.aspect = aspectRatio(width, height)
	r.pendingResize = true
}

func aspectRatio(width, height int) float32 {
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}
