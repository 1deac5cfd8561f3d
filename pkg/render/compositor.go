package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/leterax/go-skyview/internal/openglhelper"
)

// GPUState is the process-wide pipeline state the compositor drives.
// openglhelper.Context is the driver-backed implementation.
type GPUState interface {
	SetDepthTest(enabled bool)
	SetDepthFunc(fn openglhelper.DepthFunc)
	Clear(mask openglhelper.ClearMask)
	ActiveTexture(unit uint32)
	BlitColor(srcWidth, srcHeight, dstWidth, dstHeight int32)
}

// RenderTarget is an offscreen framebuffer.
type RenderTarget interface {
	Bind(target openglhelper.FramebufferTarget) error
	Unbind()
	BindColorBufferTexture()
	Size() (width, height int32)
}

// Program is a shader program. A pass whose program is not Ready draws
// nothing.
type Program interface {
	openglhelper.UniformSetter
	Ready() bool
	Use()
	SetMat4(name string, value mgl32.Mat4)
}

// Drawable renders itself with the current program.
type Drawable interface {
	Render(s openglhelper.UniformSetter)
}

// Bindable is a texture bound to the active unit.
type Bindable interface {
	Bind()
}

// ScreenQuad draws the post-process quad.
type ScreenQuad interface {
	Draw()
}

// FrameState holds the matrices of one frame. It is rebuilt every frame.
type FrameState struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
}

// NewFrameState builds the projection for fov (degrees) and aspect with the
// fixed near and far planes.
func NewFrameState(fov, aspect float32, view mgl32.Mat4) FrameState {
	return FrameState{
		Projection: mgl32.Perspective(mgl32.DegToRad(fov), aspect, NearPlane, FarPlane),
		View:       view,
	}
}

// SkyboxView is the view matrix with its translation removed.
func (f FrameState) SkyboxView() mgl32.Mat4 {
	return f.View.Mat3().Mat4()
}

// ScenePass is the opaque geometry drawn into the multisampled target.
type ScenePass struct {
	Program     Program
	Model       Drawable
	ModelMatrix mgl32.Mat4
}

// SkyboxPass draws a unit cube sampled from a cubemap at the far plane.
type SkyboxPass struct {
	Program Program
	Cube    Drawable
	Cubemap Bindable // nil when the cubemap failed to load
}

// PostPass samples the resolved color buffer onto the window.
type PostPass struct {
	Program Program
	Quad    ScreenQuad
}

// Compositor renders a frame in a fixed order: scene and skybox into the
// multisampled target, resolve into the single-sample target, then draw
// that onto the default framebuffer with the post-process program.
type Compositor struct {
	state   GPUState
	msaa    RenderTarget
	resolve RenderTarget

	scene  ScenePass
	skybox SkyboxPass
	post   PostPass
}

// NewCompositor wires the passes to their targets.
func NewCompositor(state GPUState, msaa, resolve RenderTarget, scene ScenePass, skybox SkyboxPass, post PostPass) *Compositor {
	return &Compositor{
		state:   state,
		msaa:    msaa,
		resolve: resolve,
		scene:   scene,
		skybox:  skybox,
		post:    post,
	}
}

// SetTargets replaces both offscreen targets, e.g. after a resize.
func (c *Compositor) SetTargets(msaa, resolve RenderTarget) {
	c.msaa = msaa
	c.resolve = resolve
}

// Compose renders one frame into the default framebuffer. It stops at the
// first framebuffer bind error.
func (c *Compositor) Compose(frame FrameState) error {
	if c.msaa == nil || c.resolve == nil {
		return fmt.Errorf("compositor has no render targets")
	}

	if err := c.msaa.Bind(openglhelper.CombinedTarget); err != nil {
		return fmt.Errorf("bind multisample target: %w", err)
	}
	c.state.SetDepthTest(true)
	c.state.Clear(openglhelper.ClearColor | openglhelper.ClearDepth)

	c.drawScene(frame)
	c.drawSkybox(frame)

	if err := c.resolveColor(); err != nil {
		return err
	}

	c.drawPost()
	return nil
}

func (c *Compositor) drawScene(frame FrameState) {
	p := c.scene.Program
	if !p.Ready() {
		return
	}
	p.Use()
	p.SetMat4(UniformPVM, frame.Projection.Mul4(frame.View).Mul4(c.scene.ModelMatrix))
	if c.scene.Model != nil {
		c.scene.Model.Render(p)
	}
}

// drawSkybox runs with LEQUAL so the cube, which the vertex shader pins to
// depth 1.0, passes against the cleared far plane. LESS is restored afterwards.
func (c *Compositor) drawSkybox(frame FrameState) {
	c.state.SetDepthFunc(openglhelper.DepthLessEqual)
	defer c.state.SetDepthFunc(openglhelper.DepthLess)

	p := c.skybox.Program
	if !p.Ready() {
		return
	}
	p.Use()
	p.SetInt(UniformSkyboxTexture, 0)
	c.state.ActiveTexture(0)
	if c.skybox.Cubemap != nil {
		c.skybox.Cubemap.Bind()
	}
	p.SetMat4(UniformPV, frame.Projection.Mul4(frame.SkyboxView()))
	if c.skybox.Cube != nil {
		c.skybox.Cube.Render(p)
	}
}

func (c *Compositor) resolveColor() error {
	if err := c.msaa.Bind(openglhelper.ReadTarget); err != nil {
		return fmt.Errorf("bind multisample target for reading: %w", err)
	}
	if err := c.resolve.Bind(openglhelper.DrawTarget); err != nil {
		return fmt.Errorf("bind resolve target for drawing: %w", err)
	}
	srcW, srcH := c.msaa.Size()
	dstW, dstH := c.resolve.Size()
	c.state.BlitColor(srcW, srcH, dstW, dstH)
	return nil
}

func (c *Compositor) drawPost() {
	c.resolve.Unbind()
	c.state.SetDepthTest(false)
	c.state.Clear(openglhelper.ClearColor)

	p := c.post.Program
	if !p.Ready() {
		return
	}
	p.Use()
	p.SetInt(UniformScreenTexture, 0)
	c.state.ActiveTexture(0)
	c.resolve.BindColorBufferTexture()
	c.post.Quad.Draw()
}
