package openglhelper

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
)

var (
	// ErrInvalidBindTarget is returned by Bind for targets other than the three framebuffer targets.
	ErrInvalidBindTarget = errors.New("invalid framebuffer bind target")
	// ErrIncompleteFramebuffer is returned when the driver rejects the attachment set.
	ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")
	// ErrDepthAttachmentExists is returned when a second depth/stencil attachment is requested.
	ErrDepthAttachmentExists = errors.New("framebuffer already has a depth/stencil attachment")
)

// FramebufferTarget is one of the framebuffer binding points.
type FramebufferTarget int

const (
	// CombinedTarget binds for both reading and drawing.
	CombinedTarget FramebufferTarget = iota
	// ReadTarget binds as the source of blits and reads.
	ReadTarget
	// DrawTarget binds as the destination of draws and blits.
	DrawTarget
)

// GLEnum returns the driver constant; ok is false outside the enumeration.
func (t FramebufferTarget) GLEnum() (enum uint32, ok bool) {
	switch t {
	case CombinedTarget:
		return gl.FRAMEBUFFER, true
	case ReadTarget:
		return gl.READ_FRAMEBUFFER, true
	case DrawTarget:
		return gl.DRAW_FRAMEBUFFER, true
	default:
		return 0, false
	}
}

// Valid reports whether t is a bindable framebuffer target.
func (t FramebufferTarget) Valid() bool {
	_, ok := t.GLEnum()
	return ok
}

func (t FramebufferTarget) String() string {
	switch t {
	case CombinedTarget:
		return "framebuffer"
	case ReadTarget:
		return "read framebuffer"
	case DrawTarget:
		return "draw framebuffer"
	default:
		return fmt.Sprintf("FramebufferTarget(%d)", int(t))
	}
}

// DepthStencilFormat is the combined 24-bit depth, 8-bit stencil format.
const DepthStencilFormat uint32 = gl.DEPTH24_STENCIL8

type depthStencilKind int

const (
	noDepthStencil depthStencilKind = iota
	depthStencilRenderbuffer
	depthStencilTexture
)

// framebufferDriver is the part of the GL API a Framebuffer uses. The attach
// methods expect the framebuffer bound to GL_FRAMEBUFFER.
type framebufferDriver interface {
	genFramebuffer() uint32
	bindFramebuffer(target, id uint32)
	checkStatus() uint32
	bindTexture(target, id uint32)
	attachColorTexture(multisample bool, samples, width, height int32) uint32
	attachDepthRenderbuffer(multisample bool, samples int32, format uint32, width, height int32) uint32
	attachDepthTexture(multisample bool, samples int32, format uint32, width, height int32) uint32
	deleteFramebuffer(id uint32)
	deleteTexture(id uint32)
	deleteRenderbuffer(id uint32)
}

// Framebuffer is an offscreen render target with one color texture and one
// combined depth/stencil attachment. Size and multisample settings are fixed
// at construction and shared by every attachment.
type Framebuffer struct {
	driver      framebufferDriver
	id          uint32
	width       int32
	height      int32
	multisample bool
	samples     int32

	colorTex        uint32
	renderbuffer    uint32
	depthStencilTex uint32
	depth           depthStencilKind

	complete bool
	released bool
}

// NewFramebuffer creates a framebuffer object of the given size. samples is
// ignored unless multisample is set.
func NewFramebuffer(width, height int32, multisample bool, samples int32) (*Framebuffer, error) {
	return newFramebuffer(glFramebufferDriver{}, width, height, multisample, samples)
}

func newFramebuffer(driver framebufferDriver, width, height int32, multisample bool, samples int32) (*Framebuffer, error) {
	if err := validateFramebufferSize(width, height, multisample, samples); err != nil {
		return nil, err
	}
	f := &Framebuffer{
		driver:      driver,
		width:       width,
		height:      height,
		multisample: multisample,
		samples:     samples,
	}
	if !multisample {
		f.samples = 0
	}
	f.id = driver.genFramebuffer()
	return f, nil
}

func validateFramebufferSize(width, height int32, multisample bool, samples int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	if multisample && samples < 1 {
		return fmt.Errorf("invalid multisample count %d", samples)
	}
	return nil
}

// colorTarget is the texture target matching the multisample flag.
func (f *Framebuffer) colorTarget() uint32 {
	if f.multisample {
		return gl.TEXTURE_2D_MULTISAMPLE
	}
	return gl.TEXTURE_2D
}

// CreateColorBufferTexture allocates the color attachment. When the
// depth/stencil attachment already exists, completeness is checked as for
// CreateRenderbuffer.
func (f *Framebuffer) CreateColorBufferTexture() error {
	if f.released {
		return ErrReleased
	}
	if f.colorTex != 0 {
		return errors.New("framebuffer already has a color attachment")
	}

	f.driver.bindFramebuffer(gl.FRAMEBUFFER, f.id)
	f.colorTex = f.driver.attachColorTexture(f.multisample, f.samples, f.width, f.height)
	if f.depth != noDepthStencil {
		return f.verify()
	}
	f.driver.bindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// checkDepthSlot enforces the renderbuffer XOR depth-texture choice.
func (f *Framebuffer) checkDepthSlot() error {
	if f.released {
		return ErrReleased
	}
	if f.depth != noDepthStencil {
		return ErrDepthAttachmentExists
	}
	return nil
}

// CreateRenderbuffer attaches a depth/stencil renderbuffer of the given
// internal format and verifies completeness.
func (f *Framebuffer) CreateRenderbuffer(format uint32) error {
	if err := f.checkDepthSlot(); err != nil {
		return err
	}

	f.driver.bindFramebuffer(gl.FRAMEBUFFER, f.id)
	f.renderbuffer = f.driver.attachDepthRenderbuffer(f.multisample, f.samples, format, f.width, f.height)
	f.depth = depthStencilRenderbuffer

	return f.verify()
}

// CreateDepthStencilTexture attaches a sampleable depth/stencil texture of
// the given internal format and verifies completeness.
func (f *Framebuffer) CreateDepthStencilTexture(format uint32) error {
	if err := f.checkDepthSlot(); err != nil {
		return err
	}

	f.driver.bindFramebuffer(gl.FRAMEBUFFER, f.id)
	f.depthStencilTex = f.driver.attachDepthTexture(f.multisample, f.samples, format, f.width, f.height)
	f.depth = depthStencilTexture

	return f.verify()
}

// verify expects the framebuffer bound to GL_FRAMEBUFFER. An incomplete
// framebuffer is released together with all of its attachments.
func (f *Framebuffer) verify() error {
	status := f.driver.checkStatus()
	f.driver.bindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		f.Destroy()
		return fmt.Errorf("%w: status 0x%x", ErrIncompleteFramebuffer, status)
	}
	f.complete = f.colorTex != 0 && f.depth != noDepthStencil
	return nil
}

// Bind binds the framebuffer to one of the three framebuffer targets. Any
// other value is rejected without touching driver state.
func (f *Framebuffer) Bind(target FramebufferTarget) error {
	enum, ok := target.GLEnum()
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidBindTarget, target)
	}
	if f.released {
		return ErrReleased
	}
	f.driver.bindFramebuffer(enum, f.id)
	return nil
}

// BindColorBufferTexture binds the color attachment for sampling on the active unit.
func (f *Framebuffer) BindColorBufferTexture() {
	f.driver.bindTexture(f.colorTarget(), f.colorTex)
}

// Unbind restores the window's default framebuffer on the combined target.
func (f *Framebuffer) Unbind() {
	f.driver.bindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Size returns the framebuffer dimensions.
func (f *Framebuffer) Size() (width, height int32) {
	return f.width, f.height
}

// Multisampled reports whether attachments use multisample storage.
func (f *Framebuffer) Multisampled() bool {
	return f.multisample
}

// Samples returns the sample count, zero for single-sample framebuffers.
func (f *Framebuffer) Samples() int32 {
	return f.samples
}

// Complete reports whether color and depth/stencil are attached and the
// driver accepted them.
func (f *Framebuffer) Complete() bool {
	return f.complete && !f.released
}

// UsesRenderbuffer reports whether the depth/stencil attachment is a renderbuffer.
func (f *Framebuffer) UsesRenderbuffer() bool {
	return f.depth == depthStencilRenderbuffer
}

// Destroy releases the framebuffer, its color attachment and whichever
// depth/stencil attachment was created.
func (f *Framebuffer) Destroy() {
	if f.released {
		return
	}

	f.driver.deleteFramebuffer(f.id)
	if f.colorTex != 0 {
		f.driver.deleteTexture(f.colorTex)
	}
	switch f.depth {
	case depthStencilRenderbuffer:
		f.driver.deleteRenderbuffer(f.renderbuffer)
	case depthStencilTexture:
		f.driver.deleteTexture(f.depthStencilTex)
	}

	f.id, f.colorTex, f.renderbuffer, f.depthStencilTex = 0, 0, 0, 0
	f.complete = false
	f.released = true
}

// glFramebufferDriver issues the calls against the current GL context.
type glFramebufferDriver struct{}

func (glFramebufferDriver) genFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (glFramebufferDriver) bindFramebuffer(target, id uint32) {
	gl.BindFramebuffer(target, id)
}

func (glFramebufferDriver) checkStatus() uint32 {
	return gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
}

func (glFramebufferDriver) bindTexture(target, id uint32) {
	gl.BindTexture(target, id)
}

func (glFramebufferDriver) attachColorTexture(multisample bool, samples, width, height int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	if multisample {
		gl.BindTexture(gl.TEXTURE_2D_MULTISAMPLE, tex)
		gl.TexImage2DMultisample(gl.TEXTURE_2D_MULTISAMPLE, samples, gl.RGB, width, height, true)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D_MULTISAMPLE, tex, 0)
		gl.BindTexture(gl.TEXTURE_2D_MULTISAMPLE, 0)
		return tex
	}

	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, width, height, 0, gl.RGB, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (glFramebufferDriver) attachDepthRenderbuffer(multisample bool, samples int32, format uint32, width, height int32) uint32 {
	var rbo uint32
	gl.GenRenderbuffers(1, &rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rbo)
	if multisample {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, format, width, height)
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, format, width, height)
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return rbo
}

func (glFramebufferDriver) attachDepthTexture(multisample bool, samples int32, format uint32, width, height int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	target := uint32(gl.TEXTURE_2D)
	if multisample {
		target = gl.TEXTURE_2D_MULTISAMPLE
	}
	gl.BindTexture(target, tex)
	if multisample {
		gl.TexImage2DMultisample(target, samples, format, width, height, true)
	} else {
		gl.TexImage2D(target, 0, int32(format), width, height, 0, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, nil)
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, target, tex, 0)
	gl.BindTexture(target, 0)
	return tex
}

func (glFramebufferDriver) deleteFramebuffer(id uint32) {
	gl.DeleteFramebuffers(1, &id)
}

func (glFramebufferDriver) deleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (glFramebufferDriver) deleteRenderbuffer(id uint32) {
	gl.DeleteRenderbuffers(1, &id)
}
