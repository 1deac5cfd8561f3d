package openglhelper

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// DepthFunc is the depth comparison used while depth testing is enabled.
type DepthFunc uint32

const (
	DepthLess      DepthFunc = gl.LESS
	DepthLessEqual DepthFunc = gl.LEQUAL
)

// ClearMask selects the buffers cleared by Context.Clear.
type ClearMask uint32

const (
	ClearColor ClearMask = gl.COLOR_BUFFER_BIT
	ClearDepth ClearMask = gl.DEPTH_BUFFER_BIT
)

// Context wraps the process-wide pipeline state of the current GL context.
// It holds no data; every call goes straight to the driver.
type Context struct{}

// SetDepthTest enables or disables depth testing.
func (Context) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// SetDepthFunc sets the depth comparison function.
func (Context) SetDepthFunc(fn DepthFunc) {
	gl.DepthFunc(uint32(fn))
}

// SetMultisample toggles multisample rasterization.
func (Context) SetMultisample(enabled bool) {
	if enabled {
		gl.Enable(gl.MULTISAMPLE)
	} else {
		gl.Disable(gl.MULTISAMPLE)
	}
}

// SetClearColor sets the color used when clearing color buffers.
func (Context) SetClearColor(color mgl32.Vec4) {
	gl.ClearColor(color.X(), color.Y(), color.Z(), color.W())
}

// Clear clears the selected buffers of the bound draw framebuffer.
func (Context) Clear(mask ClearMask) {
	gl.Clear(uint32(mask))
}

// ActiveTexture selects the texture unit later binds apply to.
func (Context) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

// BlitColor copies the color buffer of the bound read framebuffer into the
// bound draw framebuffer, resolving multisampled storage.
func (Context) BlitColor(srcWidth, srcHeight, dstWidth, dstHeight int32) {
	gl.BlitFramebuffer(0, 0, srcWidth, srcHeight, 0, 0, dstWidth, dstHeight, gl.COLOR_BUFFER_BIT, gl.LINEAR)
}

// Viewport sets the viewport rectangle.
func (Context) Viewport(width, height int32) {
	gl.Viewport(0, 0, width, height)
}
