package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Movement is the set of movement keys held during a frame.
type Movement uint8

const (
	MoveForward Movement = 1 << iota
	MoveBackward
	MoveLeft
	MoveRight
)

// Has reports whether every direction in d is held.
func (m Movement) Has(d Movement) bool {
	return m&d == d
}

// CameraSettings are the tunables fixed at construction.
type CameraSettings struct {
	MoveSpeed float32 // world units per second
	LookSpeed float32 // degrees per pixel of cursor travel
	FOV       float32 // initial field of view in degrees
	MinFOV    float32
	MaxFOV    float32
}

// DefaultCameraSettings returns the stock speeds and field of view bounds.
func DefaultCameraSettings() CameraSettings {
	return CameraSettings{
		MoveSpeed: DefaultMoveSpeed,
		LookSpeed: DefaultLookSpeed,
		FOV:       DefaultFOV,
		MinFOV:    MinFOV,
		MaxFOV:    MaxFOV,
	}
}

// Camera implements a first-person fly camera.
//
// It starts out waiting for its first cursor sample, which only anchors the
// cursor; every later sample rotates the view. ResetFirstMouse returns it to
// the waiting state.
type Camera struct {
	// Position and orientation
	position mgl32.Vec3
	worldUp  mgl32.Vec3
	front    mgl32.Vec3

	// Euler angles
	yaw   float32
	pitch float32

	// Camera options
	fov       float32
	minFOV    float32
	maxFOV    float32
	moveSpeed float32
	lookSpeed float32

	// Mouse state
	lastX      float64
	lastY      float64
	firstMouse bool
}

// NewCamera creates a camera at position looking along front.
func NewCamera(position, front mgl32.Vec3, settings CameraSettings) *Camera {
	camera := &Camera{
		position:   position,
		worldUp:    mgl32.Vec3{0, 1, 0}, // Y-up coordinate system
		yaw:        DefaultYaw,
		pitch:      DefaultPitch,
		fov:        settings.FOV,
		minFOV:     settings.MinFOV,
		maxFOV:     settings.MaxFOV,
		moveSpeed:  settings.MoveSpeed,
		lookSpeed:  settings.LookSpeed,
		firstMouse: true,
	}

	if front.Len() > 0 {
		camera.lookAlong(front.Normalize())
	}
	camera.fov = clamp(camera.fov, camera.minFOV, camera.maxFOV)
	camera.updateCameraVectors()

	return camera
}

// lookAlong derives yaw and pitch from a unit direction.
func (c *Camera) lookAlong(direction mgl32.Vec3) {
	c.yaw = mgl32.RadToDeg(math32.Atan2(direction.Z(), direction.X()))
	c.pitch = clamp(mgl32.RadToDeg(math32.Asin(direction.Y())), MinPitch, MaxPitch)
}

// updateCameraVectors recalculates the facing direction from the Euler angles
func (c *Camera) updateCameraVectors() {
	yaw := mgl32.DegToRad(c.yaw)
	pitch := mgl32.DegToRad(c.pitch)

	front := mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}
	c.front = front.Normalize()
}

// right is the strafe axis.
func (c *Camera) right() mgl32.Vec3 {
	return c.front.Cross(c.worldUp).Normalize()
}

// ViewMatrix returns the current view matrix
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.worldUp)
}

// ProjectionMatrix returns the perspective projection for the current field
// of view and the given aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.fov), aspect, NearPlane, FarPlane)
}

// FOV returns the field of view in degrees
func (c *Camera) FOV() float32 {
	return c.fov
}

// Position returns the current camera position
func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

// Front returns the unit facing direction
func (c *Camera) Front() mgl32.Vec3 {
	return c.front
}

// Orientation returns the current camera orientation (yaw, pitch) in degrees
func (c *Camera) Orientation() (yaw, pitch float32) {
	return c.yaw, c.pitch
}

// ProcessKeyboard moves the camera for the held directions, scaled by deltaTime
// so the speed does not depend on the frame rate.
func (c *Camera) ProcessKeyboard(pressed Movement, deltaTime float32) {
	speed := c.moveSpeed * deltaTime

	// Forward/Backward
	if pressed.Has(MoveForward) {
		c.position = c.position.Add(c.front.Mul(speed))
	}
	if pressed.Has(MoveBackward) {
		c.position = c.position.Sub(c.front.Mul(speed))
	}

	// Left/Right
	if pressed.Has(MoveLeft) {
		c.position = c.position.Sub(c.right().Mul(speed))
	}
	if pressed.Has(MoveRight) {
		c.position = c.position.Add(c.right().Mul(speed))
	}
}

// ProcessMouse updates the camera orientation from a cursor sample
func (c *Camera) ProcessMouse(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX = xpos
		c.lastY = ypos
		c.firstMouse = false
		return
	}

	// Calculate offset
	xoffset := float32(xpos - c.lastX)
	yoffset := float32(c.lastY - ypos) // Reversed: y ranges bottom to top

	c.lastX = xpos
	c.lastY = ypos

	// Update camera angles
	c.yaw += xoffset * c.lookSpeed
	c.pitch = clamp(c.pitch+yoffset*c.lookSpeed, MinPitch, MaxPitch)

	c.updateCameraVectors()
}

// ProcessScroll zooms by narrowing (scroll up) or widening (scroll down) the field of view
func (c *Camera) ProcessScroll(yoffset float64) {
	c.fov = clamp(c.fov-float32(yoffset), c.minFOV, c.maxFOV)
}

// ResetFirstMouse sets whether the next cursor sample only re-anchors the cursor.
func (c *Camera) ResetFirstMouse(value bool) {
	c.firstMouse = value
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
