package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-4

func newTestCamera() *Camera {
	return NewCamera(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{0, 0, -1}, DefaultCameraSettings())
}

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], epsilon, "component %d of %v", i, got)
	}
}

func TestNewCameraDefaultOrientation(t *testing.T) {
	c := newTestCamera()

	yaw, pitch := c.Orientation()
	assert.InDelta(t, -90, yaw, epsilon)
	assert.InDelta(t, 0, pitch, epsilon)
	assertVec3(t, mgl32.Vec3{0, 0, -1}, c.Front())
	assert.InDelta(t, 1, c.Front().Len(), epsilon)
}

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	c := newTestCamera()
	want := mgl32.LookAtV(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 1, 0})
	assert.True(t, want.ApproxEqualThreshold(c.ViewMatrix(), epsilon))

	// A point straight ahead lands on the view axis.
	p := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assertVec3(t, mgl32.Vec3{0, 0, -3}, p.Vec3())
}

func TestFirstMouseOnlyAnchors(t *testing.T) {
	c := newTestCamera()
	front := c.Front()

	c.ProcessMouse(400, 300)

	yaw, pitch := c.Orientation()
	assert.InDelta(t, -90, yaw, epsilon)
	assert.InDelta(t, 0, pitch, epsilon)
	assert.Equal(t, front, c.Front())
}

func TestMouseDeltaScaledByLookSpeed(t *testing.T) {
	c := newTestCamera()
	c.ProcessMouse(400, 300)
	c.ProcessMouse(410, 295) // right 10, up 5

	yaw, pitch := c.Orientation()
	assert.InDelta(t, -90+10*DefaultLookSpeed, yaw, epsilon)
	assert.InDelta(t, 5*DefaultLookSpeed, pitch, epsilon)
	assert.InDelta(t, 1, c.Front().Len(), epsilon)
}

func TestPitchClamped(t *testing.T) {
	for _, dir := range []float64{-1, 1} {
		c := newTestCamera()
		c.ProcessMouse(0, 0)
		y := 0.0
		for i := 0; i < 50; i++ {
			y += dir * 10000
			c.ProcessMouse(0, y)
			_, pitch := c.Orientation()
			require.GreaterOrEqual(t, pitch, float32(MinPitch))
			require.LessOrEqual(t, pitch, float32(MaxPitch))
		}
		_, pitch := c.Orientation()
		assert.InDelta(t, -dir*MaxPitch, pitch, epsilon)
		assert.InDelta(t, 1, c.Front().Len(), epsilon)
	}
}

func TestResetFirstMouseReanchors(t *testing.T) {
	c := newTestCamera()
	c.ProcessMouse(0, 0)
	c.ProcessMouse(10, 0)
	yaw, _ := c.Orientation()

	c.ResetFirstMouse(true)
	c.ProcessMouse(5000, 5000) // large jump after focus regain
	yaw2, pitch2 := c.Orientation()
	assert.Equal(t, yaw, yaw2)
	assert.InDelta(t, 0, pitch2, epsilon)

	c.ProcessMouse(5001, 5000)
	yaw3, _ := c.Orientation()
	assert.InDelta(t, yaw+DefaultLookSpeed, yaw3, epsilon)
}

func TestScrollClampsFOV(t *testing.T) {
	c := newTestCamera()
	assert.InDelta(t, 70, c.FOV(), epsilon)

	c.ProcessScroll(200)
	assert.InDelta(t, 0.1, c.FOV(), epsilon)

	c.ProcessScroll(-200)
	assert.InDelta(t, 120, c.FOV(), epsilon)
}

func TestScrollIsMonotonic(t *testing.T) {
	c := newTestCamera()
	prev := c.FOV()
	for i := 0; i < 200; i++ {
		c.ProcessScroll(1) // scroll up zooms in
		require.LessOrEqual(t, c.FOV(), prev)
		require.GreaterOrEqual(t, c.FOV(), float32(MinFOV))
		prev = c.FOV()
	}
	for i := 0; i < 200; i++ {
		c.ProcessScroll(-1)
		require.GreaterOrEqual(t, c.FOV(), prev)
		require.LessOrEqual(t, c.FOV(), float32(MaxFOV))
		prev = c.FOV()
	}
}

func TestKeyboardMovementScalesWithDeltaTime(t *testing.T) {
	c := newTestCamera()
	c.ProcessKeyboard(MoveForward, 1)
	assertVec3(t, mgl32.Vec3{0, 0, 3 - DefaultMoveSpeed}, c.Position())

	c = newTestCamera()
	for i := 0; i < 10; i++ {
		c.ProcessKeyboard(MoveForward, 0.1)
	}
	assertVec3(t, mgl32.Vec3{0, 0, 3 - DefaultMoveSpeed}, c.Position())
}

func TestKeyboardStrafe(t *testing.T) {
	c := newTestCamera()
	c.ProcessKeyboard(MoveRight, 1)
	assertVec3(t, mgl32.Vec3{DefaultMoveSpeed, 0, 3}, c.Position())

	c.ProcessKeyboard(MoveLeft|MoveBackward, 1)
	assertVec3(t, mgl32.Vec3{0, 0, 3 + DefaultMoveSpeed}, c.Position())

	c.ProcessKeyboard(MoveForward|MoveBackward, 1)
	assertVec3(t, mgl32.Vec3{0, 0, 3 + DefaultMoveSpeed}, c.Position())
}

func TestNewCameraDerivesAnglesFromFront(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, DefaultCameraSettings())
	yaw, pitch := c.Orientation()
	assert.InDelta(t, 0, yaw, epsilon)
	assert.InDelta(t, 0, pitch, epsilon)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, c.Front())
}

func TestNewCameraClampsInitialFOV(t *testing.T) {
	s := DefaultCameraSettings()
	s.FOV = 500
	c := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, s)
	assert.InDelta(t, MaxFOV, c.FOV(), epsilon)
}

func TestProjectionMatrixUsesFOV(t *testing.T) {
	c := newTestCamera()
	want := mgl32.Perspective(mgl32.DegToRad(70), 4.0/3.0, NearPlane, FarPlane)
	assert.True(t, want.ApproxEqualThreshold(c.ProjectionMatrix(4.0/3.0), epsilon))
}
