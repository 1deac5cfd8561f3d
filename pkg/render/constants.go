package render

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Key constants for keyboard input
const (
	KeyW      = glfw.KeyW
	KeyA      = glfw.KeyA
	KeyS      = glfw.KeyS
	KeyD      = glfw.KeyD
	KeyEscape = glfw.KeyEscape
)

// Camera constants
const (
	// Movement speeds
	DefaultMoveSpeed = 2.5
	DefaultLookSpeed = 0.3

	// Default orientation
	DefaultYaw   = -90.0 // Facing -Z direction
	DefaultPitch = 0.0

	// Field of view
	DefaultFOV = 70.0
	MinFOV     = 0.1
	MaxFOV     = 120.0

	// Constraints
	MaxPitch = 89.0
	MinPitch = -89.0
)

// Projection planes
const (
	NearPlane = 0.1
	FarPlane  = 100.0
)

// Uniform names shared with the GLSL sources in shaders/.
const (
	UniformPVM           = "pvm"
	UniformPV            = "pv"
	UniformSkyboxTexture = "skyboxTexture"
	UniformScreenTexture = "screenTexture"
)
