// Package model imports scene files and turns them into drawable meshes.
package model

import (
	"errors"

	"github.com/leterax/go-skyview/internal/openglhelper"
)

// ErrIncompleteScene is returned when an importer produced a scene that
// cannot be drawn.
var ErrIncompleteScene = errors.New("incomplete scene")

// ImportFlags selects post-processing applied by an Importer.
type ImportFlags uint32

const (
	// Triangulate splits polygons with more than three corners.
	Triangulate ImportFlags = 1 << iota
	// FlipUVs flips the v texture coordinate (v = 1 - v).
	FlipUVs
	// OptimizeMeshes merges meshes that share a material.
	OptimizeMeshes
	// OptimizeGraph collapses nodes without meshes.
	OptimizeGraph
)

// Has reports whether every flag in f is set.
func (flags ImportFlags) Has(f ImportFlags) bool {
	return flags&f == f
}

// Material lists texture file paths by semantic, relative to the scene file.
type Material struct {
	Name     string
	Diffuse  []string
	Specular []string
}

// SceneMesh is CPU-side geometry ready for upload.
type SceneMesh struct {
	Name     string
	Vertices []openglhelper.Vertex
	Indices  []uint32
	Material int // index into Scene.Materials, -1 for none
}

// Node is one entry of the scene hierarchy. Meshes index Scene.Meshes.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// Scene is the importer output.
type Scene struct {
	Root       *Node
	Meshes     []SceneMesh
	Materials  []Material
	Incomplete bool
}

// Importer reads a scene file.
type Importer interface {
	Import(path string, flags ImportFlags) (*Scene, error)
}

// validate reports whether s can be turned into a Model.
func (s *Scene) validate() error {
	if s == nil || s.Root == nil {
		return errors.New("scene has no root node")
	}
	if s.Incomplete {
		return ErrIncompleteScene
	}
	return nil
}

// flattenNode returns the meshes of node and its descendants in pre-order:
// a node's own meshes first, then each child in turn. Mesh indices outside
// the scene are skipped.
func flattenNode(scene *Scene, node *Node) []SceneMesh {
	if node == nil {
		return nil
	}
	var meshes []SceneMesh
	for _, i := range node.Meshes {
		if i >= 0 && i < len(scene.Meshes) {
			meshes = append(meshes, scene.Meshes[i])
		}
	}
	for _, child := range node.Children {
		meshes = append(meshes, flattenNode(scene, child)...)
	}
	return meshes
}
