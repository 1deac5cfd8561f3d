package model

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/leterax/go-skyview/internal/openglhelper"
)

// OBJImporter imports Wavefront OBJ files and their MTL material library.
type OBJImporter struct{}

// Import decodes the OBJ file at path. Each OBJ object becomes a child of the
// root node holding one mesh per material it uses.
func (OBJImporter) Import(path string, flags ImportFlags) (*Scene, error) {
	objData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	mtl, err := openMaterialLib(path, objData)
	if err != nil {
		return nil, err
	}
	defer mtl.Close()

	dec, err := obj.DecodeReader(bytes.NewReader(objData), mtl)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buildScene(dec, flags)
}

// openMaterialLib opens the library named by the first mtllib statement, or
// the .mtl file next to the model. A model without a library decodes with an
// empty one.
func openMaterialLib(path string, objData []byte) (io.ReadCloser, error) {
	dir := filepath.Dir(path)
	candidate := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"

	scanner := bufio.NewScanner(bytes.NewReader(objData))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "mtllib" {
			candidate = filepath.Join(dir, strings.Join(fields[1:], " "))
			break
		}
	}

	f, err := os.Open(candidate)
	if os.IsNotExist(err) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open material library: %w", err)
	}
	return f, nil
}

// meshBuilder accumulates one (object, material) mesh.
type meshBuilder struct {
	mesh SceneMesh
}

func buildScene(dec *obj.Decoder, flags ImportFlags) (*Scene, error) {
	scene := &Scene{Root: &Node{Name: "root"}}
	materialIndex := make(map[string]int)

	materialFor := func(name string) int {
		if i, ok := materialIndex[name]; ok {
			return i
		}
		m, ok := dec.Materials[name]
		if !ok || m == nil {
			materialIndex[name] = -1
			return -1
		}
		mat := Material{Name: name}
		if m.MapKd != "" {
			mat.Diffuse = append(mat.Diffuse, m.MapKd)
		}
		scene.Materials = append(scene.Materials, mat)
		materialIndex[name] = len(scene.Materials) - 1
		return len(scene.Materials) - 1
	}

	for oi := range dec.Objects {
		object := &dec.Objects[oi]
		node := &Node{Name: object.Name}

		var order []string
		builders := make(map[string]*meshBuilder)
		for fi := range object.Faces {
			face := &object.Faces[fi]
			corners := len(face.Vertices)
			if corners < 3 {
				continue
			}
			if corners > 3 && !flags.Has(Triangulate) {
				return nil, fmt.Errorf("object %q has a %d-sided face without Triangulate: %w",
					object.Name, corners, ErrIncompleteScene)
			}

			b, ok := builders[face.Material]
			if !ok {
				b = &meshBuilder{mesh: SceneMesh{
					Name:     object.Name,
					Material: materialFor(face.Material),
				}}
				builders[face.Material] = b
				order = append(order, face.Material)
			}
			if err := b.addFace(dec, face, flags); err != nil {
				return nil, fmt.Errorf("object %q: %w", object.Name, err)
			}
		}

		for _, name := range order {
			node.Meshes = append(node.Meshes, len(scene.Meshes))
			scene.Meshes = append(scene.Meshes, builders[name].mesh)
		}
		scene.Root.Children = append(scene.Root.Children, node)
	}

	if flags.Has(OptimizeMeshes) {
		mergeByMaterial(scene)
	}
	if flags.Has(OptimizeGraph) {
		collapseGraph(scene)
	}
	return scene, nil
}

// addFace appends the face as a fan of triangles around its first corner.
func (b *meshBuilder) addFace(dec *obj.Decoder, face *obj.Face, flags ImportFlags) error {
	base := uint32(len(b.mesh.Vertices))
	for i := range face.Vertices {
		v, err := faceVertex(dec, face, i, flags.Has(FlipUVs))
		if err != nil {
			return err
		}
		b.mesh.Vertices = append(b.mesh.Vertices, v)
	}
	for i := 1; i+1 < len(face.Vertices); i++ {
		b.mesh.Indices = append(b.mesh.Indices, base, base+uint32(i), base+uint32(i+1))
	}
	return nil
}

// faceVertex resolves corner i of face. Missing normals and texture
// coordinates are left zero.
func faceVertex(dec *obj.Decoder, face *obj.Face, i int, flipUV bool) (openglhelper.Vertex, error) {
	var v openglhelper.Vertex

	p := face.Vertices[i]
	if p < 0 || 3*p+2 >= len(dec.Vertices) {
		return v, fmt.Errorf("vertex index %d: %w", p, openglhelper.ErrIndexOutOfRange)
	}
	v.Position = mgl32.Vec3{dec.Vertices[3*p], dec.Vertices[3*p+1], dec.Vertices[3*p+2]}

	if i < len(face.Normals) {
		if n := face.Normals[i]; n >= 0 && 3*n+2 < len(dec.Normals) {
			v.Normal = mgl32.Vec3{dec.Normals[3*n], dec.Normals[3*n+1], dec.Normals[3*n+2]}
		}
	}
	if i < len(face.Uvs) {
		if t := face.Uvs[i]; t >= 0 && 2*t+1 < len(dec.Uvs) {
			u, w := dec.Uvs[2*t], dec.Uvs[2*t+1]
			if flipUV {
				w = 1 - w
			}
			v.TexCoords = mgl32.Vec2{u, w}
		}
	}
	return v, nil
}

// mergeByMaterial joins all meshes that share a material into one, keeping
// the order of first appearance. Node mesh lists are remapped.
func mergeByMaterial(scene *Scene) {
	var merged []SceneMesh
	target := make(map[int]int) // material -> merged mesh
	remap := make([]int, len(scene.Meshes))

	for i, m := range scene.Meshes {
		j, ok := target[m.Material]
		if !ok {
			j = len(merged)
			target[m.Material] = j
			merged = append(merged, SceneMesh{Name: m.Name, Material: m.Material})
			if m.Material >= 0 {
				merged[j].Name = scene.Materials[m.Material].Name
			}
		}
		dst := &merged[j]
		base := uint32(len(dst.Vertices))
		dst.Vertices = append(dst.Vertices, m.Vertices...)
		for _, idx := range m.Indices {
			dst.Indices = append(dst.Indices, base+idx)
		}
		remap[i] = j
	}

	// Each merged mesh stays on the first node that referenced it so it is
	// drawn once.
	owned := make(map[int]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		var meshes []int
		for _, i := range n.Meshes {
			if j := remap[i]; !owned[j] {
				owned[j] = true
				meshes = append(meshes, j)
			}
		}
		n.Meshes = meshes
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(scene.Root)
	scene.Meshes = merged
}

// collapseGraph moves every mesh onto the root node, in pre-order.
func collapseGraph(scene *Scene) {
	var meshes []int
	var walk func(n *Node)
	walk = func(n *Node) {
		meshes = append(meshes, n.Meshes...)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(scene.Root)
	scene.Root.Meshes = meshes
	scene.Root.Children = nil
}
