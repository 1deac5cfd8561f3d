package openglhelper

import (
	"errors"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrIndexOutOfRange is returned when a mesh index does not address a vertex.
var ErrIndexOutOfRange = errors.New("mesh index out of range")

// Vertex represents a 3D vertex with position, normal, and texture coordinates
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoords mgl32.Vec2
}

// VertexSize is the stride of Vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// TextureKind is the material semantic a texture is sampled as.
type TextureKind int

const (
	DiffuseTexture TextureKind = iota
	SpecularTexture
)

// UniformPrefix is the sampler name prefix used in shader source, e.g. texture_diffuse.
func (k TextureKind) UniformPrefix() string {
	switch k {
	case DiffuseTexture:
		return "texture_diffuse"
	case SpecularTexture:
		return "texture_specular"
	default:
		return "texture_unknown"
	}
}

// TextureRef attaches a texture to a mesh under a semantic. Path is the
// material path the texture was loaded from. The mesh borrows the texture.
type TextureRef struct {
	Texture *Texture
	Kind    TextureKind
	Path    string
}

// TextureUniformNames returns the sampler uniform for each reference in order:
// material.texture_diffuse1, material.texture_diffuse2, material.texture_specular1...
// Each semantic keeps its own 1-based counter.
func TextureUniformNames(refs []TextureRef) []string {
	counters := make(map[TextureKind]int, 2)
	names := make([]string, len(refs))
	for i, ref := range refs {
		counters[ref.Kind]++
		names[i] = "material." + ref.Kind.UniformPrefix() + strconv.Itoa(counters[ref.Kind])
	}
	return names
}

// ValidateIndices checks that every index addresses one of vertexCount vertices.
func ValidateIndices(indices []uint32, vertexCount int) error {
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: indices[%d]=%d with %d vertices", ErrIndexOutOfRange, i, idx, vertexCount)
		}
	}
	return nil
}

// Mesh represents a 3D mesh with vertices, indices and the textures it samples
type Mesh struct {
	vao        *VertexArrayObject
	vbo        *BufferObject
	ebo        *BufferObject
	indexCount int32
	textures   []TextureRef
	uniforms   []string
	released   bool
}

// NewMesh validates the index data and uploads it with the
// position/normal/texcoord layout at attribute locations 0, 1 and 2.
func NewMesh(vertices []Vertex, indices []uint32, textures []TextureRef) (*Mesh, error) {
	if err := ValidateIndices(indices, len(vertices)); err != nil {
		return nil, err
	}

	// Create VAO, VBO, and EBO
	vao := NewVAO()
	vao.Bind()

	vbo := NewVBO(vertices, StaticDraw)
	ebo := NewEBO(indices, StaticDraw)

	stride := int32(VertexSize)
	vao.SetVertexAttribPointer(0, 3, gl.FLOAT, false, stride, int(unsafe.Offsetof(Vertex{}.Position)))
	vao.SetVertexAttribPointer(1, 3, gl.FLOAT, false, stride, int(unsafe.Offsetof(Vertex{}.Normal)))
	vao.SetVertexAttribPointer(2, 2, gl.FLOAT, false, stride, int(unsafe.Offsetof(Vertex{}.TexCoords)))

	// Unbind VAO
	vao.Unbind()

	return &Mesh{
		vao:        vao,
		vbo:        vbo,
		ebo:        ebo,
		indexCount: int32(len(indices)),
		textures:   textures,
		uniforms:   TextureUniformNames(textures),
	}, nil
}

// Textures returns the mesh's texture references.
func (m *Mesh) Textures() []TextureRef {
	return m.textures
}

// Render binds texture i to unit i, points its sampler uniform at that unit,
// issues one indexed draw and leaves unit 0 active. The caller has already
// made s the current program.
func (m *Mesh) Render(s UniformSetter) {
	for i, ref := range m.textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		s.SetInt(m.uniforms[i], int32(i))
		gl.BindTexture(gl.TEXTURE_2D, ref.Texture.ID())
	}
	gl.ActiveTexture(gl.TEXTURE0)

	m.vao.Bind()
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	m.vao.Unbind()
}

// Destroy releases the buffers. Referenced textures belong to whoever
// loaded them and stay alive.
func (m *Mesh) Destroy() {
	if m.released {
		return
	}
	m.vao.Delete()
	m.vbo.Delete()
	m.ebo.Delete()
	m.released = true
}

// quadVertices covers the NDC square: position (2), texture coordinates (2).
var quadVertices = []float32{
	-1.0, -1.0, 0.0, 0.0,
	1.0, -1.0, 1.0, 0.0,
	-1.0, 1.0, 0.0, 1.0,
	1.0, 1.0, 1.0, 1.0,
}

var quadIndices = []uint32{
	0, 2, 1,
	2, 3, 1,
}

// Quad is the full-screen quad used by the post-process pass.
type Quad struct {
	vao *VertexArrayObject
	vbo *BufferObject
	ebo *BufferObject
}

// NewFullscreenQuad uploads the two-triangle screen quad.
func NewFullscreenQuad() *Quad {
	vao := NewVAO()
	vao.Bind()

	vbo := NewFloatVBO(quadVertices, StaticDraw)
	ebo := NewEBO(quadIndices, StaticDraw)

	vao.SetVertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, 0)
	vao.SetVertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, 2*4)
	vao.Unbind()

	return &Quad{vao: vao, vbo: vbo, ebo: ebo}
}

// Draw draws the quad with whatever program and textures are bound.
func (q *Quad) Draw() {
	q.vao.Bind()
	gl.DrawElements(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_INT, nil)
	q.vao.Unbind()
}

// Destroy releases the quad buffers.
func (q *Quad) Destroy() {
	q.vao.Delete()
	q.vbo.Delete()
	q.ebo.Delete()
}
