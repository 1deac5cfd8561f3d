package openglhelper

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// CubemapFaceCount is the number of faces uploaded by CreateCubemap.
const CubemapFaceCount = 6

// Texture is a 2D or cubemap texture object. The bind target is fixed when the
// texture is created.
type Texture struct {
	id       uint32
	target   uint32
	width    int
	height   int
	released bool
}

// decodeImage is DecodeImage, replaceable in tests.
var decodeImage = DecodeImage

// decodedFace is one image ready for upload.
type decodedFace struct {
	img    *Image
	format uint32
}

func decodeFace(path string, flipVertical bool) (decodedFace, error) {
	img, err := decodeImage(path, flipVertical)
	if err != nil {
		return decodedFace{}, err
	}
	format, err := formatForChannels(img.Channels)
	if err != nil {
		return decodedFace{}, fmt.Errorf("%s: %w", path, err)
	}
	return decodedFace{img: img, format: format}, nil
}

// Create2DImage decodes the image at path, flips it vertically and uploads it
// with a full mipmap chain. Decoding happens before any texture is created,
// so on failure nothing is allocated or bound.
func Create2DImage(path string) (*Texture, error) {
	face, err := decodeFace(path, true)
	if err != nil {
		return nil, err
	}

	t := newTexture(gl.TEXTURE_2D)
	t.Bind()
	t.width, t.height = face.img.Width, face.img.Height

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	face.upload(gl.TEXTURE_2D)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	t.Unbind()
	return t, nil
}

func (f decodedFace) upload(target uint32) {
	gl.TexImage2D(target, 0, int32(f.format), int32(f.img.Width), int32(f.img.Height), 0, f.format, gl.UNSIGNED_BYTE, gl.Ptr(f.img.Pix))
}

// decodeCubemapFaces decodes the faces in order and stops at the first one
// that fails.
func decodeCubemapFaces(paths [CubemapFaceCount]string) ([CubemapFaceCount]decodedFace, error) {
	var faces [CubemapFaceCount]decodedFace
	for i, path := range paths {
		face, err := decodeFace(path, false)
		if err != nil {
			return faces, fmt.Errorf("failed to load cubemap face %d (%s): %w", i, path, err)
		}
		faces[i] = face
	}
	return faces, nil
}

// CreateCubemap uploads six face images in +X, -X, +Y, -Y, +Z, -Z order.
// Faces are not flipped and no mipmaps are generated. All faces are decoded
// before the texture is created; the first face that fails stops the load.
func CreateCubemap(paths [CubemapFaceCount]string) (*Texture, error) {
	faces, err := decodeCubemapFaces(paths)
	if err != nil {
		return nil, err
	}

	t := newTexture(gl.TEXTURE_CUBE_MAP)
	t.Bind()
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, face := range faces {
		face.upload(uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X + i))
		t.width, t.height = face.img.Width, face.img.Height
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	t.Unbind()
	return t, nil
}

func newTexture(target uint32) *Texture {
	t := &Texture{target: target}
	gl.GenTextures(1, &t.id)
	return t
}

// ID returns the driver handle, zero once released.
func (t *Texture) ID() uint32 {
	return t.id
}

// Target returns the bind target recorded at creation.
func (t *Texture) Target() uint32 {
	return t.target
}

// Size returns the dimensions of the uploaded image (the last face for cubemaps).
func (t *Texture) Size() (width, height int) {
	return t.width, t.height
}

// SetParameteri sets an integer texture parameter on the currently bound texture of this target.
func (t *Texture) SetParameteri(name uint32, value int32) {
	gl.TexParameteri(t.target, name, value)
}

// SetParameterf sets a float texture parameter on the currently bound texture of this target.
func (t *Texture) SetParameterf(name uint32, value float32) {
	gl.TexParameterf(t.target, name, value)
}

// Bind binds the texture to its target on the active texture unit.
func (t *Texture) Bind() {
	gl.BindTexture(t.target, t.id)
}

// Unbind clears the texture's target on the active texture unit.
func (t *Texture) Unbind() {
	gl.BindTexture(t.target, 0)
}

// Released reports whether Destroy has run.
func (t *Texture) Released() bool {
	return t.released
}

// Destroy releases the texture object.
func (t *Texture) Destroy() {
	if t.released {
		return
	}
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
	}
	t.id = 0
	t.released = true
}
