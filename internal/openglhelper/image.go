package openglhelper

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"os"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/go-gl/gl/v4.6-core/gl"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedChannels is returned for pixel layouts with no matching texture format.
var ErrUnsupportedChannels = errors.New("unsupported image channel count")

// Image is a decoded image with tightly packed 8-bit channels, rows top to
// bottom as stored unless it was flipped during decode.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// DecodeImage reads and decodes the image at path. flipVertical reverses the
// row order so the first row in Pix is the bottom row of the file, which is
// where OpenGL expects texture coordinate v=0.
func DecodeImage(path string, flipVertical bool) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return newImage(src, flipVertical), nil
}

func newImage(src image.Image, flipVertical bool) *Image {
	channels := channelCount(src)

	var rgba *image.RGBA
	if flipVertical {
		rgba = transform.FlipV(src)
	} else {
		rgba = clone.AsRGBA(src)
	}

	b := rgba.Bounds()
	img := &Image{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: channels,
		Pix:      make([]byte, 0, b.Dx()*b.Dy()*channels),
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := rgba.PixOffset(x, y)
			r, g, bl, a := rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3]
			if a != 0 && a != 0xff {
				r, g, bl = unpremultiply(r, a), unpremultiply(g, a), unpremultiply(bl, a)
			}
			switch channels {
			case 1:
				img.Pix = append(img.Pix, r)
			case 3:
				img.Pix = append(img.Pix, r, g, bl)
			default:
				img.Pix = append(img.Pix, r, g, bl, a)
			}
		}
	}

	return img
}

func unpremultiply(c, a uint8) uint8 {
	return uint8(uint32(c) * 0xff / uint32(a))
}

// channelCount mirrors what the file stores: grayscale is one channel, a
// non-premultiplied layout (PNG with an alpha channel) four, other opaque
// color three, anything else with alpha four.
func channelCount(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.NRGBA, *image.NRGBA64:
		return 4
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3
	}
	return 4
}

// formatForChannels maps a channel count to the texture pixel format.
func formatForChannels(channels int) (uint32, error) {
	switch channels {
	case 1:
		return gl.RED, nil
	case 3:
		return gl.RGB, nil
	case 4:
		return gl.RGBA, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
}
