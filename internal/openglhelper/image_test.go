package openglhelper

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// twoRows is 1x2: red on top, blue at the bottom.
func twoRows() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	return img
}

func TestDecodeImageKeepsRowOrder(t *testing.T) {
	img, err := DecodeImage(writePNG(t, twoRows()), false)
	require.NoError(t, err)

	assert.Equal(t, 1, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 3, img.Channels)
	assert.Equal(t, []byte{255, 0, 0, 0, 0, 255}, img.Pix)
}

func TestDecodeImageFlipsVertically(t *testing.T) {
	img, err := DecodeImage(writePNG(t, twoRows()), true)
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 0, 255, 255, 0, 0}, img.Pix)
}

func TestDecodeImageChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	translucent := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	translucent.Set(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	tests := []struct {
		name     string
		img      image.Image
		channels int
		pixels   int
	}{
		{"gray", gray, 1, 4},
		{"opaque", twoRows(), 3, 6},
		{"alpha", translucent, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(writePNG(t, tt.img), false)
			require.NoError(t, err)
			assert.Equal(t, tt.channels, img.Channels)
			assert.Len(t, img.Pix, tt.pixels)
		})
	}
}

func TestDecodeImageKeepsStraightAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 128})

	img, err := DecodeImage(writePNG(t, src), false)
	require.NoError(t, err)

	require.Len(t, img.Pix, 4)
	assert.InDelta(t, 255, int(img.Pix[0]), 2)
	assert.Equal(t, byte(128), img.Pix[3])
}

func TestDecodeImageBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, twoRows()))
	require.NoError(t, f.Close())

	img, err := DecodeImage(path, false)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Channels)
}

func TestDecodeImageErrors(t *testing.T) {
	_, err := DecodeImage(filepath.Join(t.TempDir(), "missing.png"), true)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = DecodeImage(path, true)
	assert.Error(t, err)
}

func TestFormatForChannels(t *testing.T) {
	for _, n := range []int{1, 3, 4} {
		_, err := formatForChannels(n)
		assert.NoError(t, err, "channels=%d", n)
	}
	for _, n := range []int{0, 2, 5} {
		_, err := formatForChannels(n)
		assert.ErrorIs(t, err, ErrUnsupportedChannels, "channels=%d", n)
	}
}

func TestChannelCountFollowsStoredLayout(t *testing.T) {
	opaqueNRGBA := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	opaqueNRGBA.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	opaqueRGBA := image.NewRGBA(image.Rect(0, 0, 1, 1))
	opaqueRGBA.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	assert.Equal(t, 4, channelCount(opaqueNRGBA), "alpha channel stored even when fully opaque")
	assert.Equal(t, 3, channelCount(opaqueRGBA))
	assert.Equal(t, 1, channelCount(image.NewGray(image.Rect(0, 0, 1, 1))))
}
