package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestImage creates a test image with a simple pattern
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestNormalizeKeepsSmallJPEG(t *testing.T) {
	data := encodeJPEG(t, createTestImage(64, 48))

	out, err := Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestNormalizeDownscalesLargeImage(t *testing.T) {
	data := encodeJPEG(t, createTestImage(3000, 1500))

	out, err := Normalize(data)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxImageDimension, cfg.Width)
	assert.Equal(t, maxImageDimension/2, cfg.Height)
}

func TestNormalizeConvertsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(40, 80)))

	out, err := Normalize(buf.Bytes())
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestFit(t *testing.T) {
	w, h := fit(4000, 3000, 1000)
	assert.Equal(t, 1000, w)
	assert.Equal(t, 750, h)

	w, h = fit(10, 5000, 1000)
	assert.Equal(t, 2, w)
	assert.Equal(t, 1000, h)
}
