package dropjpeg

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

func TestNewDroponFromRawRGBUsesUniformAlpha(t *testing.T) {
	d, err := NewDroponFromRaw(solidRGB(4, 4, 10, 20, 30), 200, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 200, d.blend)
	for i := 0; i < 4*4; i++ {
		assert.Equal(t, byte(200), d.rawAlpha[i*3])
		assert.Equal(t, byte(200), d.rawAlpha[i*3+1])
		assert.Equal(t, byte(200), d.rawAlpha[i*3+2])
	}
}

func TestNewDroponFromRawRGBABlendIsNonuniform(t *testing.T) {
	w, h := 2, 2
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = 1, 2, 3, byte(i * 50)
	}
	d, err := NewDroponFromRaw(pix, BlendFull, w, h)
	require.NoError(t, err)
	assert.Equal(t, BlendNonuniform, d.blend)
	for i := 0; i < w*h; i++ {
		want := byte(i * 50)
		assert.Equal(t, want, d.rawAlpha[i*3])
	}
}

func TestNewDroponFromRawRejectsWrongSize(t *testing.T) {
	_, err := NewDroponFromRaw(make([]byte, 5), BlendFull, 4, 4)
	assert.ErrorIs(t, err, ErrInvalidRawSize)
}

func TestNewDroponFromJPEGWithMask(t *testing.T) {
	dir := t.TempDir()

	logoPath := filepath.Join(dir, "logo.jpg")
	writeTestJPEG(t, logoPath, checkerboardRGBA(16, 16))

	maskPath := filepath.Join(dir, "mask.jpg")
	writeTestGrayJPEG(t, maskPath, circularMask(16, 16, 6))

	d, err := NewDroponFromJPEG(logoPath, maskPath, BlendFull)
	require.NoError(t, err)
	assert.Equal(t, BlendNonuniform, d.blend)
	assert.Equal(t, 16, d.width)
	assert.Equal(t, 16, d.height)

	// Corners are outside the mask's radius: alpha should be near zero.
	assert.Less(t, int(d.rawAlpha[0]), 40)
	// Center is inside: alpha should be near full.
	center := (8*16 + 8) * 3
	assert.Greater(t, int(d.rawAlpha[center]), 200)
}

func TestNewDroponFromJPEGWithoutMaskUsesUniformBlend(t *testing.T) {
	dir := t.TempDir()
	logoPath := filepath.Join(dir, "logo.jpg")
	writeTestJPEG(t, logoPath, checkerboardRGBA(8, 8))

	d, err := NewDroponFromJPEG(logoPath, "", 90)
	require.NoError(t, err)
	assert.Equal(t, 90, d.blend)
	for i := 0; i < 8*8; i++ {
		assert.Equal(t, byte(90), d.rawAlpha[i*3])
	}
}

func writeTestJPEG(t *testing.T, path string, src image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpegcodec.EncodeFromPixels(&buf, src, 100, jpegcodec.YCbCr, jpegcodec.SamplingYCbCr444))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeTestGrayJPEG(t *testing.T, path string, src image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpegcodec.EncodeFromPixels(&buf, src, 100, jpegcodec.Grayscale, jpegcodec.SamplingGray))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func checkerboardRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if (x/4+y/4)%2 == 0 {
				v = 220
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func circularMask(w, h int, radius int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy := w/2, h/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			v := uint8(0)
			if dx*dx+dy*dy <= radius*radius {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
