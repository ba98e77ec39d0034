package imgproc

import (
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestInvertIsInvolution(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("inverting twice restores the image", prop.ForAll(
		func(values []uint8) bool {
			img := image.NewGray(image.Rect(0, 0, len(values), 1))
			copy(img.Pix, values)
			restored := Invert(Invert(img))
			for i, v := range values {
				if restored.Pix[i] != v {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(32, gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestStretchContrast(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.Pix = []uint8{100, 150, 200}

	out := StretchContrast(img)
	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[2])

	flat := Uniform(3, 1, 128)
	assert.Equal(t, flat.Pix, StretchContrast(flat).Pix)
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	img.Pix = []uint8{0, 127, 128, 255}

	out := Threshold(img, 128)
	assert.Equal(t, []uint8{0, 0, 255, 255}, out.Pix)
}

func TestOtsuThresholdSeparatesBimodal(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 1))
	for i := 0; i < 50; i++ {
		img.Pix[i] = 30
	}
	for i := 50; i < 100; i++ {
		img.Pix[i] = 220
	}

	th := OtsuThreshold(img)
	assert.Greater(t, th, uint8(30))
	assert.LessOrEqual(t, th, uint8(220))
}

func TestPadWhite(t *testing.T) {
	img := Uniform(4, 3, 0)
	out := PadWhite(img, 2)

	assert.Equal(t, 8, out.Bounds().Dx())
	assert.Equal(t, 7, out.Bounds().Dy())
	assert.Equal(t, uint8(255), out.Pix[0])
	assert.Equal(t, uint8(0), out.GrayAt(2, 2).Y)
}

func TestRotateEnlargesCanvas(t *testing.T) {
	img := Uniform(100, 100, 0)
	out := Rotate(img, 45)
	assert.Greater(t, out.Bounds().Dx(), 100)
	assert.Greater(t, out.Bounds().Dy(), 100)
	// Corners of the enlarged canvas are background white.
	assert.Equal(t, uint8(255), out.Pix[0])
}

func TestDownscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 16)
	}

	out := Downscale(img, 2)
	assert.Equal(t, 2, out.Bounds().Dx())
	assert.Equal(t, 2, out.Bounds().Dy())
	// Top-left block holds 0, 16, 64, 80; the box average is 40.
	assert.Equal(t, uint8(40), out.Pix[0])
}

func TestResizeMax(t *testing.T) {
	small := Uniform(100, 50, 128)
	assert.Equal(t, 100, ResizeMax(small, 200).Bounds().Dx())

	large := Uniform(2000, 1000, 128)
	out := ResizeMax(large, 1000)
	assert.Equal(t, 1000, out.Bounds().Dx())
	assert.Equal(t, 500, out.Bounds().Dy())
}

func TestAdaptiveThresholdKeepsEdges(t *testing.T) {
	// Black square centered on white: edge pixels sit below their local
	// mean and binarize to black.
	img := Uniform(60, 60, 255)
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			img.Pix[y*img.Stride+x] = 0
		}
	}

	out := AdaptiveThreshold(img, 15)
	assert.Equal(t, uint8(255), out.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(0), out.GrayAt(20, 30).Y)
}

func TestAdaptiveThresholdTinyImage(t *testing.T) {
	img := Uniform(2, 2, 10)
	out := AdaptiveThreshold(img, 51)
	assert.Equal(t, img.Pix, out.Pix)
}
