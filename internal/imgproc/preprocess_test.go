package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessorBinarizesAndBounds(t *testing.T) {
	p := NewProcessor(DefaultConfig())

	img := Uniform(2400, 1200, 255)
	for y := 500; y < 700; y++ {
		for x := 500; x < 700; x++ {
			img.Pix[y*img.Stride+x] = 0
		}
	}

	out := p.Process(img)
	assert.LessOrEqual(t, out.Bounds().Dx(), 1000)
	assert.LessOrEqual(t, out.Bounds().Dy(), 1000)
	for _, v := range out.Pix {
		assert.Contains(t, []uint8{0, 255}, v)
	}
}

func TestProcessorAllStepsDisabled(t *testing.T) {
	p := NewProcessor(Config{BlockSize: 51})

	img := Uniform(10, 10, 77)
	out := p.Process(img)
	assert.Equal(t, img.Pix, out.Pix)
}
