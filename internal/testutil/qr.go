// Package testutil renders synthetic QR images for pipeline tests.
package testutil

import (
	"image"
	"math/rand"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/anvik-systems/payqr/internal/imgproc"
)

// RenderQR encodes text as a QR symbol rendered into a size x size grayscale
// image with a quiet zone. Failures abort the test.
func RenderQR(tb testing.TB, text string, size int) *image.Gray {
	tb.Helper()

	writer := qrcode.NewQRCodeWriter()
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 4,
	}
	matrix, err := writer.Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	if err != nil {
		tb.Fatalf("encoding QR %q: %v", text, err)
	}

	out := imgproc.Uniform(matrix.GetWidth(), matrix.GetHeight(), 255)
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				out.Pix[y*out.Stride+x] = 0
			}
		}
	}
	return out
}

// WithNoise flips the given fraction of pixels to random intensities using a
// fixed seed, so tests stay reproducible.
func WithNoise(img *image.Gray, fraction float64, seed int64) *image.Gray {
	out := imgproc.CloneGray(img)
	rng := rand.New(rand.NewSource(seed))
	flips := int(fraction * float64(len(out.Pix)))
	for rangeIdx := 0; rangeIdx < flips; rangeIdx++ {
		out.Pix[rng.Intn(len(out.Pix))] = uint8(rng.Intn(256))
	}
	return out
}

// OnCanvas centers the image on a larger uniform canvas, simulating a code
// photographed with surroundings.
func OnCanvas(img *image.Gray, canvasW, canvasH int, background uint8) *image.Gray {
	out := imgproc.Uniform(canvasW, canvasH, background)
	offX := (canvasW - img.Bounds().Dx()) / 2
	offY := (canvasH - img.Bounds().Dy()) / 2
	for y := 0; y < img.Bounds().Dy(); y++ {
		copy(out.Pix[(y+offY)*out.Stride+offX:(y+offY)*out.Stride+offX+img.Bounds().Dx()],
			img.Pix[y*img.Stride:y*img.Stride+img.Bounds().Dx()])
	}
	return out
}
