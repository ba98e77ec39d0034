// Package imgproc provides grayscale conversion and the pixel-level image
// transforms used by the scan pipeline. All functions treat images as
// immutable and return freshly allocated results, so intermediate images can
// be reused safely across decode attempts.
package imgproc

import (
	"errors"
	"image"
	"image/color"
)

// ErrInvalidBuffer is returned when a raw pixel buffer does not match the
// declared dimensions.
var ErrInvalidBuffer = errors.New("imgproc: pixel buffer does not match dimensions")

// ToGray converts any image to 8-bit grayscale using the ITU-R BT.601 luma
// weights (0.299 R + 0.587 G + 0.114 B).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return CloneGray(g)
	}

	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()*4]
			dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
			for x := 0; x < bounds.Dx(); x++ {
				dst[x] = luma(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.RGBA:
		for y := 0; y < bounds.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+bounds.Dx()*4]
			dst := out.Pix[y*out.Stride : y*out.Stride+bounds.Dx()]
			for x := 0; x < bounds.Dx(); x++ {
				dst[x] = luma(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				out.SetGray(x-bounds.Min.X, y-bounds.Min.Y,
					color.Gray{Y: luma(uint8(r>>8), uint8(g>>8), uint8(b>>8))})
			}
		}
	}
	return out
}

// FromRGBA builds a grayscale image from a raw RGBA byte buffer such as a
// canvas capture. The buffer must hold width*height*4 bytes.
func FromRGBA(buf []byte, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 || len(buf) < width*height*4 {
		return nil, ErrInvalidBuffer
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for i := 0; i < width * height; i++ {
		off := i * 4
		out.Pix[i] = luma(buf[off], buf[off+1], buf[off+2])
	}
	return out, nil
}

// CloneGray returns a compact copy of g anchored at the origin.
func CloneGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srcOff := (y+b.Min.Y-g.Rect.Min.Y)*g.Stride + (b.Min.X - g.Rect.Min.X)
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[srcOff:srcOff+b.Dx()])
	}
	return out
}

// CropGray returns a copy of the given rectangle, clamped to image bounds.
func CropGray(g *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(g.Bounds())
	if rect.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		srcOff := (rect.Min.Y-g.Rect.Min.Y+y)*g.Stride + (rect.Min.X - g.Rect.Min.X)
		copy(out.Pix[y*out.Stride:y*out.Stride+rect.Dx()], g.Pix[srcOff:srcOff+rect.Dx()])
	}
	return out
}

// Uniform returns a width x height image filled with the given intensity.
func Uniform(width, height int, value uint8) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	for i := range out.Pix {
		out.Pix[i] = value
	}
	return out
}

func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}
