// Package geometry estimates the perspective placement of a detected QR code
// and rectifies it to a fronto-parallel square. Corner finding and warping
// are best-effort; callers fall back to the unrectified crop when either
// step fails.
package geometry

import (
	"errors"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/anvik-systems/payqr/internal/region"
)

// ErrDegenerate is returned when the four correspondences do not determine a
// perspective transform (duplicate or collinear points).
var ErrDegenerate = errors.New("geometry: degenerate point configuration")

// Homography is a 3x3 projective transform in row-major order.
type Homography [9]float64

// Apply maps a point through the transform.
func (h Homography) Apply(p region.Point) region.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		w = 1e-12
	}
	return region.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// FindHomography computes the transform mapping each src corner onto the
// corresponding dst corner using the direct linear transform: the stacked
// 8x9 system is solved by SVD, the solution being the right singular vector
// of the smallest singular value.
func FindHomography(src, dst [4]region.Point) (Homography, error) {
	if degenerate(src) || degenerate(dst) {
		return Homography{}, ErrDegenerate
	}

	a := mat.NewDense(8, 9, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return Homography{}, errors.New("geometry: SVD failed to converge")
	}
	var v mat.Dense
	svd.VTo(&v)

	var h Homography
	for i := 0; i < 9; i++ {
		h[i] = v.At(i, 8)
	}

	// Normalize so the projective scale is 1 when numerically safe.
	if math.Abs(h[8]) > 1e-10 {
		for i := range h {
			h[i] /= h[8]
		}
	}
	return h, nil
}

// degenerate reports whether any two points coincide or any three are
// collinear.
func degenerate(pts [4]region.Point) bool {
	const eps = 1e-9
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if math.Abs(pts[i].X-pts[j].X) < eps && math.Abs(pts[i].Y-pts[j].Y) < eps {
				return true
			}
		}
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				ax, ay := pts[j].X-pts[i].X, pts[j].Y-pts[i].Y
				bx, by := pts[k].X-pts[i].X, pts[k].Y-pts[i].Y
				if math.Abs(ax*by-ay*bx) < eps {
					return true
				}
			}
		}
	}
	return false
}

// Warp resamples the quadrilateral quad from src into a side x side square.
// The transform is computed from the destination square to the source quad
// so every output pixel maps back to an exact source location; samples are
// bilinear, with black outside the source bounds.
func Warp(src *image.Gray, quad [4]region.Point, side int) (*image.Gray, error) {
	if side <= 0 {
		return nil, errors.New("geometry: non-positive warp size")
	}
	s := float64(side - 1)
	square := [4]region.Point{{X: 0, Y: 0}, {X: s, Y: 0}, {X: s, Y: s}, {X: 0, Y: s}}
	h, err := FindHomography(square, quad)
	if err != nil {
		return nil, err
	}

	out := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			p := h.Apply(region.Point{X: float64(x), Y: float64(y)})
			out.Pix[y*out.Stride+x] = sampleBilinear(src, p.X, p.Y)
		}
	}
	return out, nil
}

// sampleBilinear interpolates the four pixels around (x, y), returning black
// for samples outside the image.
func sampleBilinear(g *image.Gray, x, y float64) uint8 {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 0
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := float64(g.Pix[y0*g.Stride+x0])
	p10 := float64(g.Pix[y0*g.Stride+x1])
	p01 := float64(g.Pix[y1*g.Stride+x0])
	p11 := float64(g.Pix[y1*g.Stride+x1])

	top := p00*(1-fx) + p10*fx
	bottom := p01*(1-fx) + p11*fx
	return uint8(math.Round(top*(1-fy) + bottom*fy))
}
