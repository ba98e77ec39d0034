package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/region"
)

func unitSquare() [4]region.Point {
	return [4]region.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func TestFindHomographyIdentity(t *testing.T) {
	square := unitSquare()
	h, err := FindHomography(square, square)
	require.NoError(t, err)

	identity := Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range h {
		assert.InDelta(t, identity[i], h[i], 1e-3, "element %d", i)
	}
}

func TestFindHomographyMapsCorners(t *testing.T) {
	src := unitSquare()
	dst := [4]region.Point{{X: 10, Y: 20}, {X: 110, Y: 25}, {X: 105, Y: 130}, {X: 8, Y: 118}}

	h, err := FindHomography(src, dst)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		mapped := h.Apply(src[i])
		assert.InDelta(t, dst[i].X, mapped.X, 1e-6)
		assert.InDelta(t, dst[i].Y, mapped.Y, 1e-6)
	}
}

func TestFindHomographyDegenerate(t *testing.T) {
	t.Run("duplicate points", func(t *testing.T) {
		bad := [4]region.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
		_, err := FindHomography(bad, unitSquare())
		assert.ErrorIs(t, err, ErrDegenerate)
	})

	t.Run("collinear points", func(t *testing.T) {
		bad := [4]region.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 1}}
		_, err := FindHomography(unitSquare(), bad)
		assert.ErrorIs(t, err, ErrDegenerate)
	})
}

func TestFindHomographyCornerProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Quads built by jittering a square stay convex and non-degenerate, so
	// the DLT solution must reproduce all four correspondences.
	properties.Property("homography reproduces its defining correspondences", prop.ForAll(
		func(jitter []float64) bool {
			base := [4]region.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
			dst := base
			for i := 0; i < 4; i++ {
				dst[i].X += jitter[2*i]
				dst[i].Y += jitter[2*i+1]
			}

			h, err := FindHomography(base, dst)
			if err != nil {
				return false
			}
			for i := 0; i < 4; i++ {
				mapped := h.Apply(base[i])
				if math.Abs(mapped.X-dst[i].X) > 1e-5 || math.Abs(mapped.Y-dst[i].Y) > 1e-5 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.Float64Range(-20, 20)),
	))

	properties.TestingRun(t)
}

func TestWarpIdentityQuad(t *testing.T) {
	src := imgproc.Uniform(50, 50, 255)
	for y := 10; y < 40; y++ {
		for x := 10; x < 40; x++ {
			src.Pix[y*src.Stride+x] = 0
		}
	}

	quad := [4]region.Point{{X: 0, Y: 0}, {X: 49, Y: 0}, {X: 49, Y: 49}, {X: 0, Y: 49}}
	out, err := Warp(src, quad, 50)
	require.NoError(t, err)

	assert.Equal(t, uint8(255), out.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(0), out.GrayAt(25, 25).Y)
}

func TestWarpFillsOutsideBlack(t *testing.T) {
	src := imgproc.Uniform(20, 20, 255)
	quad := [4]region.Point{{X: -10, Y: -10}, {X: 15, Y: -8}, {X: 14, Y: 16}, {X: -9, Y: 15}}

	out, err := Warp(src, quad, 32)
	require.NoError(t, err)
	// The top-left of the quad lies outside the source and samples black.
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
}

func TestWarpRejectsBadSize(t *testing.T) {
	src := imgproc.Uniform(10, 10, 255)
	_, err := Warp(src, unitSquare(), 0)
	assert.Error(t, err)
}
