package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/region"
)

func blackSquareOnWhite(canvas, x0, y0, side int) *image.Gray {
	img := imgproc.Uniform(canvas, canvas, 255)
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			img.Pix[y*img.Stride+x] = 0
		}
	}
	return img
}

func TestFindCornersAxisAlignedSquare(t *testing.T) {
	img := blackSquareOnWhite(120, 30, 30, 60)

	corners, ok := FindCorners(img)
	require.True(t, ok)

	// Corners land near the square's own corners, ordered TL TR BR BL.
	expected := [4]region.Point{{X: 30, Y: 30}, {X: 89, Y: 30}, {X: 89, Y: 89}, {X: 30, Y: 89}}
	for i := 0; i < 4; i++ {
		assert.InDelta(t, expected[i].X, corners[i].X, 6, "corner %d x", i)
		assert.InDelta(t, expected[i].Y, corners[i].Y, 6, "corner %d y", i)
	}
}

func TestFindCornersRejectsBlank(t *testing.T) {
	img := imgproc.Uniform(100, 100, 255)
	_, ok := FindCorners(img)
	assert.False(t, ok)
}

func TestFindCornersRejectsTinyShape(t *testing.T) {
	// A speck well below the area gate.
	img := blackSquareOnWhite(200, 90, 90, 8)
	_, ok := FindCorners(img)
	assert.False(t, ok)
}

func TestFindCornersRejectsSmallImage(t *testing.T) {
	img := imgproc.Uniform(4, 4, 0)
	_, ok := FindCorners(img)
	assert.False(t, ok)
}

func TestSortCorners(t *testing.T) {
	unsorted := []region.Point{{X: 9, Y: 10}, {X: 1, Y: 0}, {X: 0, Y: 9}, {X: 10, Y: 1}}
	got := sortCorners(unsorted)

	assert.Equal(t, region.Point{X: 1, Y: 0}, got[0])  // top-left
	assert.Equal(t, region.Point{X: 10, Y: 1}, got[1]) // top-right
	assert.Equal(t, region.Point{X: 9, Y: 10}, got[2]) // bottom-right
	assert.Equal(t, region.Point{X: 0, Y: 9}, got[3])  // bottom-left
}

func TestIsConvex(t *testing.T) {
	convex := []region.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.True(t, isConvex(convex))

	concave := []region.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 10}}
	assert.False(t, isConvex(concave))
}
