// Package region defines the detected-region type shared by the detector
// front ends and the Proposer capability they implement.
package region

import (
	"image"
)

// Point is a 2D coordinate in source-image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is a candidate QR placement produced by a detector front end.
// Corners are ordered top-left, top-right, bottom-right, bottom-left.
// Image is a private cropped copy of the source; it never aliases the
// original buffer.
type Region struct {
	Box        image.Rectangle
	Corners    [4]Point
	Image      *image.Gray
	Confidence float32
}

// CornersFromRect fills the corner array from an axis-aligned rectangle.
func CornersFromRect(r image.Rectangle) [4]Point {
	return [4]Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}

// Proposer proposes candidate QR regions in a preprocessed grayscale image.
// The classical finder-pattern detector and the learned detector are the two
// implementations; callers select one by configuration.
type Proposer interface {
	Propose(img *image.Gray) ([]Region, error)
}
