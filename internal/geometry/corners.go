package geometry

import (
	"image"
	"math"
	"sort"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/region"
)

const (
	// rdpEpsilon is the polygon simplification tolerance in pixels.
	rdpEpsilon = 5.0
	// minAreaFraction rejects contours smaller than this share of the crop.
	minAreaFraction = 0.10
	// cornerBlockSize is the adaptive binarization window for corner finding.
	cornerBlockSize = 51
)

// FindCorners locates the four corners of the dominant dark shape in a
// cropped candidate region. It binarizes adaptively, traces the outer
// contour of the largest dark component, simplifies it, and accepts only a
// convex quadrilateral covering a meaningful part of the crop. The returned
// corners are ordered top-left, top-right, bottom-right, bottom-left, in
// crop coordinates.
func FindCorners(crop *image.Gray) ([4]region.Point, bool) {
	w, h := crop.Bounds().Dx(), crop.Bounds().Dy()
	if w < 8 || h < 8 {
		return [4]region.Point{}, false
	}

	bin := imgproc.AdaptiveThreshold(crop, cornerBlockSize)
	contour := largestContour(bin)
	if len(contour) < 4 {
		return [4]region.Point{}, false
	}

	poly := simplifyClosed(contour, rdpEpsilon)
	if len(poly) != 4 || !isConvex(poly) {
		return [4]region.Point{}, false
	}
	if polygonArea(poly) < minAreaFraction*float64(w*h) {
		return [4]region.Point{}, false
	}

	return sortCorners(poly), true
}

// mooreDirs enumerates the 8-neighborhood clockwise starting west.
var mooreDirs = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

// largestContour traces the outer boundary of every dark component reached
// in scan order and returns the one enclosing the largest area.
func largestContour(bin *image.Gray) []image.Point {
	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	visited := make([]bool, w*h)

	var best []image.Point
	var bestArea float64

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bin.Pix[y*bin.Stride+x] != 0 || visited[y*w+x] {
				continue
			}
			if x > 0 && bin.Pix[y*bin.Stride+x-1] == 0 {
				continue // interior pixel, not a left boundary entry
			}
			contour := traceContour(bin, image.Pt(x, y))
			for _, p := range contour {
				visited[p.Y*w+p.X] = true
			}
			if a := contourArea(contour); a > bestArea {
				bestArea = a
				best = contour
			}
		}
	}
	return best
}

// traceContour follows the boundary of a dark component with Moore-neighbor
// tracing, starting from a pixel entered from the west.
func traceContour(bin *image.Gray, start image.Point) []image.Point {
	w, h := bin.Bounds().Dx(), bin.Bounds().Dy()
	dark := func(p image.Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h &&
			bin.Pix[p.Y*bin.Stride+p.X] == 0
	}

	contour := []image.Point{start}
	cur := start
	backtrack := 0 // west
	maxSteps := 4 * (w + h) * 4

	for rangeIdx := 0; rangeIdx < maxSteps; rangeIdx++ {
		moved := false
		for i := 0; i < 8; i++ {
			d := (backtrack + 1 + i) % 8
			n := cur.Add(mooreDirs[d])
			if dark(n) {
				cur = n
				backtrack = (d + 4) % 8
				moved = true
				break
			}
		}
		if !moved || cur == start {
			break
		}
		contour = append(contour, cur)
	}
	return contour
}

// contourArea computes the enclosed area via the shoelace formula.
func contourArea(contour []image.Point) float64 {
	if len(contour) < 3 {
		return 0
	}
	var sum float64
	for i, p := range contour {
		q := contour[(i+1)%len(contour)]
		sum += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(sum) / 2
}

// simplifyClosed runs Ramer-Douglas-Peucker on a closed contour by splitting
// it at the point farthest from the start, so both halves have stable
// anchors.
func simplifyClosed(contour []image.Point, epsilon float64) []region.Point {
	pts := make([]region.Point, len(contour))
	for i, p := range contour {
		pts[i] = region.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	if len(pts) < 3 {
		return pts
	}

	far := 0
	var farDist float64
	for i, p := range pts {
		d := math.Hypot(p.X-pts[0].X, p.Y-pts[0].Y)
		if d > farDist {
			farDist = d
			far = i
		}
	}

	first := rdp(pts[:far+1], epsilon)
	second := rdp(append(pts[far:], pts[0]), epsilon)

	// Both halves include their shared endpoints; drop the duplicates.
	out := append(first, second[1:len(second)-1]...)
	return out
}

// rdp simplifies an open polyline, keeping endpoints.
func rdp(pts []region.Point, epsilon float64) []region.Point {
	if len(pts) < 3 {
		out := make([]region.Point, len(pts))
		copy(out, pts)
		return out
	}

	a, b := pts[0], pts[len(pts)-1]
	var maxDist float64
	index := 0
	for i := 1; i < len(pts)-1; i++ {
		if d := pointLineDistance(pts[i], a, b); d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist <= epsilon {
		return []region.Point{a, b}
	}
	left := rdp(pts[:index+1], epsilon)
	right := rdp(pts[index:], epsilon)
	return append(left[:len(left)-1], right...)
}

// pointLineDistance is the perpendicular distance from p to the line a-b.
func pointLineDistance(p, a, b region.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// isConvex reports whether the polygon's turns all have the same sign.
func isConvex(poly []region.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}

func polygonArea(poly []region.Point) float64 {
	var sum float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// sortCorners orders four points top-left, top-right, bottom-right,
// bottom-left by splitting on the vertical midline.
func sortCorners(poly []region.Point) [4]region.Point {
	pts := make([]region.Point, 4)
	copy(pts, poly)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})

	top := pts[:2]
	bottom := pts[2:]
	if top[0].X > top[1].X {
		top[0], top[1] = top[1], top[0]
	}
	if bottom[0].X < bottom[1].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}
	return [4]region.Point{top[0], top[1], bottom[0], bottom[1]}
}
