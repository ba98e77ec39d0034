package detector

import (
	"image"
	"math"
)

// finderPattern is a candidate alignment-marker location. Patterns are
// created and consumed entirely within this package.
type finderPattern struct {
	centerX    float64
	centerY    float64
	moduleSize float64
}

// findFinderPatterns scans every row for the 1:1:3:1:1 black/white run
// signature, cross-checks each horizontal hit vertically, and merges
// near-duplicate hits from adjacent rows.
func (d *Detector) findFinderPatterns(img *image.Gray) []finderPattern {
	var patterns []finderPattern
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		var stateCount [5]int
		state := 0

		for x, v := range row {
			black := v < d.cfg.Threshold
			if black {
				if state%2 == 1 {
					state++
				}
				stateCount[state]++
				continue
			}
			// White pixel.
			if state%2 == 0 {
				if state == 4 {
					// Five runs complete: test the window, then slide
					// it by two runs and keep scanning.
					if hit, ok := d.handleWindow(img, stateCount, x, y); ok {
						patterns = append(patterns, hit)
					}
					stateCount[0] = stateCount[2]
					stateCount[1] = stateCount[3]
					stateCount[2] = stateCount[4]
					stateCount[3] = 0
					stateCount[4] = 0
					state = 3
				} else {
					state++
				}
			}
			stateCount[state]++
		}

		// Row ended inside the final black run.
		if state == 4 {
			if hit, ok := d.handleWindow(img, stateCount, w, y); ok {
				patterns = append(patterns, hit)
			}
		}
	}

	return d.mergePatterns(patterns)
}

// handleWindow validates a completed 5-run window ending just before column
// x and returns the confirmed pattern, if any.
func (d *Detector) handleWindow(img *image.Gray, counts [5]int, x, y int) (finderPattern, bool) {
	if !d.checkRatio(counts) {
		return finderPattern{}, false
	}
	total := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	centerX := x - counts[4] - counts[3] - (counts[2]+1)/2
	if !d.verifyVertical(img, centerX, y, total) {
		return finderPattern{}, false
	}
	return finderPattern{
		centerX:    float64(centerX),
		centerY:    float64(y),
		moduleSize: float64(total) / 7.0,
	}, true
}

// checkRatio tests whether five run lengths approximate 1:1:3:1:1 within the
// configured tolerance of one module size (module = total/7).
func (d *Detector) checkRatio(counts [5]int) bool {
	total := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7.0
	tolerance := moduleSize * d.cfg.RatioTolerance

	expected := [5]float64{1, 1, 3, 1, 1}
	for i, c := range counts {
		if math.Abs(float64(c)-expected[i]*moduleSize) > tolerance*expected[i] {
			return false
		}
	}
	return true
}

// verifyVertical re-runs the ratio test on a vertical scan through the
// candidate column, rejecting spurious horizontal coincidences.
func (d *Detector) verifyVertical(img *image.Gray, centerX, centerY, totalH int) bool {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if centerX < 0 || centerX >= w {
		return false
	}

	checkRange := totalH / 2
	startY := max(centerY-checkRange, 0)
	endY := min(centerY+checkRange, h-1)

	var counts [5]int
	state := 0
	for y := startY; y <= endY; y++ {
		black := img.Pix[y*img.Stride+centerX] < d.cfg.Threshold
		expectBlack := state%2 == 0
		if black == expectBlack {
			counts[state]++
		} else {
			state++
			if state >= 5 {
				break
			}
			counts[state] = 1
		}
	}
	return d.checkRatio(counts)
}

// mergePatterns averages patterns whose centers lie within two module sizes
// of each other. The first-seen pattern anchors the growing cluster, so ties
// resolve by processing order.
func (d *Detector) mergePatterns(patterns []finderPattern) []finderPattern {
	if len(patterns) == 0 {
		return patterns
	}

	merged := make([]finderPattern, 0, len(patterns))
	used := make([]bool, len(patterns))

	for i, p1 := range patterns {
		if used[i] {
			continue
		}
		sumX, sumY, sumSize := p1.centerX, p1.centerY, p1.moduleSize
		count := 1.0

		for j := i + 1; j < len(patterns); j++ {
			if used[j] {
				continue
			}
			p2 := patterns[j]
			if math.Hypot(p1.centerX-p2.centerX, p1.centerY-p2.centerY) < p1.moduleSize*2 {
				sumX += p2.centerX
				sumY += p2.centerY
				sumSize += p2.moduleSize
				count++
				used[j] = true
			}
		}

		merged = append(merged, finderPattern{
			centerX:    sumX / count,
			centerY:    sumY / count,
			moduleSize: sumSize / count,
		})
		used[i] = true
	}
	return merged
}
