package mldetect

import (
	"fmt"
	"image"
	"log/slog"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/anvik-systems/payqr/internal/geometry"
	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/region"
)

// candidate is one scored box in source-image coordinates.
type candidate struct {
	box   image.Rectangle
	score float32
}

// Propose runs the model over the image and returns the surviving detections
// as regions, highest score first.
func (d *Detector) Propose(img *image.Gray) ([]region.Region, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	data := d.preprocess(img)
	out, shape, err := d.runInference(data, d.cfg.InputSize)
	if err != nil {
		return nil, err
	}

	candidates, err := d.parseOutput(out, shape, w, h)
	if err != nil {
		return nil, err
	}
	kept := nonMaxSuppression(candidates, d.cfg.IoUThreshold)
	slog.Debug("ml detection", "raw", len(candidates), "kept", len(kept))

	regions := make([]region.Region, 0, len(kept))
	for _, c := range kept {
		box := c.box.Intersect(img.Bounds())
		if box.Empty() {
			continue
		}
		crop := imgproc.CropGray(img, box)
		corners := region.CornersFromRect(box)
		if d.cfg.RefineCorners {
			if refined, ok := geometry.FindCorners(crop); ok {
				for i, p := range refined {
					corners[i] = region.Point{
						X: p.X + float64(box.Min.X),
						Y: p.Y + float64(box.Min.Y),
					}
				}
			}
		}
		regions = append(regions, region.Region{
			Box:        box,
			Corners:    corners,
			Image:      crop,
			Confidence: c.score,
		})
	}
	return regions, nil
}

// preprocess stretch-resizes the gray image to the model's square input and
// lays it out as an NCHW float tensor in [0, 1], replicating the single
// channel three times.
func (d *Detector) preprocess(img *image.Gray) []float32 {
	size := d.cfg.InputSize
	resized := imgproc.ToGray(imaging.Resize(img, size, size, imaging.Linear))

	plane := size * size
	data := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := float32(resized.Pix[y*resized.Stride+x]) / 255.0
			i := y*size + x
			data[i] = v
			data[plane+i] = v
			data[2*plane+i] = v
		}
	}
	return data
}

// parseOutput decodes a (1, 4+nc, anchors) prediction tensor: per anchor a
// cxcywh box in input coordinates followed by per-class scores. Boxes whose
// best class score passes the threshold are scaled back to the source image.
func (d *Detector) parseOutput(out []float32, shape []int64, origW, origH int) ([]candidate, error) {
	if len(shape) != 3 || shape[0] != 1 || shape[1] < 5 {
		return nil, fmt.Errorf("mldetect: unexpected output shape %v", shape)
	}
	channels := int(shape[1])
	anchors := int(shape[2])
	if len(out) < channels*anchors {
		return nil, fmt.Errorf("mldetect: output tensor truncated: %d < %d",
			len(out), channels*anchors)
	}

	scaleX := float64(origW) / float64(d.cfg.InputSize)
	scaleY := float64(origH) / float64(d.cfg.InputSize)

	var candidates []candidate
	for a := 0; a < anchors; a++ {
		var best float32
		for c := 4; c < channels; c++ {
			if s := out[c*anchors+a]; s > best {
				best = s
			}
		}
		if best < d.cfg.ConfThreshold {
			continue
		}

		cx := float64(out[a])
		cy := float64(out[anchors+a])
		bw := float64(out[2*anchors+a])
		bh := float64(out[3*anchors+a])

		candidates = append(candidates, candidate{
			box: image.Rect(
				int((cx-bw/2)*scaleX), int((cy-bh/2)*scaleY),
				int((cx+bw/2)*scaleX), int((cy+bh/2)*scaleY),
			),
			score: best,
		})
	}
	return candidates, nil
}

// nonMaxSuppression keeps the highest-scoring boxes, greedily dropping any
// later box overlapping a kept one beyond the IoU threshold.
func nonMaxSuppression(candidates []candidate, iouThreshold float64) []candidate {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	var kept []candidate
	for _, c := range sorted {
		overlaps := false
		for _, k := range kept {
			if iou(c.box, k.box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// iou is the intersection-over-union of two rectangles.
func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
