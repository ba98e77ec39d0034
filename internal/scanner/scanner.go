// Package scanner wires preprocessing, detection, decoding and payment
// parsing into the end-to-end scan pipeline.
package scanner

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"time"

	// Registered codecs for ScanBytes.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anvik-systems/payqr/internal/decode"
	"github.com/anvik-systems/payqr/internal/geometry"
	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/mldetect"
	"github.com/anvik-systems/payqr/internal/payment"
	"github.com/anvik-systems/payqr/internal/region"
)

// Scanner is the immutable scan pipeline. All components are stateless or
// read-only after construction, so one Scanner serves concurrent scans.
type Scanner struct {
	processor  *imgproc.Processor
	proposer   region.Proposer
	ml         *mldetect.Detector
	cascade    *decode.Cascade
	maxWorkers int
	rectify    bool
}

// Close releases the learned detector's model session, if one is loaded.
func (s *Scanner) Close() error {
	if s.ml != nil {
		return s.ml.Close()
	}
	return nil
}

// ScanBytes decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF, WebP) and
// scans it.
func (s *Scanner) ScanBytes(data []byte) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scanner: decode image: %w", err)
	}
	slog.Debug("image decoded", "format", format, "bytes", len(data))
	return s.ScanImage(img), nil
}

// ScanRGBA scans a raw RGBA pixel buffer, such as a canvas capture.
func (s *Scanner) ScanRGBA(buf []byte, width, height int) (*Result, error) {
	gray, err := imgproc.FromRGBA(buf, width, height)
	if err != nil {
		return nil, err
	}
	return s.ScanGray(gray), nil
}

// ScanImage converts to grayscale and scans.
func (s *Scanner) ScanImage(img image.Image) *Result {
	return s.ScanGray(imgproc.ToGray(img))
}

// ScanGray runs the full pipeline over a grayscale image. Scans never fail
// on content: an image without decodable codes yields an empty result.
func (s *Scanner) ScanGray(img *image.Gray) *Result {
	start := time.Now()

	processed := s.processor.Process(img)
	regions := s.propose(processed)

	wholeImage := false
	if len(regions) == 0 {
		// No candidates: offer the whole frame to the decode cascade.
		wholeImage = true
		regions = []region.Region{wholeFrame(processed)}
	}

	decoded := decodeParallel(regions, s.maxWorkers, s.decodeRegion)

	codes := make([]QRCode, 0, len(decoded))
	for _, c := range decoded {
		if c != nil {
			codes = append(codes, *c)
		}
	}

	// Candidates can all resist decoding, for example when a tilted code
	// yields crops the cascade cannot read. The full frame gets one attempt
	// before the scan is declared empty.
	if len(codes) == 0 && !wholeImage {
		wholeImage = true
		if c := s.decodeRegion(wholeFrame(processed)); c != nil {
			codes = append(codes, *c)
		}
	}

	result := &Result{
		QRCodes:          codes,
		BestPayment:      bestPaymentIndex(codes),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	slog.Debug("scan complete",
		"regions", len(regions),
		"decoded", len(codes),
		"whole_image_fallback", wholeImage,
		"duration_ms", result.ProcessingTimeMS)
	return result
}

// wholeFrame wraps the full preprocessed image as a single maximum-confidence
// region.
func wholeFrame(img *image.Gray) region.Region {
	return region.Region{
		Box:        img.Bounds(),
		Corners:    region.CornersFromRect(img.Bounds()),
		Image:      img,
		Confidence: 1.0,
	}
}

// propose runs the configured detector front end. A learned-detector failure
// degrades to the classical detector rather than failing the scan.
func (s *Scanner) propose(processed *image.Gray) []region.Region {
	if s.ml != nil {
		regions, err := s.ml.Propose(processed)
		if err == nil && len(regions) > 0 {
			return regions
		}
		if err != nil {
			slog.Warn("learned detector failed, falling back to finder patterns", "error", err)
		}
	}
	regions, err := s.proposer.Propose(processed)
	if err != nil {
		slog.Warn("detection failed", "error", err)
		return nil
	}
	return regions
}

// decodeRegion handles one candidate: best-effort rectification, the decode
// cascade, classification and payment parsing. A nil return means the
// region held no decodable code.
func (s *Scanner) decodeRegion(r region.Region) *QRCode {
	img := r.Image
	if s.rectify {
		if rectified, ok := s.rectifyRegion(r); ok {
			img = rectified
		}
	}

	payload, err := s.cascade.Decode(img)
	if err != nil {
		// Rectification can destroy a code the raw crop still carries.
		if img != r.Image {
			payload, err = s.cascade.Decode(r.Image)
		}
		if err != nil {
			return nil
		}
	}

	contentType := payment.Classify(payload.Text)
	var pay *payment.Info
	if contentType == payment.TypePayment {
		pay, err = payment.Parse(payload.Text)
		if err != nil {
			slog.Debug("payment parse failed", "error", err)
			pay = nil
		}
	}

	return &QRCode{
		Content:     payload.Text,
		BBox:        [4]int{r.Box.Min.X, r.Box.Min.Y, r.Box.Dx(), r.Box.Dy()},
		Corners:     r.Corners,
		ContentType: contentType,
		Payment:     pay,
		Confidence:  r.Confidence,
		ECLevel:     payload.ECLevel.String(),
		Version:     payload.Version,
	}
}

// rectifyRegion finds the code's corners inside the crop and warps it to a
// fronto-parallel square. Failure at any step keeps the original crop.
func (s *Scanner) rectifyRegion(r region.Region) (*image.Gray, bool) {
	corners, ok := geometry.FindCorners(r.Image)
	if !ok {
		return nil, false
	}
	side := max(r.Image.Bounds().Dx(), r.Image.Bounds().Dy())
	warped, err := geometry.Warp(r.Image, corners, side)
	if err != nil {
		slog.Debug("rectification failed", "error", err)
		return nil, false
	}
	return warped, true
}
