package scanner

import (
	"github.com/anvik-systems/payqr/internal/payment"
	"github.com/anvik-systems/payqr/internal/region"
)

// QRCode is one decoded symbol with its placement and interpretation.
// BBox is [x, y, width, height] in preprocessed-image pixels.
type QRCode struct {
	Content     string               `json:"content"`
	BBox        [4]int               `json:"bbox"`
	Corners     [4]region.Point      `json:"corners"`
	ContentType payment.ContentType  `json:"content_type"`
	Payment     *payment.Info        `json:"payment,omitempty"`
	Confidence  float32              `json:"confidence"`
	ECLevel     string               `json:"ec_level,omitempty"`
	Version     uint8                `json:"version,omitempty"`
}

// Result aggregates everything found in one image. BestPayment indexes the
// payment-typed entry with the highest relevance score, or is nil when no
// payment was decoded.
type Result struct {
	QRCodes          []QRCode `json:"qr_codes"`
	BestPayment      *int     `json:"best_payment,omitempty"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}

// bestPaymentIndex selects the entry to point BestPayment at. Ties resolve
// to the earlier detection, keeping output deterministic.
func bestPaymentIndex(codes []QRCode) *int {
	best := -1
	var bestScore float32 = -1
	for i, code := range codes {
		if code.Payment == nil {
			continue
		}
		if score := payment.RelevanceScore(code.Content); score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &best
}
