// Package decode turns candidate region images into QR payloads. Two codec
// providers sit behind a common interface and a transform cascade retries
// them on progressively more aggressive image variants until one succeeds.
package decode

import (
	"errors"
	"fmt"
	"image"
)

// ErrNotFound is returned when no provider decodes any variant of an image.
var ErrNotFound = errors.New("decode: no QR code found")

// DecodeFailedError reports a grid that was located but failed error
// correction or payload checks, which is worth distinguishing from never
// having seen a grid at all.
type DecodeFailedError struct {
	Detail string
}

func (e *DecodeFailedError) Error() string {
	return fmt.Sprintf("decode: grid found but undecodable: %s", e.Detail)
}

// Level is a QR error-correction level.
type Level uint8

const (
	LevelUnknown Level = iota
	LevelL
	LevelM
	LevelQ
	LevelH
)

// String returns the single-letter name, or "?" when unknown.
func (l Level) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	default:
		return "?"
	}
}

// ParseLevel maps a single-letter level name to a Level.
func ParseLevel(s string) Level {
	switch s {
	case "L":
		return LevelL
	case "M":
		return LevelM
	case "Q":
		return LevelQ
	case "H":
		return LevelH
	default:
		return LevelUnknown
	}
}

// Payload is a successfully decoded QR symbol. Version is 0 when the
// provider does not expose it.
type Payload struct {
	Text     string `json:"text"`
	ECLevel  Level  `json:"ec_level"`
	Version  uint8  `json:"version,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// Provider is a QR codec backend. TryDecode returns ErrNotFound when no grid
// is present, a DecodeFailedError when a grid resists decoding, and the
// payload on success.
type Provider interface {
	Name() string
	TryDecode(img *image.Gray) (*Payload, error)
}
