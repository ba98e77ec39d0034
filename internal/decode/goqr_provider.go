package decode

import (
	"fmt"
	"image"

	"github.com/liyue201/goqr"
)

// gridProvider decodes via the quirc-derived goqr package, which reads the
// module grid directly and exposes symbol version and EC level.
type gridProvider struct{}

// NewGridProvider returns the goqr-backed codec provider.
func NewGridProvider() Provider { return &gridProvider{} }

func (p *gridProvider) Name() string { return "goqr" }

func (p *gridProvider) TryDecode(img *image.Gray) (*Payload, error) {
	codes, err := goqr.Recognize(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	if len(codes) == 0 {
		return nil, ErrNotFound
	}

	code := codes[0]
	return &Payload{
		Text:    string(code.Payload),
		ECLevel: eccLevelFromFormat(code.EccLevel),
		Version: uint8(code.Version),
	}, nil
}

// eccLevelFromFormat maps the two raw format-information bits to a level.
// The QR spec encodes them as 00=M, 01=L, 10=H, 11=Q.
func eccLevelFromFormat(bits int) Level {
	switch bits {
	case 0:
		return LevelM
	case 1:
		return LevelL
	case 2:
		return LevelH
	case 3:
		return LevelQ
	default:
		return LevelUnknown
	}
}
