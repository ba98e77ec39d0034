package decode

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// zxingProvider decodes via gozxing's QR reader with the TryHarder hint. It
// handles damaged and skewed symbols better than the grid provider at the
// cost of speed, so the cascade consults it second.
type zxingProvider struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewZXingProvider returns the gozxing-backed codec provider.
func NewZXingProvider() Provider {
	return &zxingProvider{
		reader: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (p *zxingProvider) Name() string { return "gozxing" }

func (p *zxingProvider) TryDecode(img *image.Gray) (*Payload, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, &DecodeFailedError{Detail: err.Error()}
	}

	result, err := p.reader.Decode(bmp, p.hints)
	if err != nil {
		switch err.(type) {
		case gozxing.ChecksumException, gozxing.FormatException:
			return nil, &DecodeFailedError{Detail: err.Error()}
		default:
			return nil, ErrNotFound
		}
	}

	payload := &Payload{Text: result.GetText()}
	if meta := result.GetResultMetadata(); meta != nil {
		if ec, ok := meta[gozxing.ResultMetadataType_ERROR_CORRECTION_LEVEL].(string); ok {
			payload.ECLevel = ParseLevel(ec)
		}
	}
	return payload, nil
}
