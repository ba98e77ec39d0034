package scanner

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/payment"
	"github.com/anvik-systems/payqr/internal/testutil"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	s, err := NewBuilder().Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestScanUniformImageIsEmpty(t *testing.T) {
	s := newTestScanner(t)

	result := s.ScanGray(imgproc.Uniform(100, 100, 128))
	require.NotNil(t, result)
	assert.Empty(t, result.QRCodes)
	assert.Nil(t, result.BestPayment)
	assert.GreaterOrEqual(t, result.ProcessingTimeMS, int64(0))
}

func TestScanFindsPaymentQR(t *testing.T) {
	s := newTestScanner(t)

	content := "https://qr.nspk.ru/AS1234567890?sum=10000&cur=RUB"
	qr := testutil.RenderQR(t, content, 300)
	img := testutil.OnCanvas(qr, 500, 500, 255)

	result := s.ScanGray(img)
	require.Len(t, result.QRCodes, 1)

	code := result.QRCodes[0]
	assert.Equal(t, content, code.Content)
	assert.Equal(t, payment.TypePayment, code.ContentType)
	require.NotNil(t, code.Payment)
	assert.Equal(t, payment.FormatSBP, code.Payment.Format)
	require.NotNil(t, code.Payment.Amount)
	assert.InDelta(t, 100.0, *code.Payment.Amount, 1e-9)

	require.NotNil(t, result.BestPayment)
	assert.Equal(t, 0, *result.BestPayment)
}

func TestScanPlainTextHasNoPayment(t *testing.T) {
	s := newTestScanner(t)

	img := testutil.OnCanvas(testutil.RenderQR(t, "just some text", 300), 500, 500, 255)
	result := s.ScanGray(img)

	require.Len(t, result.QRCodes, 1)
	assert.Equal(t, payment.TypeText, result.QRCodes[0].ContentType)
	assert.Nil(t, result.QRCodes[0].Payment)
	assert.Nil(t, result.BestPayment)
}

func TestScanRotatedQRDecodesViaWholeImage(t *testing.T) {
	s := newTestScanner(t)

	// A 45 degree tilt gives the detector crops the cascade cannot read;
	// the scan must still succeed through the full-frame retry.
	img := imgproc.Rotate(testutil.RenderQR(t, "rotated scenario", 240), 45)
	result := s.ScanGray(img)

	require.Len(t, result.QRCodes, 1)
	code := result.QRCodes[0]
	assert.Equal(t, "rotated scenario", code.Content)
	assert.InDelta(t, 1.0, float64(code.Confidence), 1e-6)
	assert.Equal(t, [4]int{0, 0, img.Bounds().Dx(), img.Bounds().Dy()}, code.BBox)
}

func TestScanBytesRoundTrip(t *testing.T) {
	s := newTestScanner(t)

	img := testutil.OnCanvas(testutil.RenderQR(t, "png round trip", 300), 500, 500, 255)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	result, err := s.ScanBytes(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, result.QRCodes, 1)
	assert.Equal(t, "png round trip", result.QRCodes[0].Content)
}

func TestScanBytesRejectsGarbage(t *testing.T) {
	s := newTestScanner(t)
	_, err := s.ScanBytes([]byte("not an image"))
	assert.Error(t, err)
}

func TestScanRGBA(t *testing.T) {
	s := newTestScanner(t)

	_, err := s.ScanRGBA([]byte{1, 2, 3}, 10, 10)
	assert.ErrorIs(t, err, imgproc.ErrInvalidBuffer)

	buf := make([]byte, 20*20*4)
	for i := range buf {
		buf[i] = 200
	}
	result, err := s.ScanRGBA(buf, 20, 20)
	require.NoError(t, err)
	assert.Empty(t, result.QRCodes)
}

func TestResultJSONShape(t *testing.T) {
	s := newTestScanner(t)

	img := testutil.OnCanvas(testutil.RenderQR(t, "ST.00012|Name=Acme|Sum=250000", 300), 500, 500, 255)
	result := s.ScanGray(img)
	require.Len(t, result.QRCodes, 1)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "qr_codes")
	assert.Contains(t, decoded, "best_payment")
	assert.Contains(t, decoded, "processing_time_ms")
}

func TestBestPaymentIndexPrefersHigherRelevance(t *testing.T) {
	amount := 10.0
	codes := []QRCode{
		{Content: "ST.00012|Name=A|Sum=1000", Payment: &payment.Info{Format: payment.FormatST, Amount: &amount}},
		{Content: "https://qr.nspk.ru/X?sum=1000", Payment: &payment.Info{Format: payment.FormatSBP, Amount: &amount}},
	}

	idx := bestPaymentIndex(codes)
	require.NotNil(t, idx)
	assert.Equal(t, 1, *idx)
}

func TestBestPaymentIndexSkipsNonPayments(t *testing.T) {
	codes := []QRCode{
		{Content: "https://qr.nspk.ru/X"},
		{Content: "hello"},
	}
	assert.Nil(t, bestPaymentIndex(codes))
}

func TestDecodeParallelPreservesOrder(t *testing.T) {
	s := newTestScanner(t)

	// Two codes side by side must come back in detection order.
	left := testutil.RenderQR(t, "left code", 220)
	right := testutil.RenderQR(t, "right code", 220)

	canvas := imgproc.Uniform(900, 420, 255)
	blit(canvas, left, 60, 100)
	blit(canvas, right, 560, 100)

	result := s.ScanGray(canvas)
	require.Len(t, result.QRCodes, 2)
	assert.Less(t, result.QRCodes[0].BBox[0], result.QRCodes[1].BBox[0])

	contents := []string{result.QRCodes[0].Content, result.QRCodes[1].Content}
	assert.ElementsMatch(t, []string{"left code", "right code"}, contents)
}

func blit(dst, src *image.Gray, offX, offY int) {
	for y := 0; y < src.Bounds().Dy(); y++ {
		copy(dst.Pix[(y+offY)*dst.Stride+offX:(y+offY)*dst.Stride+offX+src.Bounds().Dx()],
			src.Pix[y*src.Stride:y*src.Stride+src.Bounds().Dx()])
	}
}
