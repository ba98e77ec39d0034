package payment

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrNotPayment is returned when the text matches no supported payment
// format.
var ErrNotPayment = errors.New("payment: not a recognized payment format")

// Format identifies the payment payload grammar.
type Format string

const (
	FormatEMV     Format = "emv"
	FormatSBP     Format = "sbp"
	FormatST      Format = "st"
	FormatUnknown Format = "unknown"
)

// Info is the normalized payment information extracted from a payload.
// Fields a format does not carry stay zero; unrecognized keys land in Extra.
type Info struct {
	Format    Format            `json:"format"`
	PayeeName string            `json:"payee_name,omitempty"`
	PayeeID   string            `json:"payee_id,omitempty"`
	Account   string            `json:"account,omitempty"`
	Bank      string            `json:"bank,omitempty"`
	BIC       string            `json:"bic,omitempty"`
	Amount    *float64          `json:"amount,omitempty"`
	Currency  string            `json:"currency,omitempty"`
	Purpose   string            `json:"purpose,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Parse extracts payment information from decoded QR text. A parse failure
// is terminal for this payload only; callers report the QR without payment
// details. Non-UTF-8 input is assumed to be Windows-1251, the encoding
// Russian bank QRs commonly use.
func Parse(text string) (*Info, error) {
	if !utf8.ValidString(text) {
		decoded, err := charmap.Windows1251.NewDecoder().String(text)
		if err == nil {
			text = decoded
		}
	}

	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(text, "https://qr.nspk.ru"), strings.HasPrefix(text, "http://qr.nspk.ru"):
		return parseSBP(text)
	case strings.HasPrefix(lower, "st."):
		return parseST(text)
	case strings.HasPrefix(text, "00") && len(text) > 50:
		return parseEMV(text)
	default:
		return nil, ErrNotPayment
	}
}

func setAmountMinorUnits(info *Info, value string) {
	if minor, err := parseFloat(value); err == nil {
		amount := minor / 100.0
		info.Amount = &amount
	}
}
