package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EMV parsing errors. An invalid checksum is a hard failure: the payload is
// reported as damaged rather than parsed partially.
var (
	ErrInvalidCRC      = errors.New("payment: EMV CRC mismatch")
	ErrMissingChecksum = errors.New("payment: EMV checksum (tag 63) missing")
	ErrMalformedData   = errors.New("payment: malformed EMV TLV data")
)

// parseEMV parses an EMV QR payload: a flat sequence of TT LL VVVV records
// terminated by the CRC record 6304xxxx. The checksum is validated before
// any field is extracted.
func parseEMV(raw string) (*Info, error) {
	if err := validateCRC(raw); err != nil {
		return nil, err
	}

	info := &Info{Format: FormatEMV, Extra: map[string]string{}}

	pos := 0
	for pos+4 <= len(raw) {
		tag := raw[pos : pos+2]
		length, err := strconv.Atoi(raw[pos+2 : pos+4])
		if err != nil || length < 0 {
			return nil, ErrMalformedData
		}
		pos += 4
		if pos+length > len(raw) {
			return nil, ErrMalformedData
		}
		value := raw[pos : pos+length]
		pos += length

		switch tag {
		case "00", "01", "63":
			// Format indicator, initiation method and checksum carry no
			// payee information.
		case "52":
			info.Extra["mcc"] = value
		case "53":
			info.Currency = currencyFromNumeric(value)
		case "54":
			// Amount is already in major units, verbatim decimal.
			if amount, err := parseFloat(value); err == nil {
				info.Amount = &amount
			}
		case "58":
			info.Extra["country"] = value
		case "59":
			info.PayeeName = value
		case "60":
			info.Extra["city"] = value
		case "62":
			info.Extra["additional"] = value
		default:
			if n, err := strconv.Atoi(tag); err == nil && n >= 26 && n <= 51 && info.Account == "" {
				info.Account = value
			}
		}
	}

	if len(info.Extra) == 0 {
		info.Extra = nil
	}
	return info, nil
}

// validateCRC checks that the payload ends with the checksum record 6304
// followed by four hex digits matching CRC-16/CCITT-FALSE of everything
// before them.
func validateCRC(raw string) error {
	if len(raw) < 8 {
		return ErrMalformedData
	}
	if raw[len(raw)-8:len(raw)-4] != "6304" {
		return ErrMissingChecksum
	}

	// The comparison is by hex value: a case flip in the checksum digits is
	// not corruption, any other change is.
	provided := strings.ToUpper(raw[len(raw)-4:])
	computed := fmt.Sprintf("%04X", crc16CCITTFalse([]byte(raw[:len(raw)-4])))
	if provided != computed {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidCRC, computed, provided)
	}
	return nil
}

// crc16CCITTFalse computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF)
// using the nibble-reduction form.
func crc16CCITTFalse(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		x := (crc>>8 ^ uint16(b)) & 0xFF
		x ^= x >> 4
		crc = crc<<8 ^ x<<12 ^ x<<5 ^ x
	}
	return crc
}

// ChecksumSuffix renders the CRC record for a payload body ending in "6304".
// Exposed for constructing valid test payloads and documented fixtures.
func ChecksumSuffix(body string) string {
	return fmt.Sprintf("%04X", crc16CCITTFalse([]byte(body)))
}

// currencyFromNumeric maps common ISO 4217 numeric codes to their alpha
// form, passing unknown codes through unchanged.
func currencyFromNumeric(code string) string {
	switch code {
	case "643":
		return "RUB"
	case "840":
		return "USD"
	case "978":
		return "EUR"
	case "156":
		return "CNY"
	case "392":
		return "JPY"
	case "826":
		return "GBP"
	default:
		return code
	}
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
