// Package payment classifies decoded QR content and parses the supported
// payment payload formats: EMV QR (TLV), SBP/NSPK links and the Russian
// central bank ST.00012 pipe format.
package payment

import "strings"

// ContentType is the broad category of a decoded QR payload.
type ContentType string

const (
	TypeText    ContentType = "text"
	TypeURL     ContentType = "url"
	TypeVCard   ContentType = "vcard"
	TypeWiFi    ContentType = "wifi"
	TypePayment ContentType = "payment"
	TypeEmail   ContentType = "email"
	TypePhone   ContentType = "phone"
	TypeSMS     ContentType = "sms"
	TypeGeo     ContentType = "geo"
	TypeUnknown ContentType = "unknown"
)

// Classify determines the content type from the payload text alone. It is a
// pure function; classifying the same text always yields the same type.
func Classify(text string) ContentType {
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if strings.Contains(lower, "qr.nspk.ru") || strings.Contains(lower, "pay") {
			return TypePayment
		}
		return TypeURL
	case strings.HasPrefix(lower, "begin:vcard"):
		return TypeVCard
	case strings.HasPrefix(lower, "wifi:"):
		return TypeWiFi
	case strings.HasPrefix(lower, "mailto:"):
		return TypeEmail
	case strings.HasPrefix(lower, "tel:"):
		return TypePhone
	case strings.HasPrefix(lower, "smsto:"), strings.HasPrefix(lower, "sms:"):
		return TypeSMS
	case strings.HasPrefix(lower, "geo:"):
		return TypeGeo
	case strings.HasPrefix(text, "00") && len(text) > 50:
		// EMV payloads open with the "00" payload format indicator.
		return TypePayment
	case strings.HasPrefix(lower, "st."):
		return TypePayment
	default:
		return TypeText
	}
}

// paymentKeywords raise the relevance of texts that mention payments in
// English or Russian.
var paymentKeywords = []string{"pay", "payment", "оплат", "платёж", "платеж", "перевод"}

// RelevanceScore rates how likely a payload is the payment a user scanned
// for, from 0 (unrelated) to 1 (an SBP link). The scanner uses it to pick
// the best payment among several decoded codes.
func RelevanceScore(text string) float32 {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "qr.nspk.ru") {
		return 1.0
	}
	if strings.HasPrefix(text, "00") && len(text) > 50 {
		return 0.95
	}
	if strings.HasPrefix(lower, "st.") {
		return 0.9
	}
	for _, kw := range paymentKeywords {
		if strings.Contains(lower, kw) {
			return 0.6
		}
	}
	if strings.Contains(lower, "bank") || strings.Contains(lower, "банк") {
		return 0.4
	}
	return 0.0
}
