package payment

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ContentType
	}{
		{"plain url", "https://example.com", TypeURL},
		{"nspk link", "https://qr.nspk.ru/123", TypePayment},
		{"pay url", "https://pay.example.com/invoice", TypePayment},
		{"vcard", "BEGIN:VCARD\nVERSION:3.0", TypeVCard},
		{"wifi", "WIFI:T:WPA;S:MyNetwork;P:pass;;", TypeWiFi},
		{"email", "mailto:user@example.com", TypeEmail},
		{"phone", "tel:+79001234567", TypePhone},
		{"sms", "SMSTO:+79001234567:hi", TypeSMS},
		{"geo", "geo:55.75,37.61", TypeGeo},
		{"st format", "ST.00012|Name=Acme", TypePayment},
		{"emv", "000201" + strings.Repeat("0", 50), TypePayment},
		{"short 00 prefix", "0042", TypeText},
		{"plain text", "Hello World", TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("classification is stable across calls", prop.ForAll(
		func(text string) bool {
			return Classify(text) == Classify(text)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestRelevanceScore(t *testing.T) {
	assert.InDelta(t, 1.0, RelevanceScore("https://qr.nspk.ru/test"), 1e-6)
	assert.InDelta(t, 0.95, RelevanceScore("000201"+strings.Repeat("0", 50)), 1e-6)
	assert.InDelta(t, 0.9, RelevanceScore("ST.00012|Name=X"), 1e-6)
	assert.InDelta(t, 0.6, RelevanceScore("Оплата заказа"), 1e-6)
	assert.InDelta(t, 0.4, RelevanceScore("https://bank.example.com"), 1e-6)
	assert.InDelta(t, 0.0, RelevanceScore("Hello World"), 1e-6)
}

func TestRelevanceScoreOrdering(t *testing.T) {
	// The score must rank an SBP link above every other category.
	scores := []float32{
		RelevanceScore("Hello"),
		RelevanceScore("bank transfer details"),
		RelevanceScore("payment pending"),
		RelevanceScore("ST.00012|Sum=1"),
		RelevanceScore("https://qr.nspk.ru/x"),
	}
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i], scores[i-1])
	}
}
