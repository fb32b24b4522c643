package extraction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar sign", "Lunch at Chipotle $12.50", "12.50"},
		{"dollar sign wins over earlier bare number", "2 burgers for $9.99", "9.99"},
		{"dollar sign wins over later bare number", "$15 for 3 coffees", "15"},
		{"dollars word", "Movie tickets 30 dollars", "30"},
		{"singular dollar", "a soda for 1 dollar", "1"},
		{"dollars word is case insensitive", "Parking 7 DOLLARS", "7"},
		{"usd suffix", "Hotel deposit 120.75 USD", "120.75"},
		{"usd without space", "fee 20usd", "20"},
		{"dollars beats usd", "paid 40 usd then 12 dollars", "12"},
		{"bare number", "groceries 42", "42"},
		{"first bare number", "bus 3 then 4", "3"},
		{"trailing dot", "coffee 5.", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmount(tt.text)
			require.True(t, got.Valid, "expected an amount in %q", tt.text)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Decimal),
				"expected %s, got %s", tt.want, got.Decimal)
		})
	}
}

func TestExtractAmount_Absent(t *testing.T) {
	for _, text := range []string{
		"I went for a walk",
		"",
		"twelve dollars for lunch",
		"$ for nothing",
	} {
		got := ExtractAmount(text)
		assert.False(t, got.Valid, "expected no amount in %q", text)
	}
}

func TestExtractAmount_KeepsPrecision(t *testing.T) {
	got := ExtractAmount("$0.333")
	require.True(t, got.Valid)
	assert.Equal(t, "0.333", got.Decimal.String())
}
