package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceFormats(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	assert.Regexp(t, regexp.MustCompile(`^BK-20260314-092653-\d{4}$`), GenerateBookingRef(now))
	assert.Regexp(t, regexp.MustCompile(`^TXN[0-9A-F]{12}$`), GenerateTransactionID())
	assert.Regexp(t, regexp.MustCompile(`^WAL[0-9A-F]{12}$`), GenerateWalletTransactionID())
	assert.Regexp(t, regexp.MustCompile(`^RF[0-9A-F]{12}$`), GenerateRefundRef())
	assert.NotEqual(t, GenerateTransactionID(), GenerateTransactionID())
}

func TestMoney(t *testing.T) {
	d, err := ParseMoney("120.455")
	require.NoError(t, err)
	assert.Equal(t, "120.46", d.StringFixed(2))

	d, err = ParseMoney("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseMoney("12,50")
	assert.Error(t, err)

	assert.Equal(t, int64(45050), MinorUnits(decimal.RequireFromString("450.50")))
	assert.Equal(t, int64(999999999999), MinorUnits(MaxAmount))

	assert.True(t, WithinLimit(MaxAmount))
	assert.False(t, WithinLimit(MaxAmount.Add(decimal.RequireFromString("0.01"))))
}

func TestMoneyValidation(t *testing.T) {
	type payload struct {
		Price    string `validate:"required,money"`
		Discount string `validate:"omitempty,money_nonneg"`
	}

	tests := []struct {
		name    string
		in      payload
		invalid []string
	}{
		{"valid", payload{Price: "450.00", Discount: "0"}, nil},
		{"no discount", payload{Price: "1"}, nil},
		{"zero price", payload{Price: "0"}, []string{"Price"}},
		{"three decimals", payload{Price: "10.005"}, []string{"Price"}},
		{"negative discount", payload{Price: "10", Discount: "-1"}, []string{"Discount"}},
		{"not a number", payload{Price: "ten"}, []string{"Price"}},
		{"largest amount", payload{Price: "9999999999.99", Discount: "9999999999.99"}, nil},
		{"price past column limit", payload{Price: "10000000000"}, []string{"Price"}},
		{"exponent notation overflow", payload{Price: "1e20"}, []string{"Price"}},
		{"discount past column limit", payload{Price: "10", Discount: "1e17"}, []string{"Discount"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.in)
			assert.Len(t, errs, len(tt.invalid))
			for _, field := range tt.invalid {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 10, ParseInt("-2", 10))
}
