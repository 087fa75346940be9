package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestToSatoshis(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"0.00000001", 1},
		{"0.005", 500000},
		{"1", 100000000},
		{"21000000", 2100000000000000},
		{"1.23456789", 123456789},
	}
	for _, tt := range tests {
		got, err := ToSatoshis(dec(tt.in))
		require.NoError(t, err, "input %s", tt.in)
		assert.Equal(t, tt.want, got, "input %s", tt.in)
	}
}

func TestToSatoshisRejectsInvalid(t *testing.T) {
	for _, in := range []string{"-0.005", "-1", "0.000000015", "0.123456789"} {
		_, err := ToSatoshis(dec(in))
		require.Error(t, err, "input %s", in)
		assert.True(t, errors.Is(err, ErrInvalidAmount), "input %s", in)
	}
}

func TestSatoshiRoundTrip(t *testing.T) {
	for _, s := range []int64{0, 1, 99, 500000, 100000000, 2100000000000000} {
		got, err := ToSatoshis(ToDecimalBTC(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestToDecimalBTC(t *testing.T) {
	assert.True(t, ToDecimalBTC(500000).Equal(dec("0.005")))
	assert.True(t, ToDecimalBTC(0).Equal(decimal.Zero))
	assert.True(t, ToDecimalBTC(123456789).Equal(dec("1.23456789")))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "usd", NormalizeCurrency(" USD "))
	assert.Equal(t, "eur", NormalizeCurrency("eur"))
}

func TestCleanMoneyString(t *testing.T) {
	assert.Equal(t, "1234.56", CleanMoneyString("$1,234.56"))
	assert.Equal(t, "0.005", CleanMoneyString("0.005₿"))
	assert.Equal(t, "20000.00", CleanMoneyString("\"$20,000.00\""))
	assert.Equal(t, "42", CleanMoneyString(" 42 "))
}
