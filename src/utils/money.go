// backend/src/utils/money.go
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SatoshisPerBTC is the number of satoshis in one whole bitcoin.
const SatoshisPerBTC = 100_000_000

// ErrInvalidAmount signals a malformed or out-of-range monetary value.
var ErrInvalidAmount = fmt.Errorf("invalid monetary amount")

// ToSatoshis converts a decimal BTC quantity to an integer satoshi count.
// Amounts that are negative or not representable as whole satoshis are
// rejected rather than rounded, so no precision is lost silently.
func ToSatoshis(btc decimal.Decimal) (int64, error) {
	if btc.IsNegative() {
		return 0, fmt.Errorf("%w: negative BTC amount %s", ErrInvalidAmount, btc.String())
	}
	shifted := btc.Shift(8)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s BTC is not a whole number of satoshis", ErrInvalidAmount, btc.String())
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s BTC overflows the satoshi range", ErrInvalidAmount, btc.String())
	}
	return shifted.IntPart(), nil
}

// ToDecimalBTC converts a satoshi count to its decimal BTC representation.
// The conversion is a power-of-ten shift and therefore exact.
func ToDecimalBTC(satoshis int64) decimal.Decimal {
	return decimal.New(satoshis, -8)
}

// NormalizeCurrency lowercases and trims a fiat currency code ("USD " -> "usd").
func NormalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

// CleanMoneyString strips the currency symbols and thousands separators found
// in exported CSV files ("$1,234.56", "₿0.005") so the remainder parses as a
// plain decimal.
func CleanMoneyString(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	for _, sym := range []string{"$", "₿", ","} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	return strings.TrimSpace(cleaned)
}
