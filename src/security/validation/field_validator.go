// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxCurrencyCodeLength  = 5
	DateLayout             = "2006-01-02"

	// Declared precision of the monetary columns.
	USDDecimalPlaces      = 2
	BTCPriceDecimalPlaces = 8
)

var currencyCodeRegex = regexp.MustCompile(`^[a-zA-Z]{2,5}$`)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateCurrencyCode checks a fiat currency code ("usd", "eur", "brl").
func ValidateCurrencyCode(s string) error {
	if !currencyCodeRegex.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: currency code ('%s') must be 2-5 letters", ErrValidationFailed, s)
	}
	return nil
}

// ValidateDate checks a calendar date in YYYY-MM-DD form.
func ValidateDate(s, fieldName string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid YYYY-MM-DD date", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// --- Monetary Validators ---

// ValidateUSDAmount checks a non-negative USD amount with at most 2 decimal places.
func ValidateUSDAmount(d decimal.Decimal, fieldName string) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	if !d.Round(USDDecimalPlaces).Equal(d) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrValidationFailed, fieldName, USDDecimalPlaces)
	}
	return nil
}

// ValidateBTCPrice checks a strictly positive USD-per-BTC price with at most 8 decimal places.
func ValidateBTCPrice(d decimal.Decimal, fieldName string) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrValidationFailed, fieldName)
	}
	if !d.Round(BTCPriceDecimalPlaces).Equal(d) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrValidationFailed, fieldName, BTCPriceDecimalPlaces)
	}
	return nil
}
