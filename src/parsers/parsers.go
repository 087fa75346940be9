// backend/src/parsers/parsers.go
package parsers

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ParsedPurchase is one successfully parsed CSV row, with the BTC quantity
// already converted to satoshis.
type ParsedPurchase struct {
	Date     time.Time
	USDSpent decimal.Decimal
	BTCPrice decimal.Decimal
	Satoshis int64
}

// RowResult pairs a CSV line number with either the parsed purchase or the
// reason the row could not be parsed. One entry per data row, in file order.
type RowResult struct {
	Line     int
	Purchase *ParsedPurchase
	Err      error
}

// Parser converts an uploaded ledger file into per-row results. Malformed
// rows are reported, never fatal; only an unusable file (bad header) is an
// error.
type Parser interface {
	Parse(file io.Reader) ([]RowResult, error)
}

// GetParser returns the parser for an upload source. An empty source selects
// the default purchase-ledger CSV format.
func GetParser(source string) (Parser, error) {
	switch source {
	case "", "generic":
		return NewLedgerParser(), nil
	default:
		return nil, fmt.Errorf("unknown upload source %q", source)
	}
}
