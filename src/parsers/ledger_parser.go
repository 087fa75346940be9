// backend/src/parsers/ledger_parser.go
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/hodlfolio/backend/src/utils"
)

// Expected header column names of the purchase-ledger CSV.
const (
	colDate      = "Date"
	colUSDSpent  = "USD Spent"
	colBTCPrice  = "BTC Price in USD"
	colBTCBought = "BTC Bought"
)

const dateLayout = "2006-01-02"

// LedgerParser reads the app's purchase-ledger CSV format: one purchase per
// row, columns resolved by header name so column order does not matter.
type LedgerParser struct{}

func NewLedgerParser() *LedgerParser {
	return &LedgerParser{}
}

func (p *LedgerParser) Parse(file io.Reader) ([]RowResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ledger parser: failed to read CSV header: %w", err)
	}

	idx := make(map[string]int)
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colUSDSpent, colBTCPrice, colBTCBought} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("ledger parser: missing required column %q", required)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger parser: failed to read CSV records: %w", err)
	}

	var results []RowResult
	for i, record := range records {
		line := i + 2 // 1-based, after the header row
		purchase, rowErr := parseRow(record, idx)
		results = append(results, RowResult{Line: line, Purchase: purchase, Err: rowErr})
	}
	return results, nil
}

func parseRow(record []string, idx map[string]int) (*ParsedPurchase, error) {
	maxIdx := 0
	for _, i := range idx {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(record) <= maxIdx {
		return nil, fmt.Errorf("expected at least %d fields, got %d", maxIdx+1, len(record))
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(record[idx[colDate]]))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", record[idx[colDate]], err)
	}

	usdSpent, err := decimal.NewFromString(utils.CleanMoneyString(record[idx[colUSDSpent]]))
	if err != nil {
		return nil, fmt.Errorf("invalid USD amount %q: %w", record[idx[colUSDSpent]], err)
	}
	if usdSpent.IsNegative() {
		return nil, fmt.Errorf("negative USD amount %q", record[idx[colUSDSpent]])
	}

	btcPrice, err := decimal.NewFromString(utils.CleanMoneyString(record[idx[colBTCPrice]]))
	if err != nil {
		return nil, fmt.Errorf("invalid BTC price %q: %w", record[idx[colBTCPrice]], err)
	}
	if !btcPrice.IsPositive() {
		return nil, fmt.Errorf("non-positive BTC price %q", record[idx[colBTCPrice]])
	}

	btcBought, err := decimal.NewFromString(utils.CleanMoneyString(record[idx[colBTCBought]]))
	if err != nil {
		return nil, fmt.Errorf("invalid BTC amount %q: %w", record[idx[colBTCBought]], err)
	}
	satoshis, err := utils.ToSatoshis(btcBought)
	if err != nil {
		return nil, err
	}

	return &ParsedPurchase{
		Date:     date,
		USDSpent: usdSpent,
		BTCPrice: btcPrice,
		Satoshis: satoshis,
	}, nil
}
