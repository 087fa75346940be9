package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCreate is the payload for manually adding a purchase.
// BTCBought is a decimal BTC quantity; it is converted to satoshis at the
// boundary and must be a whole number of satoshis.
type TransactionCreate struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	USDSpent  decimal.Decimal `json:"usd_spent"`
	BTCPrice  decimal.Decimal `json:"btc_price"`
	BTCBought decimal.Decimal `json:"btc_bought"`
}

// TransactionRead is the external representation of a stored purchase.
// BTCBought is the decimal BTC quantity (satoshis / 1e8, exact).
type TransactionRead struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	USDSpent  decimal.Decimal `json:"usd_spent"`
	BTCPrice  decimal.Decimal `json:"btc_price"`
	BTCBought decimal.Decimal `json:"btc_bought"`
}

// TransactionSummary aggregates a user's purchases. All fields are zero
// (never null) when the user has no transactions.
type TransactionSummary struct {
	TotalUSDSpent  decimal.Decimal `json:"total_usd_spent"`
	TotalBTCBought decimal.Decimal `json:"total_btc_bought"`
	AvgBTCPrice    decimal.Decimal `json:"avg_btc_price"`
}

// BitcoinPriceResponse is the payload of the cached spot-price endpoint.
type BitcoinPriceResponse struct {
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Cached    bool            `json:"cached"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ImportRowStatus classifies the outcome of a single CSV row.
type ImportRowStatus string

const (
	RowImported ImportRowStatus = "imported"
	RowUpdated  ImportRowStatus = "updated"
	RowSkipped  ImportRowStatus = "skipped"
)

// ImportRowOutcome records what happened to one CSV row, so callers can audit
// which rows were silently dropped and why.
type ImportRowOutcome struct {
	Line        int              `json:"line"`
	Status      ImportRowStatus  `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	Transaction *TransactionRead `json:"transaction,omitempty"`
}

// ImportResult is the response of a CSV import. Transactions holds the
// created/updated records in row order; Rows holds the per-row audit trail.
type ImportResult struct {
	Transactions []TransactionRead  `json:"transactions"`
	Rows         []ImportRowOutcome `json:"rows"`
	Imported     int                `json:"imported"`
	Updated      int                `json:"updated"`
	Skipped      int                `json:"skipped"`
}
