// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/hodlfolio/backend/src/models"
	"github.com/username/hodlfolio/backend/src/utils"
)

// Define common service errors
var (
	// ErrInvalidAmount aliases the conversion-layer sentinel so callers can
	// check a single error across layers.
	ErrInvalidAmount = utils.ErrInvalidAmount
	ErrNotFound      = errors.New("transaction not found")
	ErrDuplicateDate = errors.New("a transaction for this date already exists")
	ErrPriceProvider = errors.New("price provider request failed")
	ErrParsingFailed = errors.New("csv parsing failed")
)

// LedgerService is the core transaction store access: owner-scoped CRUD,
// aggregate summary, and CSV import reconciliation.
type LedgerService interface {
	ListTransactions(userID int64) ([]models.TransactionRead, error)
	CreateTransaction(userID int64, payload models.TransactionCreate) (*models.TransactionRead, error)
	DeleteTransaction(userID, transactionID int64) (*models.TransactionRead, error)
	GetSummary(userID int64) (*models.TransactionSummary, error)
	ImportCSV(file io.Reader, userID int64, source string) (*models.ImportResult, error)
	InvalidateUserCache(userID int64)
}

// PriceService fetches the current Bitcoin spot price, serving from a
// short-lived per-currency cache when fresh.
type PriceService interface {
	GetBitcoinPrice(ctx context.Context, currency string) (*models.BitcoinPriceResponse, error)
}
