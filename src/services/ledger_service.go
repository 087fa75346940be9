// backend/src/services/ledger_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/hodlfolio/backend/src/database"
	"github.com/username/hodlfolio/backend/src/logger"
	"github.com/username/hodlfolio/backend/src/model"
	"github.com/username/hodlfolio/backend/src/models"
	"github.com/username/hodlfolio/backend/src/parsers"
	"github.com/username/hodlfolio/backend/src/security/validation"
	"github.com/username/hodlfolio/backend/src/utils"
)

const (
	ckTxSummary            = "agg_tx_summary_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ledgerServiceImpl struct {
	reportCache *cache.Cache
}

func NewLedgerService(reportCache *cache.Cache) LedgerService {
	return &ledgerServiceImpl{reportCache: reportCache}
}

// toRead converts a stored transaction to its external representation,
// exposing the satoshi count as a decimal BTC quantity.
func toRead(tx *model.Transaction) models.TransactionRead {
	return models.TransactionRead{
		ID:        tx.ID,
		Date:      tx.Date,
		USDSpent:  tx.USDSpent,
		BTCPrice:  tx.BTCPrice,
		BTCBought: utils.ToDecimalBTC(tx.BTCBought),
	}
}

func (s *ledgerServiceImpl) ListTransactions(userID int64) ([]models.TransactionRead, error) {
	txs, err := model.ListTransactionsByUser(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %d: %w", userID, err)
	}
	reads := make([]models.TransactionRead, 0, len(txs))
	for i := range txs {
		reads = append(reads, toRead(&txs[i]))
	}
	return reads, nil
}

func (s *ledgerServiceImpl) CreateTransaction(userID int64, payload models.TransactionCreate) (*models.TransactionRead, error) {
	date, err := validation.ValidateDate(payload.Date, "date")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := validation.ValidateUSDAmount(payload.USDSpent, "usd_spent"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := validation.ValidateBTCPrice(payload.BTCPrice, "btc_price"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	satoshis, err := utils.ToSatoshis(payload.BTCBought)
	if err != nil {
		return nil, err
	}

	dateStr := date.Format(validation.DateLayout)
	if _, err := model.GetTransactionByUserAndDate(database.DB, userID, dateStr); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, dateStr)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking existing transaction: %w", err)
	}

	tx := &model.Transaction{
		UserID:    userID,
		Date:      dateStr,
		USDSpent:  payload.USDSpent,
		BTCPrice:  payload.BTCPrice,
		BTCBought: satoshis,
	}
	if err := model.InsertTransaction(database.DB, tx); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("Transaction created", "userID", userID, "transactionID", tx.ID, "date", tx.Date)
	read := toRead(tx)
	return &read, nil
}

func (s *ledgerServiceImpl) DeleteTransaction(userID, transactionID int64) (*models.TransactionRead, error) {
	tx, err := model.DeleteTransactionByID(database.DB, userID, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("deleting transaction %d: %w", transactionID, err)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("Transaction deleted", "userID", userID, "transactionID", transactionID)
	read := toRead(tx)
	return &read, nil
}

// GetSummary aggregates with decimal arithmetic rather than SQL SUM/AVG so
// the USD totals stay exact. A user with zero transactions gets explicit
// zeros, never nulls.
func (s *ledgerServiceImpl) GetSummary(userID int64) (*models.TransactionSummary, error) {
	cacheKey := fmt.Sprintf(ckTxSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.TransactionSummary), nil
	}

	txs, err := model.ListTransactionsByUser(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("summarizing transactions for user %d: %w", userID, err)
	}

	summary := &models.TransactionSummary{
		TotalUSDSpent:  decimal.Zero,
		TotalBTCBought: decimal.Zero,
		AvgBTCPrice:    decimal.Zero,
	}
	if len(txs) > 0 {
		var totalSatoshis int64
		priceSum := decimal.Zero
		for i := range txs {
			summary.TotalUSDSpent = summary.TotalUSDSpent.Add(txs[i].USDSpent)
			totalSatoshis += txs[i].BTCBought
			priceSum = priceSum.Add(txs[i].BTCPrice)
		}
		summary.TotalBTCBought = utils.ToDecimalBTC(totalSatoshis)
		summary.AvgBTCPrice = priceSum.Div(decimal.NewFromInt(int64(len(txs))))
	}

	s.reportCache.Set(cacheKey, summary, DefaultCacheExpiration)
	return summary, nil
}

func (s *ledgerServiceImpl) ImportCSV(file io.Reader, userID int64, source string) (*models.ImportResult, error) {
	startTime := time.Now()
	logger.L.Info("ImportCSV START", "userID", userID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rowResults, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	result := &models.ImportResult{
		Transactions: []models.TransactionRead{},
		Rows:         []models.ImportRowOutcome{},
	}

	for _, row := range rowResults {
		if row.Err != nil {
			// Deliberate skip-and-continue policy; the outcome records why.
			result.Rows = append(result.Rows, models.ImportRowOutcome{
				Line:   row.Line,
				Status: models.RowSkipped,
				Reason: row.Err.Error(),
			})
			result.Skipped++
			continue
		}

		dateStr := row.Purchase.Date.Format(validation.DateLayout)
		existing, err := model.GetTransactionByUserAndDate(dbTx, userID, dateStr)
		switch {
		case err == nil:
			// Upsert: overwrite the three monetary fields in place.
			existing.USDSpent = row.Purchase.USDSpent
			existing.BTCPrice = row.Purchase.BTCPrice
			existing.BTCBought = row.Purchase.Satoshis
			if err := model.UpdateTransactionAmounts(dbTx, existing); err != nil {
				return nil, fmt.Errorf("updating transaction for %s: %w", dateStr, err)
			}
			read := toRead(existing)
			result.Transactions = append(result.Transactions, read)
			result.Rows = append(result.Rows, models.ImportRowOutcome{
				Line: row.Line, Status: models.RowUpdated, Transaction: &read,
			})
			result.Updated++

		case errors.Is(err, sql.ErrNoRows):
			tx := &model.Transaction{
				UserID:    userID,
				Date:      dateStr,
				USDSpent:  row.Purchase.USDSpent,
				BTCPrice:  row.Purchase.BTCPrice,
				BTCBought: row.Purchase.Satoshis,
			}
			if err := model.InsertTransaction(dbTx, tx); err != nil {
				return nil, fmt.Errorf("inserting transaction for %s: %w", dateStr, err)
			}
			read := toRead(tx)
			result.Transactions = append(result.Transactions, read)
			result.Rows = append(result.Rows, models.ImportRowOutcome{
				Line: row.Line, Status: models.RowImported, Transaction: &read,
			})
			result.Imported++

		default:
			return nil, fmt.Errorf("looking up transaction for %s: %w", dateStr, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("ImportCSV END", "userID", userID,
		"imported", result.Imported, "updated", result.Updated, "skipped", result.Skipped,
		"durationMs", time.Since(startTime).Milliseconds())
	return result, nil
}

// SummaryCacheKey names the cached summary entry for a user.
func SummaryCacheKey(userID int64) string {
	return fmt.Sprintf(ckTxSummary, userID)
}

func (s *ledgerServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(SummaryCacheKey(userID))
}
