package services

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/hodlfolio/backend/src/database"
	"github.com/username/hodlfolio/backend/src/logger"
	"github.com/username/hodlfolio/backend/src/models"
)

const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    auth_provider TEXT DEFAULT 'local',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    date TEXT NOT NULL,
    usd_spent TEXT NOT NULL,
    btc_price TEXT NOT NULL,
    btc_bought INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
    UNIQUE (user_id, date)
);
`

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(on)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	database.DB = db
	t.Cleanup(func() {
		db.Close()
		database.DB = nil
	})
}

func insertTestUser(t *testing.T, username string) int64 {
	t.Helper()
	res, err := database.DB.Exec(
		`INSERT INTO users (username, email, password, created_at, updated_at) VALUES (?, ?, 'x', ?, ?)`,
		username, username+"@example.com", time.Now(), time.Now())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func newTestLedgerService() LedgerService {
	return NewLedgerService(cache.New(DefaultCacheExpiration, CacheCleanupInterval))
}

func mustDec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestCreateListDeleteTransaction(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	created, err := svc.CreateTransaction(userID, models.TransactionCreate{
		Date:      "2023-01-01",
		USDSpent:  mustDec("100.00"),
		BTCPrice:  mustDec("20000.00"),
		BTCBought: mustDec("0.005"),
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.BTCBought.Equal(mustDec("0.005")))

	list, err := svc.ListTransactions(userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	removed, err := svc.DeleteTransaction(userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)
	assert.True(t, removed.USDSpent.Equal(mustDec("100.00")))

	list, err = svc.ListTransactions(userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTransactionValidation(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	_, err := svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("-1"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005"),
	})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("100"), BTCPrice: mustDec("0"), BTCBought: mustDec("0.005"),
	})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	// Not a whole number of satoshis.
	_, err = svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("100"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.000000015"),
	})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "not-a-date", USDSpent: mustDec("100"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005"),
	})
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestCreateTransactionDuplicateDate(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	payload := models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("100"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005"),
	}
	_, err := svc.CreateTransaction(userID, payload)
	require.NoError(t, err)

	_, err = svc.CreateTransaction(userID, payload)
	assert.True(t, errors.Is(err, ErrDuplicateDate))
}

func TestDeleteTransactionOwnershipIsolation(t *testing.T) {
	setupTestDB(t)
	alice := insertTestUser(t, "alice")
	bob := insertTestUser(t, "bob")
	svc := newTestLedgerService()

	created, err := svc.CreateTransaction(alice, models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("100"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005"),
	})
	require.NoError(t, err)

	// Bob cannot delete Alice's transaction, and nonexistent ids fail the same way.
	_, err = svc.DeleteTransaction(bob, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.DeleteTransaction(alice, 99999)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := svc.ListTransactions(alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetSummaryZeroTransactions(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	summary, err := svc.GetSummary(userID)
	require.NoError(t, err)
	assert.True(t, summary.TotalUSDSpent.IsZero())
	assert.True(t, summary.TotalBTCBought.IsZero())
	assert.True(t, summary.AvgBTCPrice.IsZero())
}

func TestGetSummaryAggregates(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	rows := []models.TransactionCreate{
		{Date: "2023-01-01", USDSpent: mustDec("100.10"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005")},
		{Date: "2023-01-02", USDSpent: mustDec("200.20"), BTCPrice: mustDec("30000"), BTCBought: mustDec("0.01")},
	}
	for _, row := range rows {
		_, err := svc.CreateTransaction(userID, row)
		require.NoError(t, err)
	}

	summary, err := svc.GetSummary(userID)
	require.NoError(t, err)
	assert.True(t, summary.TotalUSDSpent.Equal(mustDec("300.30")), "got %s", summary.TotalUSDSpent)
	assert.True(t, summary.TotalBTCBought.Equal(mustDec("0.015")), "got %s", summary.TotalBTCBought)
	assert.True(t, summary.AvgBTCPrice.Equal(mustDec("25000")), "got %s", summary.AvgBTCPrice)
}

func TestGetSummaryCacheInvalidation(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	_, err := svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "2023-01-01", USDSpent: mustDec("100"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.005"),
	})
	require.NoError(t, err)

	first, err := svc.GetSummary(userID)
	require.NoError(t, err)
	assert.True(t, first.TotalUSDSpent.Equal(mustDec("100")))

	// A second create must not serve the stale cached summary.
	_, err = svc.CreateTransaction(userID, models.TransactionCreate{
		Date: "2023-01-02", USDSpent: mustDec("50"), BTCPrice: mustDec("20000"), BTCBought: mustDec("0.0025"),
	})
	require.NoError(t, err)

	second, err := svc.GetSummary(userID)
	require.NoError(t, err)
	assert.True(t, second.TotalUSDSpent.Equal(mustDec("150")))
}

func TestImportCSVSkipsMalformedRows(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	csvBody := strings.Join([]string{
		"Date,USD Spent,BTC Price in USD,BTC Bought",
		"2023-01-01,$100.00,$20000.00,0.005₿",
		"garbage,row,here,nope",
	}, "\n")

	result, err := svc.ImportCSV(strings.NewReader(csvBody), userID, "")
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "2023-01-01", result.Transactions[0].Date)
	assert.True(t, result.Transactions[0].BTCBought.Equal(mustDec("0.005")))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, models.RowImported, result.Rows[0].Status)
	assert.Equal(t, models.RowSkipped, result.Rows[1].Status)
	assert.NotEmpty(t, result.Rows[1].Reason)
}

func TestImportCSVUpsertsByDate(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	first := "Date,USD Spent,BTC Price in USD,BTC Bought\n2023-01-01,100.00,20000.00,0.005\n"
	_, err := svc.ImportCSV(strings.NewReader(first), userID, "")
	require.NoError(t, err)

	second := "Date,USD Spent,BTC Price in USD,BTC Bought\n2023-01-01,150.00,21000.00,0.007\n"
	result, err := svc.ImportCSV(strings.NewReader(second), userID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Imported)

	list, err := svc.ListTransactions(userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].USDSpent.Equal(mustDec("150.00")))
	assert.True(t, list[0].BTCPrice.Equal(mustDec("21000.00")))
	assert.True(t, list[0].BTCBought.Equal(mustDec("0.007")))
}

func TestImportCSVAllRowsMalformed(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	csvBody := "Date,USD Spent,BTC Price in USD,BTC Bought\nbad,bad,bad,bad\n"
	result, err := svc.ImportCSV(strings.NewReader(csvBody), userID, "")
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportCSVBadHeader(t *testing.T) {
	setupTestDB(t)
	userID := insertTestUser(t, "alice")
	svc := newTestLedgerService()

	_, err := svc.ImportCSV(strings.NewReader("Date,USD Spent\n"), userID, "")
	assert.True(t, errors.Is(err, ErrParsingFailed))
}
