package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single Bitcoin purchase owned by a user.
// BTCBought is stored in satoshis; the external decimal-BTC representation is
// produced at the service boundary.
type Transaction struct {
	ID        int64
	UserID    int64
	Date      string // YYYY-MM-DD
	USDSpent  decimal.Decimal
	BTCPrice  decimal.Decimal
	BTCBought int64 // satoshis
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Querier is satisfied by both *sql.DB and *sql.Tx, so the same accessors can
// run inside the import transaction.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const transactionColumns = `id, user_id, date, usd_spent, btc_price, btc_bought, created_at, updated_at`

func scanTransaction(row *sql.Row) (*Transaction, error) {
	var tx Transaction
	var usdSpent, btcPrice string
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Date, &usdSpent, &btcPrice, &tx.BTCBought, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tx.USDSpent, err = decimal.NewFromString(usdSpent); err != nil {
		return nil, err
	}
	if tx.BTCPrice, err = decimal.NewFromString(btcPrice); err != nil {
		return nil, err
	}
	return &tx, nil
}

// InsertTransaction persists a new purchase and fills in its assigned ID.
func InsertTransaction(q Querier, tx *Transaction) error {
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	res, err := q.Exec(`
	INSERT INTO transactions (user_id, date, usd_spent, btc_price, btc_bought, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Date, tx.USDSpent.String(), tx.BTCPrice.String(), tx.BTCBought, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

// ListTransactionsByUser returns all purchases owned by userID in insertion order.
func ListTransactionsByUser(q Querier, userID int64) ([]Transaction, error) {
	rows, err := q.Query(`
	SELECT `+transactionColumns+`
	FROM transactions
	WHERE user_id = ?
	ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var usdSpent, btcPrice string
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Date, &usdSpent, &btcPrice, &tx.BTCBought, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, err
		}
		if tx.USDSpent, err = decimal.NewFromString(usdSpent); err != nil {
			return nil, err
		}
		if tx.BTCPrice, err = decimal.NewFromString(btcPrice); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetTransactionByUserAndDate looks up the purchase for an (owner, date) pair.
// Returns sql.ErrNoRows when no such purchase exists.
func GetTransactionByUserAndDate(q Querier, userID int64, date string) (*Transaction, error) {
	row := q.QueryRow(`
	SELECT `+transactionColumns+`
	FROM transactions
	WHERE user_id = ? AND date = ?`, userID, date)
	return scanTransaction(row)
}

// UpdateTransactionAmounts overwrites the three monetary fields of an existing
// purchase in place (CSV re-import upsert path).
func UpdateTransactionAmounts(q Querier, tx *Transaction) error {
	tx.UpdatedAt = time.Now()
	_, err := q.Exec(`
	UPDATE transactions
	SET usd_spent = ?, btc_price = ?, btc_bought = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`,
		tx.USDSpent.String(), tx.BTCPrice.String(), tx.BTCBought, tx.UpdatedAt, tx.ID, tx.UserID)
	return err
}

// DeleteTransactionByID removes the purchase and returns the removed row.
// Returns sql.ErrNoRows when the id does not exist for this owner, including
// when it belongs to a different owner.
func DeleteTransactionByID(q Querier, userID, id int64) (*Transaction, error) {
	tx, err := scanTransaction(q.QueryRow(`
	SELECT `+transactionColumns+`
	FROM transactions
	WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, err
	}
	if _, err := q.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return nil, err
	}
	return tx, nil
}
