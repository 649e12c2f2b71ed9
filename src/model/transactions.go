package model

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

const transactionColumns = `id, client_id, instrument, side, price, quantity, gross_amount, fees, tax, net_amount, executed_at, snapshot_before, is_deleted, deleted_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (models.Transaction, error) {
	var t models.Transaction
	var snapshotJSON string
	var deletedAt sql.NullTime
	err := row.Scan(&t.ID, &t.ClientID, &t.Instrument, &t.Side, &t.Price, &t.Quantity,
		&t.GrossAmount, &t.Fees, &t.Tax, &t.NetAmount, &t.ExecutedAt, &snapshotJSON, &t.IsDeleted, &deletedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Time
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &t.SnapshotBefore); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// InsertTransaction persists a committed trade with its before-state snapshot.
func InsertTransaction(db DBTX, t models.Transaction) (int64, error) {
	snapshotJSON, err := json.Marshal(t.SnapshotBefore)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`INSERT INTO transactions (client_id, instrument, side, price, quantity, gross_amount, fees, tax, net_amount, executed_at, snapshot_before, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		t.ClientID, t.Instrument, t.Side, t.Price, t.Quantity, t.GrossAmount, t.Fees, t.Tax, t.NetAmount, t.ExecutedAt, string(snapshotJSON))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTransactionByID retrieves one transaction, deleted or not.
func GetTransactionByID(db DBTX, id int64) (models.Transaction, error) {
	row := db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListTransactionsForClient returns a client's transactions, newest first.
// Deleted transactions are included only when includeDeleted is set.
func ListTransactionsForClient(db DBTX, clientID int64, includeDeleted bool) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE client_id = ?`
	if !includeDeleted {
		query += ` AND is_deleted = 0`
	}
	query += ` ORDER BY executed_at DESC, id DESC`
	rows, err := db.Query(query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// MarkTransactionDeleted sets the soft-delete flag and timestamp.
func MarkTransactionDeleted(db DBTX, id int64, deletedAt time.Time) error {
	_, err := db.Exec(`UPDATE transactions SET is_deleted = 1, deleted_at = ? WHERE id = ?`, deletedAt, id)
	return err
}

// CountLaterLiveTransactions counts live transactions of the same client
// committed after the given one. The snapshot rollback is only sound when
// this is zero.
func CountLaterLiveTransactions(db DBTX, clientID, transactionID int64) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE client_id = ? AND id > ? AND is_deleted = 0`,
		clientID, transactionID).Scan(&n)
	return n, err
}

// SumBuyCosts sums gross amount plus fees over all live BUY transactions of a
// client. Used as an external cost-basis figure independent of live VWAP.
func SumBuyCosts(db DBTX, clientID int64) (float64, error) {
	var total float64
	err := db.QueryRow(`SELECT COALESCE(SUM(gross_amount + fees), 0) FROM transactions WHERE client_id = ? AND side = 'BUY' AND is_deleted = 0`,
		clientID).Scan(&total)
	return total, err
}
