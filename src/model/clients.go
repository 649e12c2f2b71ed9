package model

import (
	"database/sql"

	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

const clientColumns = `id, name, commission_rate, tax_rate, management_fee_rate, is_pea, bill_surperformance, strategy_id, version`

func scanClient(row interface{ Scan(...interface{}) error }) (models.Client, error) {
	var c models.Client
	var strategyID sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &c.CommissionRate, &c.TaxRate, &c.ManagementFeeRate,
		&c.IsPEA, &c.BillSurperformance, &strategyID, &c.Version)
	if err != nil {
		return models.Client{}, err
	}
	if strategyID.Valid {
		c.StrategyID = &strategyID.Int64
	}
	return c, nil
}

// CreateClient inserts a new client and returns its id.
func CreateClient(db DBTX, c models.Client) (int64, error) {
	res, err := db.Exec(`INSERT INTO clients (name, commission_rate, tax_rate, management_fee_rate, is_pea, bill_surperformance, strategy_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.CommissionRate, c.TaxRate, c.ManagementFeeRate, c.IsPEA, c.BillSurperformance, c.StrategyID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetClientByID retrieves a single client. Returns sql.ErrNoRows when absent.
func GetClientByID(db DBTX, id int64) (models.Client, error) {
	row := db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return scanClient(row)
}

// ListClients returns all clients ordered by name.
func ListClients(db DBTX) ([]models.Client, error) {
	rows, err := db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient updates a client's name, rates and flags in place.
func UpdateClient(db DBTX, c models.Client) error {
	_, err := db.Exec(`UPDATE clients SET name = ?, commission_rate = ?, tax_rate = ?, management_fee_rate = ?, is_pea = ?, bill_surperformance = ? WHERE id = ?`,
		c.Name, c.CommissionRate, c.TaxRate, c.ManagementFeeRate, c.IsPEA, c.BillSurperformance, c.ID)
	return err
}

// AssignStrategy points a client at a strategy, or clears it when nil.
func AssignStrategy(db DBTX, clientID int64, strategyID *int64) error {
	_, err := db.Exec(`UPDATE clients SET strategy_id = ? WHERE id = ?`, strategyID, clientID)
	return err
}

// DeleteClient removes a client; positions, transactions and periods cascade.
func DeleteClient(db DBTX, id int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BumpClientVersion performs the optimistic-concurrency compare-and-swap for a
// ledger mutation. It returns false when the expected version no longer
// matches, meaning a concurrent mutation committed first.
func BumpClientVersion(db DBTX, clientID, expectedVersion int64) (bool, error) {
	res, err := db.Exec(`UPDATE clients SET version = version + 1 WHERE id = ? AND version = ?`,
		clientID, expectedVersion)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
