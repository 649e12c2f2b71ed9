package model

import (
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// ListPositionsForClient returns all of a client's positions ordered by
// instrument name.
func ListPositionsForClient(db DBTX, clientID int64) ([]models.Position, error) {
	rows, err := db.Query(`SELECT id, client_id, instrument, quantity, vwap FROM positions WHERE client_id = ? ORDER BY instrument ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Instrument, &p.Quantity, &p.VWAP); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// GetPosition retrieves one (client, instrument) position.
// Returns sql.ErrNoRows when the client holds none of the instrument.
func GetPosition(db DBTX, clientID int64, instrument string) (models.Position, error) {
	var p models.Position
	err := db.QueryRow(`SELECT id, client_id, instrument, quantity, vwap FROM positions WHERE client_id = ? AND instrument = ?`,
		clientID, instrument).Scan(&p.ID, &p.ClientID, &p.Instrument, &p.Quantity, &p.VWAP)
	return p, err
}

// UpsertPosition inserts or updates the (client, instrument) position.
func UpsertPosition(db DBTX, clientID int64, instrument string, quantity, vwap float64) error {
	_, err := db.Exec(`INSERT INTO positions (client_id, instrument, quantity, vwap)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(client_id, instrument) DO UPDATE SET quantity = excluded.quantity, vwap = excluded.vwap`,
		clientID, instrument, quantity, vwap)
	return err
}

// DeletePosition removes a (client, instrument) position.
func DeletePosition(db DBTX, clientID int64, instrument string) error {
	_, err := db.Exec(`DELETE FROM positions WHERE client_id = ? AND instrument = ?`, clientID, instrument)
	return err
}

// ReplacePositions replaces all of a client's positions with the given
// snapshot. Used by the soft-delete rollback: positions not in the snapshot
// disappear, snapshot entries are recreated exactly.
func ReplacePositions(db DBTX, clientID int64, snapshot models.Snapshot) error {
	if _, err := db.Exec(`DELETE FROM positions WHERE client_id = ?`, clientID); err != nil {
		return err
	}
	for instrument, s := range snapshot {
		if _, err := db.Exec(`INSERT INTO positions (client_id, instrument, quantity, vwap) VALUES (?, ?, ?, ?)`,
			clientID, instrument, s.Quantity, s.VWAP); err != nil {
			return err
		}
	}
	return nil
}
