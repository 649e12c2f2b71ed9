package model

import (
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// ListInstruments returns all instruments ordered by name.
func ListInstruments(db DBTX) ([]models.Instrument, error) {
	rows, err := db.Query(`SELECT name, price, share_count, float_factor, updated_at FROM instruments ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	instruments := []models.Instrument{}
	for rows.Next() {
		var in models.Instrument
		if err := rows.Scan(&in.Name, &in.Price, &in.ShareCount, &in.FloatFactor, &in.UpdatedAt); err != nil {
			return nil, err
		}
		instruments = append(instruments, in)
	}
	return instruments, rows.Err()
}

// GetInstrument retrieves one instrument by name. Returns sql.ErrNoRows when absent.
func GetInstrument(db DBTX, name string) (models.Instrument, error) {
	var in models.Instrument
	err := db.QueryRow(`SELECT name, price, share_count, float_factor, updated_at FROM instruments WHERE name = ?`, name).
		Scan(&in.Name, &in.Price, &in.ShareCount, &in.FloatFactor, &in.UpdatedAt)
	return in, err
}

// UpsertInstrument inserts or updates an instrument's metadata.
func UpsertInstrument(db DBTX, in models.Instrument) error {
	_, err := db.Exec(`INSERT INTO instruments (name, price, share_count, float_factor, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET price = excluded.price, share_count = excluded.share_count,
			float_factor = excluded.float_factor, updated_at = excluded.updated_at`,
		in.Name, in.Price, in.ShareCount, in.FloatFactor, time.Now().UTC())
	return err
}

// UpdateInstrumentPrice stores the latest traded price for an instrument.
func UpdateInstrumentPrice(db DBTX, name string, price float64) error {
	_, err := db.Exec(`UPDATE instruments SET price = ?, updated_at = ? WHERE name = ?`,
		price, time.Now().UTC(), name)
	return err
}
