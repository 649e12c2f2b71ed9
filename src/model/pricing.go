package model

import (
	"time"
)

// UpsertDailyPrice records the day's close for an instrument. This is the
// stale tier of the price oracle: the most recent row survives restarts and
// serves lookups when the fresh cache has expired and the live fetch fails.
func UpsertDailyPrice(db DBTX, instrument, date string, price float64) error {
	_, err := db.Exec(`INSERT INTO daily_prices (instrument, date, price, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(instrument, date) DO UPDATE SET price = excluded.price, updated_at = excluded.updated_at`,
		instrument, date, price, time.Now().UTC())
	return err
}

// GetLatestDailyPrice returns the most recent recorded price for an
// instrument. Returns sql.ErrNoRows when none was ever recorded.
func GetLatestDailyPrice(db DBTX, instrument string) (float64, error) {
	var price float64
	err := db.QueryRow(`SELECT price FROM daily_prices WHERE instrument = ? ORDER BY date DESC LIMIT 1`, instrument).
		Scan(&price)
	return price, err
}
