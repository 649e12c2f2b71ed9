package model

import (
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// CreatePerformancePeriod inserts a new period and returns its id.
func CreatePerformancePeriod(db DBTX, p models.PerformancePeriod) (int64, error) {
	res, err := db.Exec(`INSERT INTO performance_periods (client_id, start_date, start_value, masi_start_value) VALUES (?, ?, ?, ?)`,
		p.ClientID, p.StartDate, p.StartValue, p.MasiStartValue)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPerformancePeriod retrieves one period by id.
func GetPerformancePeriod(db DBTX, id int64) (models.PerformancePeriod, error) {
	var p models.PerformancePeriod
	err := db.QueryRow(`SELECT id, client_id, start_date, start_value, masi_start_value FROM performance_periods WHERE id = ?`, id).
		Scan(&p.ID, &p.ClientID, &p.StartDate, &p.StartValue, &p.MasiStartValue)
	return p, err
}

// GetLatestPerformancePeriod returns the client's period with the max start
// date. Returns sql.ErrNoRows when the client has no period.
func GetLatestPerformancePeriod(db DBTX, clientID int64) (models.PerformancePeriod, error) {
	var p models.PerformancePeriod
	err := db.QueryRow(`SELECT id, client_id, start_date, start_value, masi_start_value FROM performance_periods
		WHERE client_id = ? ORDER BY start_date DESC, id DESC LIMIT 1`, clientID).
		Scan(&p.ID, &p.ClientID, &p.StartDate, &p.StartValue, &p.MasiStartValue)
	return p, err
}

// ListPerformancePeriods returns all of a client's periods, newest first.
func ListPerformancePeriods(db DBTX, clientID int64) ([]models.PerformancePeriod, error) {
	rows, err := db.Query(`SELECT id, client_id, start_date, start_value, masi_start_value FROM performance_periods
		WHERE client_id = ? ORDER BY start_date DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	periods := []models.PerformancePeriod{}
	for rows.Next() {
		var p models.PerformancePeriod
		if err := rows.Scan(&p.ID, &p.ClientID, &p.StartDate, &p.StartValue, &p.MasiStartValue); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// UpdatePerformancePeriod edits the three scalar fields of a period.
func UpdatePerformancePeriod(db DBTX, p models.PerformancePeriod) (int64, error) {
	res, err := db.Exec(`UPDATE performance_periods SET start_date = ?, start_value = ?, masi_start_value = ? WHERE id = ?`,
		p.StartDate, p.StartValue, p.MasiStartValue, p.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeletePerformancePeriod removes a period.
func DeletePerformancePeriod(db DBTX, id int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM performance_periods WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
