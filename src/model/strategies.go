package model

import (
	"encoding/json"

	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

func scanStrategy(row interface{ Scan(...interface{}) error }) (models.Strategy, error) {
	var s models.Strategy
	var targetsJSON string
	if err := row.Scan(&s.ID, &s.Name, &targetsJSON); err != nil {
		return models.Strategy{}, err
	}
	if err := json.Unmarshal([]byte(targetsJSON), &s.Targets); err != nil {
		return models.Strategy{}, err
	}
	return s, nil
}

// CreateStrategy inserts a new strategy and returns its id.
func CreateStrategy(db DBTX, s models.Strategy) (int64, error) {
	targetsJSON, err := json.Marshal(s.Targets)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`INSERT INTO strategies (name, targets) VALUES (?, ?)`, s.Name, string(targetsJSON))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetStrategyByID retrieves one strategy.
func GetStrategyByID(db DBTX, id int64) (models.Strategy, error) {
	row := db.QueryRow(`SELECT id, name, targets FROM strategies WHERE id = ?`, id)
	return scanStrategy(row)
}

// ListStrategies returns all strategies ordered by name.
func ListStrategies(db DBTX) ([]models.Strategy, error) {
	rows, err := db.Query(`SELECT id, name, targets FROM strategies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	strategies := []models.Strategy{}
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, rows.Err()
}

// UpdateStrategy updates a strategy's name and target weights.
func UpdateStrategy(db DBTX, s models.Strategy) (int64, error) {
	targetsJSON, err := json.Marshal(s.Targets)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`UPDATE strategies SET name = ?, targets = ? WHERE id = ?`, s.Name, string(targetsJSON), s.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteStrategy removes a strategy; referencing clients fall back to no strategy.
func DeleteStrategy(db DBTX, id int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM strategies WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
