package services

import (
	"database/sql"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// CapWeightService computes float-adjusted market-cap weights from instrument
// metadata and live prices. Display only; rebalancing targets stay driven by
// operator-defined strategies.
type CapWeightService struct {
	db     *sql.DB
	prices PriceService
}

func NewCapWeightService(db *sql.DB, prices PriceService) *CapWeightService {
	return &CapWeightService{db: db, prices: prices}
}

// Weights returns the float-adjusted weight of every instrument with a known
// price and share count. Instruments missing either are excluded entirely
// rather than reported at zero weight.
func (s *CapWeightService) Weights() ([]models.CapWeight, error) {
	instruments, err := model.ListInstruments(s.db)
	if err != nil {
		return nil, err
	}

	weights := []models.CapWeight{}
	var totalFloatedCap float64
	for _, in := range instruments {
		if in.Name == models.CashInstrument {
			continue
		}
		price := s.prices.PriceOf(in.Name)
		if price <= 0 || in.ShareCount <= 0 {
			continue
		}
		capitalization := price * in.ShareCount
		floatedCap := capitalization * in.FloatFactor
		totalFloatedCap += floatedCap
		weights = append(weights, models.CapWeight{
			Instrument:     in.Name,
			Price:          price,
			Capitalization: capitalization,
			FloatedCap:     floatedCap,
		})
	}

	if totalFloatedCap > 0 {
		for i := range weights {
			weights[i].WeightPct = weights[i].FloatedCap / totalFloatedCap * 100
		}
	}
	return weights, nil
}
