package services

import (
	"testing"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapWeightsFloatAdjusted(t *testing.T) {
	db := newTestDB(t)
	prices := stubPriceService{prices: map[string]float64{"ATW": 400, "IAM": 100, "BCP": 250}}
	service := NewCapWeightService(db, prices)

	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "ATW", ShareCount: 1000, FloatFactor: 0.5}))
	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "IAM", ShareCount: 2000, FloatFactor: 1.0}))

	weights, err := service.Weights()
	require.NoError(t, err)
	require.Len(t, weights, 2)

	byName := map[string]models.CapWeight{}
	var sum float64
	for _, w := range weights {
		byName[w.Instrument] = w
		sum += w.WeightPct
	}
	assert.InDelta(t, 100, sum, 1e-9)

	// ATW floated cap 400*1000*0.5 = 200000, IAM 100*2000*1.0 = 200000
	assert.InDelta(t, 400000, byName["ATW"].Capitalization, 1e-9)
	assert.InDelta(t, 200000, byName["ATW"].FloatedCap, 1e-9)
	assert.InDelta(t, 50, byName["ATW"].WeightPct, 1e-9)
	assert.InDelta(t, 50, byName["IAM"].WeightPct, 1e-9)
}

func TestCapWeightsExcludesUnknownPriceOrShares(t *testing.T) {
	db := newTestDB(t)
	prices := stubPriceService{prices: map[string]float64{"ATW": 400}}
	service := NewCapWeightService(db, prices)

	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "ATW", ShareCount: 1000, FloatFactor: 1}))
	// zero share count: excluded, not zero-weighted
	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "IAM", ShareCount: 0, FloatFactor: 1}))
	// unknown price: excluded
	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "BCP", ShareCount: 500, FloatFactor: 1}))

	weights, err := service.Weights()
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.Equal(t, "ATW", weights[0].Instrument)
	assert.InDelta(t, 100, weights[0].WeightPct, 1e-9)
}

func TestCapWeightsEmptyUniverse(t *testing.T) {
	db := newTestDB(t)
	service := NewCapWeightService(db, stubPriceService{})

	// The seeded Cash instrument must never appear in the weights.
	weights, err := service.Weights()
	require.NoError(t, err)
	assert.Empty(t, weights)
}
