package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quotesBody = `{"index": 12500.5, "quotes": [
	{"instrument": "ATW", "price": 402.5},
	{"instrument": "IAM", "price": 98.0}
]}`

func TestRefreshPricesPopulatesTiers(t *testing.T) {
	db := newTestDB(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quotesBody))
	}))
	defer server.Close()

	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "ATW"}))

	prices := NewPriceService(db, server.URL, "MASI", time.Minute, time.Second)
	require.NoError(t, prices.RefreshPrices(context.Background()))

	assert.InDelta(t, 402.5, prices.PriceOf("ATW"), 1e-9)
	assert.InDelta(t, 98.0, prices.PriceOf("IAM"), 1e-9)
	assert.InDelta(t, 12500.5, prices.IndexLevel(), 1e-9)

	// The stale tier was persisted too.
	in, err := model.GetInstrument(db, "ATW")
	require.NoError(t, err)
	assert.InDelta(t, 402.5, in.Price, 1e-9)
}

func TestPriceOfFallsBackToStaleTier(t *testing.T) {
	db := newTestDB(t)
	prices := NewPriceService(db, "", "MASI", time.Minute, time.Second)

	require.NoError(t, model.UpsertInstrument(db, models.Instrument{Name: "ATW", Price: 399}))
	require.NoError(t, model.UpsertDailyPrice(db, "BCP", "2026-08-28", 250))
	require.NoError(t, model.UpsertDailyPrice(db, "MASI", "2026-08-28", 12000))

	// Nothing fresh cached: instrument row first, then daily close.
	assert.InDelta(t, 399, prices.PriceOf("ATW"), 1e-9)
	assert.InDelta(t, 250, prices.PriceOf("BCP"), 1e-9)
	assert.InDelta(t, 12000, prices.IndexLevel(), 1e-9)

	// Unknown instruments resolve to 0, Cash is pinned at 1.
	assert.Zero(t, prices.PriceOf("NOPE"))
	assert.Equal(t, 1.0, prices.PriceOf(models.CashInstrument))
}

func TestRefreshPricesDependencyFailures(t *testing.T) {
	db := newTestDB(t)

	unconfigured := NewPriceService(db, "", "MASI", time.Minute, time.Second)
	assert.ErrorIs(t, unconfigured.RefreshPrices(context.Background()), ErrDependencyUnavailable)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	failing := NewPriceService(db, server.URL, "MASI", time.Minute, time.Second)
	assert.ErrorIs(t, failing.RefreshPrices(context.Background()), ErrDependencyUnavailable)

	unreachable := NewPriceService(db, "http://127.0.0.1:1", "MASI", time.Minute, 200*time.Millisecond)
	assert.ErrorIs(t, unreachable.RefreshPrices(context.Background()), ErrDependencyUnavailable)
}
