package services

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var loggerOnce sync.Once

// newTestDB opens an in-memory sqlite database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	loggerOnce.Do(func() { logger.InitLogger("error") })

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../db/migrations/000001_init_schema.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

// stubPriceService is a fixed-price oracle for tests.
type stubPriceService struct {
	prices map[string]float64
	index  float64
}

func (s stubPriceService) PriceOf(name string) float64 {
	if name == models.CashInstrument {
		return 1.0
	}
	return s.prices[name]
}

func (s stubPriceService) IndexLevel() float64 { return s.index }

func (s stubPriceService) RefreshPrices(context.Context) error { return nil }

// newTestClient inserts a client with a funded Cash position and returns its id.
func newTestClient(t *testing.T, db *sql.DB, c models.Client, cash float64) int64 {
	t.Helper()
	id, err := model.CreateClient(db, c)
	require.NoError(t, err)
	require.NoError(t, model.UpsertPosition(db, id, models.CashInstrument, cash, 1.0))
	return id
}

func cashQuantity(t *testing.T, db *sql.DB, clientID int64) float64 {
	t.Helper()
	p, err := model.GetPosition(db, clientID, models.CashInstrument)
	require.NoError(t, err)
	return p.Quantity
}
