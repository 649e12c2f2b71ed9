package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, db *sql.DB) *LedgerService {
	t.Helper()
	return NewLedgerService(db, stubPriceService{prices: map[string]float64{}})
}

func TestBuyCreatesPositionAndDebitsCash(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Benani", CommissionRate: 0.2, TaxRate: 15}, 100000)

	record, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)

	assert.Equal(t, models.SideBuy, record.Side)
	assert.InDelta(t, 40000, record.GrossAmount, 1e-9)
	assert.InDelta(t, 80, record.Fees, 1e-9)
	assert.InDelta(t, 40080, record.NetAmount, 1e-9)

	pos, err := model.GetPosition(db, clientID, "ATW")
	require.NoError(t, err)
	assert.InDelta(t, 100, pos.Quantity, 1e-9)
	assert.InDelta(t, 400.80, pos.VWAP, 1e-9)
	assert.InDelta(t, 59920, cashQuantity(t, db, clientID), 1e-9)
}

func TestBuyAccumulatesVWAP(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Alaoui", CommissionRate: 0.5}, 1000000)

	// VWAP over a sequence of buys equals total cost divided by total quantity.
	buys := []struct{ price, quantity float64 }{
		{100, 50},
		{120, 25},
		{90, 100},
	}
	var totalCost, totalQuantity float64
	for _, b := range buys {
		_, err := ledger.Buy(context.Background(), clientID, "IAM", b.price, b.quantity)
		require.NoError(t, err)
		gross := b.price * b.quantity
		totalCost += gross + gross*0.5/100
		totalQuantity += b.quantity
	}

	pos, err := model.GetPosition(db, clientID, "IAM")
	require.NoError(t, err)
	assert.InDelta(t, totalQuantity, pos.Quantity, 1e-9)
	assert.InDelta(t, totalCost/totalQuantity, pos.VWAP, 1e-9)
}

func TestBuyInsufficientCashLeavesStateUnchanged(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Tazi", CommissionRate: 0.2}, 1000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.ErrorIs(t, err, ErrInsufficientCash)

	assert.InDelta(t, 1000, cashQuantity(t, db, clientID), 1e-9)
	_, err = model.GetPosition(db, clientID, "ATW")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	transactions, err := ledger.ListTransactions(clientID, true)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestBuyWithoutCashPositionRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID, err := model.CreateClient(db, models.Client{Name: "SansCash"})
	require.NoError(t, err)

	_, err = ledger.Buy(context.Background(), clientID, "ATW", 400, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderValidation(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Berrada"}, 1000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ledger.Buy(context.Background(), clientID, "ATW", -1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ledger.Buy(context.Background(), clientID, models.CashInstrument, 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ledger.Buy(context.Background(), 9999, "ATW", 400, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ledger.Sell(context.Background(), clientID, "ATW", 400, -5)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSellRealizesGainWithCommissionAndTax(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Benani", CommissionRate: 0.2, TaxRate: 15}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)

	record, err := ledger.Sell(context.Background(), clientID, "ATW", 420, 40)
	require.NoError(t, err)

	// gross 16800, commission 33.6, cost basis 40*400.80=16032,
	// profit 734.4, tax 110.16, net 16656.24
	assert.InDelta(t, 16800, record.GrossAmount, 1e-9)
	assert.InDelta(t, 33.6, record.Fees, 1e-9)
	assert.InDelta(t, 110.16, record.Tax, 1e-9)
	assert.InDelta(t, 16656.24, record.NetAmount, 1e-9)

	pos, err := model.GetPosition(db, clientID, "ATW")
	require.NoError(t, err)
	assert.InDelta(t, 60, pos.Quantity, 1e-9)
	assert.InDelta(t, 400.80, pos.VWAP, 1e-9) // sells never move the VWAP
	assert.InDelta(t, 76576.24, cashQuantity(t, db, clientID), 1e-6)
}

func TestSellPEAClientPaysNoTax(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Exonere", CommissionRate: 0.2, TaxRate: 15, IsPEA: true}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)

	record, err := ledger.Sell(context.Background(), clientID, "ATW", 420, 40)
	require.NoError(t, err)
	assert.Zero(t, record.Tax)
	assert.InDelta(t, 16766.4, record.NetAmount, 1e-9)
}

func TestSellAtLossPaysNoTax(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Perdant", CommissionRate: 0.2, TaxRate: 15}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)

	record, err := ledger.Sell(context.Background(), clientID, "ATW", 300, 40)
	require.NoError(t, err)
	assert.Zero(t, record.Tax)
}

func TestSellMoreThanHeldRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Petit", CommissionRate: 0.2}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 10)
	require.NoError(t, err)
	cashBefore := cashQuantity(t, db, clientID)

	_, err = ledger.Sell(context.Background(), clientID, "ATW", 420, 11)
	require.ErrorIs(t, err, ErrInsufficientQuantity)

	pos, err := model.GetPosition(db, clientID, "ATW")
	require.NoError(t, err)
	assert.InDelta(t, 10, pos.Quantity, 1e-9)
	assert.InDelta(t, cashBefore, cashQuantity(t, db, clientID), 1e-9)
}

func TestSellUnknownInstrumentRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Vide"}, 100000)

	_, err := ledger.Sell(context.Background(), clientID, "IAM", 100, 1)
	assert.ErrorIs(t, err, ErrNoSuchPosition)
}

func TestSellToZeroRemovesPositionAndResetsVWAP(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Rond"}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "IAM", 100, 50)
	require.NoError(t, err)
	_, err = ledger.Sell(context.Background(), clientID, "IAM", 110, 50)
	require.NoError(t, err)

	_, err = model.GetPosition(db, clientID, "IAM")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Reopening starts with a fresh cost basis.
	_, err = ledger.Buy(context.Background(), clientID, "IAM", 200, 10)
	require.NoError(t, err)
	pos, err := model.GetPosition(db, clientID, "IAM")
	require.NoError(t, err)
	assert.InDelta(t, 200, pos.VWAP, 1e-9)
}

func TestDeleteTransactionRestoresSnapshot(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Retour", CommissionRate: 0.2}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)
	record, err := ledger.Buy(context.Background(), clientID, "IAM", 100, 50)
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteTransaction(context.Background(), record.ID))

	// IAM is gone, ATW and Cash are back to the pre-IAM state.
	_, err = model.GetPosition(db, clientID, "IAM")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	pos, err := model.GetPosition(db, clientID, "ATW")
	require.NoError(t, err)
	assert.InDelta(t, 100, pos.Quantity, 1e-9)
	assert.InDelta(t, 400.80, pos.VWAP, 1e-9)
	assert.InDelta(t, 59920, cashQuantity(t, db, clientID), 1e-9)

	stored, err := model.GetTransactionByID(db, record.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	require.NotNil(t, stored.DeletedAt)

	// A second delete of the same transaction must fail.
	err = ledger.DeleteTransaction(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrAlreadyDeleted)
}

func TestDeleteTransactionOutOfOrderRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Ordre"}, 100000)

	first, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 10)
	require.NoError(t, err)
	_, err = ledger.Buy(context.Background(), clientID, "IAM", 100, 10)
	require.NoError(t, err)

	// The snapshot rollback is only sound for the most recent live
	// transaction.
	err = ledger.DeleteTransaction(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteTransactionUnknownID(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)

	err := ledger.DeleteTransaction(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTotalPaidSumsLiveBuysOnly(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Compte", CommissionRate: 0.2}, 200000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100) // 40080
	require.NoError(t, err)
	_, err = ledger.Sell(context.Background(), clientID, "ATW", 420, 40) // not counted
	require.NoError(t, err)
	deleted, err := ledger.Buy(context.Background(), clientID, "IAM", 100, 10) // 1002, then deleted
	require.NoError(t, err)
	require.NoError(t, ledger.DeleteTransaction(context.Background(), deleted.ID))

	total, err := ledger.TotalPaid(clientID)
	require.NoError(t, err)
	assert.InDelta(t, 40080, total, 1e-9)
}

func TestVersionBumpAndStaleCAS(t *testing.T) {
	db := newTestDB(t)
	ledger := newLedger(t, db)
	clientID := newTestClient(t, db, models.Client{Name: "Course"}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 10)
	require.NoError(t, err)

	client, err := model.GetClientByID(db, clientID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), client.Version)

	// A mutation carrying a stale version loses the compare-and-swap.
	ok, err := model.BumpClientVersion(db, clientID, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = model.BumpClientVersion(db, clientID, client.Version)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPositionsWithValue(t *testing.T) {
	db := newTestDB(t)
	prices := stubPriceService{prices: map[string]float64{"ATW": 410}}
	ledger := NewLedgerService(db, prices)
	clientID := newTestClient(t, db, models.Client{Name: "Valeur", CommissionRate: 0.2}, 100000)

	_, err := ledger.Buy(context.Background(), clientID, "ATW", 400, 100)
	require.NoError(t, err)

	positions, total, err := ledger.PositionsWithValue(clientID)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	// Portfolio total equals the sum of the per-position valuations.
	var sum float64
	for _, p := range positions {
		sum += p.Valuation
	}
	assert.InDelta(t, sum, total, 1e-9)
	assert.InDelta(t, 100*410+59920, total, 1e-9)
}
