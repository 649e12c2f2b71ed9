package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Hamza-Alami/vertexcp-sub000/src/logger"
	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// quantityEpsilon absorbs float drift when comparing quantities and cash.
const quantityEpsilon = 1e-9

// LedgerService applies buy/sell operations to client portfolios and keeps
// the transaction journal. Every mutation runs in a single database
// transaction: the traded-instrument position, the Cash position and the
// journal row commit together or not at all.
type LedgerService struct {
	db     *sql.DB
	prices PriceService
}

func NewLedgerService(db *sql.DB, prices PriceService) *LedgerService {
	return &LedgerService{db: db, prices: prices}
}

func snapshotOf(positions []models.Position) models.Snapshot {
	snapshot := models.Snapshot{}
	for _, p := range positions {
		snapshot[p.Instrument] = models.PositionSnapshot{Quantity: p.Quantity, VWAP: p.VWAP}
	}
	return snapshot
}

// Buy purchases quantity of instrument at price for the client. Commission is
// charged on the gross amount and the total cost is debited from Cash. The
// position's VWAP absorbs the full cost including commission.
func (s *LedgerService) Buy(ctx context.Context, clientID int64, instrument string, price, quantity float64) (models.Transaction, error) {
	if err := validateOrder(instrument, price, quantity); err != nil {
		return models.Transaction{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Transaction{}, err
	}
	defer tx.Rollback()

	client, err := model.GetClientByID(tx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, fmt.Errorf("%w: unknown client %d", ErrValidation, clientID)
		}
		return models.Transaction{}, err
	}

	positions, err := model.ListPositionsForClient(tx, clientID)
	if err != nil {
		return models.Transaction{}, err
	}
	snapshot := snapshotOf(positions)

	cash, hasCash := snapshot[models.CashInstrument]
	if !hasCash {
		return models.Transaction{}, fmt.Errorf("%w: client %d has no Cash position", ErrValidation, clientID)
	}

	grossCost := price * quantity
	commission := grossCost * client.CommissionRate / 100
	totalCost := grossCost + commission

	if totalCost > cash.Quantity+quantityEpsilon {
		return models.Transaction{}, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, totalCost, cash.Quantity)
	}

	newQuantity := quantity
	newVWAP := totalCost / quantity
	if held, ok := snapshot[instrument]; ok {
		newQuantity = held.Quantity + quantity
		newVWAP = (held.Quantity*held.VWAP + totalCost) / newQuantity
	}

	if err := model.UpsertPosition(tx, clientID, instrument, newQuantity, newVWAP); err != nil {
		return models.Transaction{}, err
	}
	if err := model.UpsertPosition(tx, clientID, models.CashInstrument, cash.Quantity-totalCost, 1.0); err != nil {
		return models.Transaction{}, err
	}

	record := models.Transaction{
		ClientID:       clientID,
		Instrument:     instrument,
		Side:           models.SideBuy,
		Price:          price,
		Quantity:       quantity,
		GrossAmount:    grossCost,
		Fees:           commission,
		NetAmount:      totalCost,
		ExecutedAt:     time.Now().UTC(),
		SnapshotBefore: snapshot,
	}
	record.ID, err = model.InsertTransaction(tx, record)
	if err != nil {
		return models.Transaction{}, err
	}

	if err := s.commitVersioned(tx, client); err != nil {
		return models.Transaction{}, err
	}

	logger.FromContext(ctx).Info("Buy executed",
		"clientID", clientID, "instrument", instrument, "quantity", quantity,
		"price", price, "totalCost", totalCost)
	return record, nil
}

// Sell disposes of quantity of instrument at price. Commission is deducted
// from the gross proceeds; realized profit above the VWAP cost basis is taxed
// unless the account is tax-exempt. Net proceeds are credited to Cash. The
// VWAP of the remaining quantity is unchanged; a position sold down to zero is
// removed entirely.
func (s *LedgerService) Sell(ctx context.Context, clientID int64, instrument string, price, quantity float64) (models.Transaction, error) {
	if err := validateOrder(instrument, price, quantity); err != nil {
		return models.Transaction{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Transaction{}, err
	}
	defer tx.Rollback()

	client, err := model.GetClientByID(tx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, fmt.Errorf("%w: unknown client %d", ErrValidation, clientID)
		}
		return models.Transaction{}, err
	}

	positions, err := model.ListPositionsForClient(tx, clientID)
	if err != nil {
		return models.Transaction{}, err
	}
	snapshot := snapshotOf(positions)

	held, ok := snapshot[instrument]
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: client %d holds no %s", ErrNoSuchPosition, clientID, instrument)
	}
	if quantity > held.Quantity+quantityEpsilon {
		return models.Transaction{}, fmt.Errorf("%w: selling %.4f, holding %.4f", ErrInsufficientQuantity, quantity, held.Quantity)
	}

	grossProceeds := price * quantity
	commission := grossProceeds * client.CommissionRate / 100
	netProceeds := grossProceeds - commission

	taxRate := client.TaxRate
	if client.IsPEA {
		taxRate = 0
	}
	var tax float64
	profit := netProceeds - held.VWAP*quantity
	if profit > 0 && taxRate > 0 {
		tax = profit * taxRate / 100
		netProceeds -= tax
	}

	remaining := held.Quantity - quantity
	if remaining <= quantityEpsilon {
		// Closed positions are removed, not zeroed: a reopened position
		// starts with a fresh VWAP.
		if err := model.DeletePosition(tx, clientID, instrument); err != nil {
			return models.Transaction{}, err
		}
	} else {
		if err := model.UpsertPosition(tx, clientID, instrument, remaining, held.VWAP); err != nil {
			return models.Transaction{}, err
		}
	}

	cash := snapshot[models.CashInstrument]
	if err := model.UpsertPosition(tx, clientID, models.CashInstrument, cash.Quantity+netProceeds, 1.0); err != nil {
		return models.Transaction{}, err
	}

	record := models.Transaction{
		ClientID:       clientID,
		Instrument:     instrument,
		Side:           models.SideSell,
		Price:          price,
		Quantity:       quantity,
		GrossAmount:    grossProceeds,
		Fees:           commission,
		Tax:            tax,
		NetAmount:      netProceeds,
		ExecutedAt:     time.Now().UTC(),
		SnapshotBefore: snapshot,
	}
	record.ID, err = model.InsertTransaction(tx, record)
	if err != nil {
		return models.Transaction{}, err
	}

	if err := s.commitVersioned(tx, client); err != nil {
		return models.Transaction{}, err
	}

	logger.FromContext(ctx).Info("Sell executed",
		"clientID", clientID, "instrument", instrument, "quantity", quantity,
		"price", price, "netProceeds", netProceeds, "tax", tax)
	return record, nil
}

// DeleteTransaction soft-deletes a committed transaction and rolls the
// client's positions back to the snapshot captured before it. The rollback is
// a full-state restore, so it is only allowed for the client's most recent
// live transaction; deleting an older one is rejected.
func (s *LedgerService) DeleteTransaction(ctx context.Context, transactionID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	record, err := model.GetTransactionByID(tx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: transaction %d", ErrNotFound, transactionID)
		}
		return err
	}
	if record.IsDeleted {
		return fmt.Errorf("%w: transaction %d", ErrAlreadyDeleted, transactionID)
	}

	later, err := model.CountLaterLiveTransactions(tx, record.ClientID, transactionID)
	if err != nil {
		return err
	}
	if later > 0 {
		return fmt.Errorf("%w: %d later transaction(s) exist for client %d, delete those first",
			ErrValidation, later, record.ClientID)
	}

	client, err := model.GetClientByID(tx, record.ClientID)
	if err != nil {
		return err
	}

	if err := model.ReplacePositions(tx, record.ClientID, record.SnapshotBefore); err != nil {
		return err
	}
	if err := model.MarkTransactionDeleted(tx, transactionID, time.Now().UTC()); err != nil {
		return err
	}

	if err := s.commitVersioned(tx, client); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Transaction soft-deleted, snapshot restored",
		"transactionID", transactionID, "clientID", record.ClientID)
	return nil
}

// ListTransactions returns the client's journal, newest first.
func (s *LedgerService) ListTransactions(clientID int64, includeDeleted bool) ([]models.Transaction, error) {
	return model.ListTransactionsForClient(s.db, clientID, includeDeleted)
}

// TotalPaid sums gross amount plus fees over all live buys of the client, an
// external cost figure independent of live VWAP.
func (s *LedgerService) TotalPaid(clientID int64) (float64, error) {
	return model.SumBuyCosts(s.db, clientID)
}

// PositionsWithValue returns the client's positions revalued at current
// prices, plus the portfolio total. A 0 price marks an unknown valuation.
func (s *LedgerService) PositionsWithValue(clientID int64) ([]models.Position, float64, error) {
	positions, err := model.ListPositionsForClient(s.db, clientID)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for i := range positions {
		positions[i].Price = s.prices.PriceOf(positions[i].Instrument)
		positions[i].Valuation = positions[i].Quantity * positions[i].Price
		total += positions[i].Valuation
	}
	return positions, total, nil
}

// commitVersioned performs the client's optimistic-concurrency bump and
// commits. A version mismatch means another mutation won the race.
func (s *LedgerService) commitVersioned(tx *sql.Tx, client models.Client) error {
	ok, err := model.BumpClientVersion(tx, client.ID, client.Version)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: client %d version %d is stale", ErrConcurrentModification, client.ID, client.Version)
	}
	return tx.Commit()
}

func validateOrder(instrument string, price, quantity float64) error {
	if instrument == "" {
		return fmt.Errorf("%w: instrument is required", ErrValidation)
	}
	if instrument == models.CashInstrument {
		return fmt.Errorf("%w: Cash cannot be traded directly", ErrValidation)
	}
	if quantity <= 0 || math.IsNaN(quantity) {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if price < 0 || math.IsNaN(price) {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
