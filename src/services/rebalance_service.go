package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// RebalanceService simulates rebalancing client portfolios toward a
// strategy's target weights. It is a read-only projection: no simulation ever
// mutates positions.
type RebalanceService struct {
	db     *sql.DB
	prices PriceService
}

func NewRebalanceService(db *sql.DB, prices PriceService) *RebalanceService {
	return &RebalanceService{db: db, prices: prices}
}

// ValidateStrategyTargets rejects target maps whose explicit weights sum over
// 100 or contain a negative weight. The remainder up to 100 is implicitly Cash.
func ValidateStrategyTargets(targets map[string]float64) error {
	var sum float64
	for instrument, weight := range targets {
		if weight < 0 {
			return fmt.Errorf("%w: negative target weight for %s", ErrValidation, instrument)
		}
		if instrument != models.CashInstrument {
			sum += weight
		}
	}
	if sum > 100+quantityEpsilon {
		return fmt.Errorf("%w: target weights sum to %.2f, must not exceed 100", ErrValidation, sum)
	}
	return nil
}

// Plan simulates rebalancing a single client toward its assigned strategy.
func (s *RebalanceService) Plan(clientID int64) (models.RebalancePlan, error) {
	client, err := model.GetClientByID(s.db, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RebalancePlan{}, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
		}
		return models.RebalancePlan{}, err
	}
	if client.StrategyID == nil {
		return models.RebalancePlan{}, fmt.Errorf("%w: client %d has no strategy assigned", ErrValidation, clientID)
	}
	strategy, err := model.GetStrategyByID(s.db, *client.StrategyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RebalancePlan{}, fmt.Errorf("%w: strategy %d", ErrNotFound, *client.StrategyID)
		}
		return models.RebalancePlan{}, err
	}

	quantities, err := s.heldQuantities(clientID)
	if err != nil {
		return models.RebalancePlan{}, err
	}
	plan := s.buildPlan(quantities, strategy.Targets)
	plan.ClientIDs = []int64{clientID}
	return plan, nil
}

// AggregatePlan sums the cohort's holdings per instrument and simulates the
// result as one virtual portfolio against the given strategy.
func (s *RebalanceService) AggregatePlan(clientIDs []int64, strategyID int64) (models.RebalancePlan, error) {
	if len(clientIDs) == 0 {
		return models.RebalancePlan{}, fmt.Errorf("%w: at least one client is required", ErrValidation)
	}
	strategy, err := model.GetStrategyByID(s.db, strategyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RebalancePlan{}, fmt.Errorf("%w: strategy %d", ErrNotFound, strategyID)
		}
		return models.RebalancePlan{}, err
	}

	combined := map[string]float64{}
	for _, clientID := range clientIDs {
		quantities, err := s.heldQuantities(clientID)
		if err != nil {
			return models.RebalancePlan{}, err
		}
		for instrument, quantity := range quantities {
			combined[instrument] += quantity
		}
	}
	plan := s.buildPlan(combined, strategy.Targets)
	plan.ClientIDs = clientIDs
	return plan, nil
}

// Drilldown reports one instrument across a cohort: per client the current
// and target quantities, the adjustment and its monetary value, available
// cash, and an informational buying-capacity figure.
func (s *RebalanceService) Drilldown(instrument string, clientIDs []int64, strategyID int64) (models.InstrumentDrilldown, error) {
	if instrument == "" {
		return models.InstrumentDrilldown{}, fmt.Errorf("%w: instrument is required", ErrValidation)
	}
	if len(clientIDs) == 0 {
		return models.InstrumentDrilldown{}, fmt.Errorf("%w: at least one client is required", ErrValidation)
	}
	strategy, err := model.GetStrategyByID(s.db, strategyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.InstrumentDrilldown{}, fmt.Errorf("%w: strategy %d", ErrNotFound, strategyID)
		}
		return models.InstrumentDrilldown{}, err
	}

	price := s.prices.PriceOf(instrument)
	targetWeight := targetWeightOf(strategy.Targets, instrument)

	result := models.InstrumentDrilldown{Instrument: instrument, Price: price}
	for _, clientID := range clientIDs {
		client, err := model.GetClientByID(s.db, clientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.InstrumentDrilldown{}, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
			}
			return models.InstrumentDrilldown{}, err
		}

		quantities, err := s.heldQuantities(clientID)
		if err != nil {
			return models.InstrumentDrilldown{}, err
		}
		var totalValue float64
		for name, quantity := range quantities {
			totalValue += quantity * s.prices.PriceOf(name)
		}

		row := models.ClientAdjustment{
			ClientID:   clientID,
			ClientName: client.Name,
			Quantity:   quantities[instrument],
			Cash:       quantities[models.CashInstrument],
		}
		row.TargetQuantity = targetQuantity(totalValue, targetWeight, price)
		row.Adjustment = row.TargetQuantity - row.Quantity
		row.AdjustmentValue = row.Adjustment * price
		if price > 0 {
			// Informational only: how many units the cash could buy with
			// commission included. Never enforced.
			row.BuyingCapacity = math.Floor(row.Cash / (price * (1 + client.CommissionRate/100)))
		}
		result.Clients = append(result.Clients, row)
	}
	return result, nil
}

// heldQuantities maps instrument name to held quantity for one client.
func (s *RebalanceService) heldQuantities(clientID int64) (map[string]float64, error) {
	positions, err := model.ListPositionsForClient(s.db, clientID)
	if err != nil {
		return nil, err
	}
	quantities := map[string]float64{}
	for _, p := range positions {
		quantities[p.Instrument] = p.Quantity
	}
	return quantities, nil
}

// buildPlan runs the weight/target/deviation computation over the union of
// held and targeted instruments. Non-Cash lines come first in stable name
// order, Cash always last.
func (s *RebalanceService) buildPlan(quantities map[string]float64, targets map[string]float64) models.RebalancePlan {
	union := map[string]bool{models.CashInstrument: true}
	for instrument := range quantities {
		union[instrument] = true
	}
	for instrument := range targets {
		union[instrument] = true
	}

	names := make([]string, 0, len(union))
	for instrument := range union {
		if instrument != models.CashInstrument {
			names = append(names, instrument)
		}
	}
	sort.Strings(names)
	names = append(names, models.CashInstrument)

	var totalValue float64
	priceOf := map[string]float64{}
	for _, name := range names {
		priceOf[name] = s.prices.PriceOf(name)
		totalValue += quantities[name] * priceOf[name]
	}

	plan := models.RebalancePlan{TotalValue: totalValue}
	for _, name := range names {
		line := models.RebalanceLine{
			Instrument:   name,
			Quantity:     quantities[name],
			Price:        priceOf[name],
			TargetWeight: targetWeightOf(targets, name),
		}
		line.Value = line.Quantity * line.Price
		if totalValue > 0 {
			line.CurrentWeight = line.Value / totalValue * 100
		}
		line.TargetQuantity = targetQuantity(totalValue, line.TargetWeight, line.Price)
		line.Deviation = line.Quantity - line.TargetQuantity
		plan.Lines = append(plan.Lines, line)
	}
	return plan
}

// targetWeightOf resolves an instrument's target weight; Cash receives the
// residual up to 100.
func targetWeightOf(targets map[string]float64, instrument string) float64 {
	if instrument != models.CashInstrument {
		return targets[instrument]
	}
	residual := 100.0
	for name, weight := range targets {
		if name != models.CashInstrument {
			residual -= weight
		}
	}
	return residual
}

// targetQuantity is round(totalValue * targetWeight% / price), 0 when the
// price is unknown.
func targetQuantity(totalValue, targetWeight, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Round(totalValue * targetWeight / 100 / price)
}
