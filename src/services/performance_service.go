package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
)

// PerformanceService measures a client's portfolio against the benchmark
// index over a recorded performance period and derives the management fee.
// Pure projection: reports are computed on demand and never persisted.
type PerformanceService struct {
	db     *sql.DB
	ledger *LedgerService
	prices PriceService
}

func NewPerformanceService(db *sql.DB, ledger *LedgerService, prices PriceService) *PerformanceService {
	return &PerformanceService{db: db, ledger: ledger, prices: prices}
}

// LatestReport computes the report for the client's most recent period.
func (s *PerformanceService) LatestReport(clientID int64) (models.PerformanceReport, error) {
	period, err := model.GetLatestPerformancePeriod(s.db, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PerformanceReport{}, fmt.Errorf("%w: client %d has no performance period", ErrNotFound, clientID)
		}
		return models.PerformanceReport{}, err
	}
	return s.reportForPeriod(period)
}

// ReportForPeriod computes the report for one specific period.
func (s *PerformanceService) ReportForPeriod(periodID int64) (models.PerformanceReport, error) {
	period, err := model.GetPerformancePeriod(s.db, periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PerformanceReport{}, fmt.Errorf("%w: performance period %d", ErrNotFound, periodID)
		}
		return models.PerformanceReport{}, err
	}
	return s.reportForPeriod(period)
}

func (s *PerformanceService) reportForPeriod(period models.PerformancePeriod) (models.PerformanceReport, error) {
	client, err := model.GetClientByID(s.db, period.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PerformanceReport{}, fmt.Errorf("%w: client %d", ErrNotFound, period.ClientID)
		}
		return models.PerformanceReport{}, err
	}

	_, currentValue, err := s.ledger.PositionsWithValue(period.ClientID)
	if err != nil {
		return models.PerformanceReport{}, err
	}
	currentIndex := s.prices.IndexLevel()

	report := models.PerformanceReport{
		ClientID:     period.ClientID,
		PeriodID:     period.ID,
		StartDate:    period.StartDate,
		StartValue:   period.StartValue,
		CurrentValue: currentValue,
		StartIndex:   period.MasiStartValue,
		CurrentIndex: currentIndex,
	}

	if period.StartValue > 0 {
		report.PortfolioReturnPct = (currentValue - period.StartValue) / period.StartValue * 100
	}
	if period.MasiStartValue > 0 {
		report.IndexReturnPct = (currentIndex - period.MasiStartValue) / period.MasiStartValue * 100
	}
	report.ExcessReturnPct = report.PortfolioReturnPct - report.IndexReturnPct
	report.ExcessReturnAbs = report.ExcessReturnPct / 100 * period.StartValue

	if client.BillSurperformance {
		report.FeeBase = math.Max(0, report.ExcessReturnAbs)
	} else {
		report.FeeBase = math.Max(0, currentValue-period.StartValue)
	}
	report.ManagementFee = report.FeeBase * client.ManagementFeeRate / 100

	return report, nil
}

// CreatePeriod records the start of a new performance period. Periods are
// operator-created only, never derived automatically.
func (s *PerformanceService) CreatePeriod(p models.PerformancePeriod) (models.PerformancePeriod, error) {
	if p.StartDate == "" {
		return models.PerformancePeriod{}, fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if _, err := model.GetClientByID(s.db, p.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PerformancePeriod{}, fmt.Errorf("%w: unknown client %d", ErrValidation, p.ClientID)
		}
		return models.PerformancePeriod{}, err
	}
	id, err := model.CreatePerformancePeriod(s.db, p)
	if err != nil {
		return models.PerformancePeriod{}, err
	}
	p.ID = id
	return p, nil
}

// UpdatePeriod edits a period's three scalar fields.
func (s *PerformanceService) UpdatePeriod(p models.PerformancePeriod) error {
	if p.StartDate == "" {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	n, err := model.UpdatePerformancePeriod(s.db, p)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: performance period %d", ErrNotFound, p.ID)
	}
	return nil
}

// DeletePeriod removes a period.
func (s *PerformanceService) DeletePeriod(id int64) error {
	n, err := model.DeletePerformancePeriod(s.db, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: performance period %d", ErrNotFound, id)
	}
	return nil
}

// ListPeriods returns a client's periods, newest first.
func (s *PerformanceService) ListPeriods(clientID int64) ([]models.PerformancePeriod, error) {
	return model.ListPerformancePeriods(s.db, clientID)
}
