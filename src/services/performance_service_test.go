package services

import (
	"testing"

	"github.com/Hamza-Alami/vertexcp-sub000/src/model"
	"github.com/Hamza-Alami/vertexcp-sub000/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPerformance(t *testing.T, client models.Client, portfolioValue, index float64) (*PerformanceService, int64) {
	t.Helper()
	db := newTestDB(t)
	prices := stubPriceService{prices: map[string]float64{"PORT": 1}, index: index}
	ledger := NewLedgerService(db, prices)
	service := NewPerformanceService(db, ledger, prices)

	// Hold the whole portfolio value as a single unit-priced position so the
	// current value is exactly portfolioValue.
	clientID := newTestClient(t, db, client, 0)
	require.NoError(t, model.UpsertPosition(db, clientID, "PORT", portfolioValue, 1))
	return service, clientID
}

func TestLatestReportSurperformanceBilling(t *testing.T) {
	service, clientID := setupPerformance(t,
		models.Client{Name: "Sur", ManagementFeeRate: 20, BillSurperformance: true},
		110000, 10500)

	_, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 100000, MasiStartValue: 10000,
	})
	require.NoError(t, err)

	report, err := service.LatestReport(clientID)
	require.NoError(t, err)

	assert.InDelta(t, 10, report.PortfolioReturnPct, 1e-9)
	assert.InDelta(t, 5, report.IndexReturnPct, 1e-9)
	assert.InDelta(t, 5, report.ExcessReturnPct, 1e-9)
	assert.InDelta(t, 5000, report.ExcessReturnAbs, 1e-9)
	assert.InDelta(t, 5000, report.FeeBase, 1e-9)
	assert.InDelta(t, 1000, report.ManagementFee, 1e-9)
}

func TestLatestReportAbsoluteGainBilling(t *testing.T) {
	service, clientID := setupPerformance(t,
		models.Client{Name: "Abs", ManagementFeeRate: 10, BillSurperformance: false},
		110000, 10500)

	_, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 100000, MasiStartValue: 10000,
	})
	require.NoError(t, err)

	report, err := service.LatestReport(clientID)
	require.NoError(t, err)
	assert.InDelta(t, 10000, report.FeeBase, 1e-9)
	assert.InDelta(t, 1000, report.ManagementFee, 1e-9)
}

func TestReportUnderperformanceFeeBaseFloorsAtZero(t *testing.T) {
	service, clientID := setupPerformance(t,
		models.Client{Name: "Sous", ManagementFeeRate: 20, BillSurperformance: true},
		102000, 11000) // portfolio +2%, index +10%

	_, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 100000, MasiStartValue: 10000,
	})
	require.NoError(t, err)

	report, err := service.LatestReport(clientID)
	require.NoError(t, err)
	assert.Less(t, report.ExcessReturnPct, 0.0)
	assert.Zero(t, report.FeeBase)
	assert.Zero(t, report.ManagementFee)
}

func TestReportZeroStartValuesYieldZeroReturns(t *testing.T) {
	service, clientID := setupPerformance(t,
		models.Client{Name: "Zero", ManagementFeeRate: 20},
		50000, 10000)

	_, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 0, MasiStartValue: 0,
	})
	require.NoError(t, err)

	report, err := service.LatestReport(clientID)
	require.NoError(t, err)
	assert.Zero(t, report.PortfolioReturnPct)
	assert.Zero(t, report.IndexReturnPct)
	assert.Zero(t, report.ExcessReturnAbs)
}

func TestLatestReportPicksMaxStartDate(t *testing.T) {
	service, clientID := setupPerformance(t,
		models.Client{Name: "Dates", ManagementFeeRate: 20},
		110000, 10500)

	_, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2025-01-01", StartValue: 80000, MasiStartValue: 9000,
	})
	require.NoError(t, err)
	latest, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 100000, MasiStartValue: 10000,
	})
	require.NoError(t, err)

	report, err := service.LatestReport(clientID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, report.PeriodID)
	assert.InDelta(t, 100000, report.StartValue, 1e-9)
}

func TestPeriodLifecycle(t *testing.T) {
	service, clientID := setupPerformance(t, models.Client{Name: "Cycle"}, 1000, 100)

	_, err := service.CreatePeriod(models.PerformancePeriod{ClientID: clientID})
	assert.ErrorIs(t, err, ErrValidation) // missing start date

	_, err = service.CreatePeriod(models.PerformancePeriod{ClientID: 999, StartDate: "2026-01-01"})
	assert.ErrorIs(t, err, ErrValidation) // unknown client

	period, err := service.CreatePeriod(models.PerformancePeriod{
		ClientID: clientID, StartDate: "2026-01-01", StartValue: 1000, MasiStartValue: 100,
	})
	require.NoError(t, err)

	period.StartValue = 2000
	require.NoError(t, service.UpdatePeriod(period))

	periods, err := service.ListPeriods(clientID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.InDelta(t, 2000, periods[0].StartValue, 1e-9)

	require.NoError(t, service.DeletePeriod(period.ID))
	assert.ErrorIs(t, service.DeletePeriod(period.ID), ErrNotFound)

	_, err = service.LatestReport(clientID)
	assert.ErrorIs(t, err, ErrNotFound)
}
