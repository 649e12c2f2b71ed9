package models

import "time"

// CashInstrument is the synthetic instrument holding the uninvested balance.
// Its price is pinned at 1.0 and it is never removed.
const CashInstrument = "Cash"

// Instrument represents a tradable instrument and its market metadata.
type Instrument struct {
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	ShareCount  float64   `json:"share_count"`
	FloatFactor float64   `json:"float_factor"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Client is an advisory account with its billing parameters.
type Client struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	CommissionRate     float64 `json:"commission_rate"`      // percent per trade
	TaxRate            float64 `json:"tax_rate"`             // percent on realized gains, 0 for PEA accounts
	ManagementFeeRate  float64 `json:"management_fee_rate"`  // percent on the fee base
	IsPEA              bool    `json:"is_pea"`               // tax-exempt account
	BillSurperformance bool    `json:"bill_surperformance"`  // fee base is excess return instead of absolute gain
	StrategyID         *int64  `json:"strategy_id,omitempty"`
	Version            int64   `json:"version"` // optimistic concurrency counter, bumped by every ledger mutation
}

// Position is a (client, instrument) holding. Quantity is never negative in
// committed state; VWAP is the cost-basis average, updated only by buys.
type Position struct {
	ID         int64   `json:"id"`
	ClientID   int64   `json:"client_id"`
	Instrument string  `json:"instrument"`
	Quantity   float64 `json:"quantity"`
	VWAP       float64 `json:"vwap"`
	Price      float64 `json:"price,omitempty"`     // last known market price
	Valuation  float64 `json:"valuation,omitempty"` // quantity * price
}

// PositionSnapshot is a position entry as captured in a transaction's
// before-state snapshot.
type PositionSnapshot struct {
	Quantity float64 `json:"quantity"`
	VWAP     float64 `json:"vwap"`
}

// Snapshot maps instrument name to its pre-transaction state for one client.
type Snapshot map[string]PositionSnapshot

// Transaction is an executed trade. Committed transactions are immutable;
// deletion only sets the soft-delete flag and restores the snapshot.
type Transaction struct {
	ID             int64      `json:"id"`
	ClientID       int64      `json:"client_id"`
	Instrument     string     `json:"instrument"`
	Side           string     `json:"side"` // "BUY" or "SELL"
	Price          float64    `json:"price"`
	Quantity       float64    `json:"quantity"`
	GrossAmount    float64    `json:"gross_amount"`
	Fees           float64    `json:"fees"`
	Tax            float64    `json:"tax"`
	NetAmount      float64    `json:"net_amount"`
	ExecutedAt     time.Time  `json:"executed_at"`
	SnapshotBefore Snapshot   `json:"snapshot_before,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Transaction sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// PerformancePeriod records a client's portfolio and benchmark level at the
// start of a billing period. Created explicitly by an operator.
type PerformancePeriod struct {
	ID             int64   `json:"id"`
	ClientID       int64   `json:"client_id"`
	StartDate      string  `json:"start_date"` // YYYY-MM-DD
	StartValue     float64 `json:"start_value"`
	MasiStartValue float64 `json:"masi_start_value"`
}

// Strategy maps instrument names to target weight percentages. The sum of
// explicit weights must not exceed 100; the remainder is implicitly Cash.
type Strategy struct {
	ID      int64              `json:"id"`
	Name    string             `json:"name"`
	Targets map[string]float64 `json:"targets"`
}
