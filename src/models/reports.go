package models

// RebalanceLine is one instrument row of a rebalancing simulation.
// Deviation is current quantity minus target quantity: positive means the
// position is overweight (sell candidate), negative underweight (buy candidate).
type RebalanceLine struct {
	Instrument     string  `json:"instrument"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	Value          float64 `json:"value"`
	CurrentWeight  float64 `json:"current_weight"`
	TargetWeight   float64 `json:"target_weight"`
	TargetQuantity float64 `json:"target_quantity"`
	Deviation      float64 `json:"deviation"`
}

// RebalancePlan is a full rebalancing simulation for a client or a cohort
// treated as one virtual portfolio. Lines list non-Cash instruments first,
// Cash always last.
type RebalancePlan struct {
	ClientIDs  []int64         `json:"client_ids"`
	TotalValue float64         `json:"total_value"`
	Lines      []RebalanceLine `json:"lines"`
}

// ClientAdjustment is the per-client row of an instrument drill-down across a
// cohort. Adjustment is target minus current quantity (positive means buy).
// BuyingCapacity is informational only and never enforced.
type ClientAdjustment struct {
	ClientID        int64   `json:"client_id"`
	ClientName      string  `json:"client_name"`
	Quantity        float64 `json:"quantity"`
	TargetQuantity  float64 `json:"target_quantity"`
	Adjustment      float64 `json:"adjustment"`
	AdjustmentValue float64 `json:"adjustment_value"`
	Cash            float64 `json:"cash"`
	BuyingCapacity  float64 `json:"buying_capacity"`
}

// InstrumentDrilldown reports one instrument's position across a client cohort.
type InstrumentDrilldown struct {
	Instrument string             `json:"instrument"`
	Price      float64            `json:"price"`
	Clients    []ClientAdjustment `json:"clients"`
}

// PerformanceReport compares a client's portfolio against the benchmark index
// since the start of a performance period. Pure projection, never persisted.
type PerformanceReport struct {
	ClientID           int64   `json:"client_id"`
	PeriodID           int64   `json:"period_id"`
	StartDate          string  `json:"start_date"`
	StartValue         float64 `json:"start_value"`
	CurrentValue       float64 `json:"current_value"`
	PortfolioReturnPct float64 `json:"portfolio_return_pct"`
	StartIndex         float64 `json:"start_index"`
	CurrentIndex       float64 `json:"current_index"`
	IndexReturnPct     float64 `json:"index_return_pct"`
	ExcessReturnPct    float64 `json:"excess_return_pct"`
	ExcessReturnAbs    float64 `json:"excess_return_abs"`
	FeeBase            float64 `json:"fee_base"`
	ManagementFee      float64 `json:"management_fee"`
}

// CapWeight is the float-adjusted market-cap weight of one instrument.
// Informational display only; it does not drive rebalancing targets.
type CapWeight struct {
	Instrument     string  `json:"instrument"`
	Price          float64 `json:"price"`
	Capitalization float64 `json:"capitalization"`
	FloatedCap     float64 `json:"floated_cap"`
	WeightPct      float64 `json:"weight_pct"`
}
