package dto

import "github.com/shopspring/decimal"

type FlowResponse struct {
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	Confidence     string          `json:"confidence"` // HIGH | MEDIUM | LOW
	Source         string          `json:"source"`     // receivable | payable | recurring
	RefID          string          `json:"ref_id"`
	Description    string          `json:"description"`
}

type ProjectionDayResponse struct {
	Date            string          `json:"date"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	Inflow          decimal.Decimal `json:"inflow"`
	Outflow         decimal.Decimal `json:"outflow"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
	MinimumRequired decimal.Decimal `json:"minimum_required"`
	BelowMinimum    bool            `json:"below_minimum"`
}

type ProjectionSummaryResponse struct {
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	ClosingBalance    decimal.Decimal `json:"closing_balance"`
	TotalInflow       decimal.Decimal `json:"total_inflow"`
	TotalOutflow      decimal.Decimal `json:"total_outflow"`
	NetChange         decimal.Decimal `json:"net_change"`
	LowestBalance     decimal.Decimal `json:"lowest_balance"`
	LowestBalanceDate string          `json:"lowest_balance_date"`
	DaysBelowMinimum  int             `json:"days_below_minimum"`
	FirstBreachDate   *string         `json:"first_breach_date"`
}

type ProjectionResponse struct {
	StartDate        string                    `json:"start_date"`
	EndDate          string                    `json:"end_date"`
	Scenario         string                    `json:"scenario"`
	ConfidenceFactor decimal.Decimal           `json:"confidence_factor"`
	Inflows          []FlowResponse            `json:"inflows"`
	Outflows         []FlowResponse            `json:"outflows"`
	Days             []ProjectionDayResponse   `json:"days"`
	Summary          ProjectionSummaryResponse `json:"summary"`
}
