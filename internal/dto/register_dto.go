package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	AccountID      string          `json:"account_id"      validate:"required,uuid"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Notes          *string         `json:"notes"           validate:"omitempty,max=500"`
}

// AdjustmentRequest is validated by the service only: a closed register must
// answer invalid_state whatever the amount or reason.
type AdjustmentRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// CountedBreakdown is the physical count per method. Omitted methods were not counted.
type CountedBreakdown struct {
	Cash     *decimal.Decimal `json:"cash"`
	Pix      *decimal.Decimal `json:"pix"`
	Card     *decimal.Decimal `json:"card"`
	Transfer *decimal.Decimal `json:"transfer"`
	Wallet   *decimal.Decimal `json:"wallet"`
}

type CloseRegisterRequest struct {
	Breakdown CountedBreakdown `json:"breakdown"`
	Notes     *string          `json:"notes" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegisterResponse struct {
	ID              string           `json:"id"`
	AccountID       string           `json:"account_id"`
	OpenedBy        string           `json:"opened_by"`
	OpenedByName    string           `json:"opened_by_name,omitempty"`
	OpenedAt        string           `json:"opened_at"`
	InitialBalance  decimal.Decimal  `json:"initial_balance"`
	Status          string           `json:"status"`
	ClosedBy        *string          `json:"closed_by"`
	ClosedByName    string           `json:"closed_by_name,omitempty"`
	ClosedAt        *string          `json:"closed_at"`
	ExpectedBalance *decimal.Decimal `json:"expected_balance"`
	ActualBalance   *decimal.Decimal `json:"actual_balance"`
	Difference      *decimal.Decimal `json:"difference"`
	Severity        *string          `json:"severity"` // NONE | WARNING | CRITICAL
	Notes           *string          `json:"notes"`
	ClosingNotes    *string          `json:"closing_notes"`
}

type AdjustmentResponse struct {
	ID               string          `json:"id"`
	RegisterID       string          `json:"register_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason"`
	CreatedBy        string          `json:"created_by"`
	LedgerMovementID *string         `json:"ledger_movement_id"`
	CreatedAt        string          `json:"created_at"`
}

// MethodBreakdownResponse: only cash is verifiable; other methods are reported
// against an expected value of zero.
type MethodBreakdownResponse struct {
	Method     string          `json:"method"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Verifiable bool            `json:"verifiable"`
}

type CloseRegisterResponse struct {
	Register        RegisterResponse          `json:"register"`
	ExpectedBalance decimal.Decimal           `json:"expected_balance"`
	ActualBalance   decimal.Decimal           `json:"actual_balance"`
	TotalDifference decimal.Decimal           `json:"total_difference"`
	HasDiscrepancy  bool                      `json:"has_discrepancy"`
	Severity        string                    `json:"severity"`
	Breakdown       []MethodBreakdownResponse `json:"breakdown"`
}

type RegisterStatsResponse struct {
	Count                int64           `json:"count"`
	TotalInitialBalance  decimal.Decimal `json:"total_initial_balance"`
	TotalExpectedBalance decimal.Decimal `json:"total_expected_balance"`
	TotalActualBalance   decimal.Decimal `json:"total_actual_balance"`
	TotalSurplus         decimal.Decimal `json:"total_surplus"`
	TotalShortage        decimal.Decimal `json:"total_shortage"`
}

type RegisterHistoryResponse struct {
	Data  []RegisterResponse    `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Stats RegisterStatsResponse `json:"stats"`
}

type RegisterReportResponse struct {
	Register        RegisterResponse     `json:"register"`
	Adjustments     []AdjustmentResponse `json:"adjustments"`
	CashSales       decimal.Decimal      `json:"cash_sales"`
	Suprimentos     decimal.Decimal      `json:"suprimentos"`
	Sangrias        decimal.Decimal      `json:"sangrias"`
	ExpectedBalance decimal.Decimal      `json:"expected_balance"`
}
