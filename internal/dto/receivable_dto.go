package dto

import "github.com/shopspring/decimal"

// Dates travel as "YYYY-MM-DD".

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InstallmentPlanRequest struct {
	Number  int             `json:"number"   validate:"min=1"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// CreateInstallmentsRequest either lists the installments explicitly or asks
// for Count even monthly installments starting at FirstDueDate.
type CreateInstallmentsRequest struct {
	Total        decimal.Decimal          `json:"total"`
	Count        int                      `json:"count"          validate:"omitempty,min=1,max=120"`
	FirstDueDate string                   `json:"first_due_date" validate:"omitempty,datetime=2006-01-02"`
	Installments []InstallmentPlanRequest `json:"installments"   validate:"omitempty,dive"`
}

type RegisterReceiptRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt string          `json:"received_at" validate:"required,datetime=2006-01-02"`
	AccountID  string          `json:"account_id"  validate:"required,uuid"`
	Method     string          `json:"method"      validate:"required,oneof=cash pix card transfer wallet"`
	Notes      *string         `json:"notes"       validate:"omitempty,max=500"`
}

type CreatePayableRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Category    string          `json:"category"    validate:"max=80"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date"    validate:"required,datetime=2006-01-02"`
	AccountID   *string         `json:"account_id"  validate:"omitempty,uuid"`
}

type PayPayableRequest struct {
	AccountID *string `json:"account_id" validate:"omitempty,uuid"`
	Method    string  `json:"method"     validate:"required,oneof=cash pix card transfer wallet"`
}

type CreateRecurringExpenseRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"   validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	StartDate   string          `json:"start_date"  validate:"required,datetime=2006-01-02"`
	EndDate     *string         `json:"end_date"    validate:"omitempty,datetime=2006-01-02"`
	Category    string          `json:"category"    validate:"max=80"`
	AccountID   *string         `json:"account_id"  validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InstallmentResponse struct {
	ID             string           `json:"id"`
	SaleID         string           `json:"sale_id"`
	Number         int              `json:"number"`
	Amount         decimal.Decimal  `json:"amount"`
	DueDate        string           `json:"due_date"`
	Status         string           `json:"status"`
	ReceivedAt     *string          `json:"received_at"`
	ReceivedAmount *decimal.Decimal `json:"received_amount"`
	BankAccountID  *string          `json:"bank_account_id"`
	MovementID     *string          `json:"movement_id"`
	Notes          *string          `json:"notes"`
}

type CreateInstallmentsResponse struct {
	SaleID         string                `json:"sale_id"`
	InstallmentIDs []string              `json:"installment_ids"`
	Installments   []InstallmentResponse `json:"installments,omitempty"`
}

type ReceiptResponse struct {
	InstallmentID string `json:"installment_id"`
	MovementID    string `json:"movement_id"`
}

type PayableResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date"`
	Status      string          `json:"status"`
	AccountID   *string         `json:"account_id"`
	PaidAt      *string         `json:"paid_at"`
	MovementID  *string         `json:"movement_id"`
}

type RecurringExpenseResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"`
	StartDate   string          `json:"start_date"`
	EndDate     *string         `json:"end_date"`
	Category    string          `json:"category"`
	AccountID   *string         `json:"account_id"`
	Active      bool            `json:"active"`
}
