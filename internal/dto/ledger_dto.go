package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateAccountRequest struct {
	Name           string          `json:"name"            validate:"required,min=1,max=120"`
	Type           string          `json:"type"            validate:"required,oneof=BANK CARD WALLET CASH"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type UpdateInitialBalanceRequest struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AppendMovementRequest carries no id, timestamp or balance: the ledger assigns them.
// Amount sign is checked by the service so it can answer invalid_amount.
type AppendMovementRequest struct {
	AccountID   string          `json:"account_id"    validate:"required,uuid"`
	Direction   string          `json:"direction"     validate:"required,oneof=IN OUT"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"        validate:"required,oneof=cash pix card transfer wallet"`
	SourceType  string          `json:"source_type"   validate:"required,oneof=sale refund purchase manual transfer"`
	SourceRefID *string         `json:"source_ref_id" validate:"omitempty,uuid"`
	Description string          `json:"description"   validate:"max=255"`
}

type ReverseMovementRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type TransferRequest struct {
	FromAccountID string          `json:"from_account_id" validate:"required,uuid"`
	ToAccountID   string          `json:"to_account_id"   validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"          validate:"omitempty,oneof=cash pix card transfer wallet"`
	Description   string          `json:"description"     validate:"max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AccountResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Active         bool            `json:"active"`
	CreatedAt      string          `json:"created_at"`
}

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      string          `json:"as_of"`
}

type MovementResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	SourceType   string          `json:"source_type"`
	SourceRefID  *string         `json:"source_ref_id"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	ReversalOf   *string         `json:"reversal_of"`
	OccurredAt   string          `json:"occurred_at"`
}

type TransferResponse struct {
	TransferID string           `json:"transfer_id"`
	Out        MovementResponse `json:"out"`
	In         MovementResponse `json:"in"`
}

type DeactivateAccountResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"` // false: kept but deactivated because it has movements
}
