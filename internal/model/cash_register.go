package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is one working shift bound to a single account.
// Status only ever moves OPEN → CLOSED. At most one OPEN row per account is
// enforced by the partial unique index ux_cash_registers_open_account.
type CashRegister struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpenedBy       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpenedAt       time.Time       `gorm:"type:timestamptz;not null"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         RegisterStatus  `gorm:"type:varchar(10);not null;default:'OPEN'"`
	ClosedBy       *uuid.UUID      `gorm:"type:uuid"`
	ClosedAt       *time.Time      `gorm:"type:timestamptz"`
	// Closing figures, computed once by the reconciliation step.
	ExpectedBalance *decimal.Decimal     `gorm:"type:decimal(12,2)"`
	ActualBalance   *decimal.Decimal     `gorm:"type:decimal(12,2)"`
	Difference      *decimal.Decimal     `gorm:"type:decimal(12,2)"`
	Severity        *DiscrepancySeverity `gorm:"type:varchar(10)"`
	Notes           *string
	ClosingNotes    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Adjustments []CashRegisterMovement `gorm:"foreignKey:RegisterID"`
	Opener      *Operator              `gorm:"foreignKey:OpenedBy"`
	Closer      *Operator              `gorm:"foreignKey:ClosedBy"`
}

// CashRegisterMovement is a sangria or suprimento recorded against an OPEN register.
// LedgerMovementID points at the account Movement written in the same transaction.
type CashRegisterMovement struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type             AdjustmentType  `gorm:"type:varchar(12);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason           string          `gorm:"not null"`
	CreatedBy        uuid.UUID       `gorm:"type:uuid;not null"`
	LedgerMovementID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt        time.Time       `gorm:"type:timestamptz;not null"`
}

// Signed returns +amount for suprimento and -amount for sangria.
func (m CashRegisterMovement) Signed() decimal.Decimal {
	if m.Type == AdjustmentSangria {
		return m.Amount.Neg()
	}
	return m.Amount
}
