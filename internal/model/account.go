package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is an addressable money container (bank, card, wallet or till).
// InitialBalance is frozen once the first Movement references the account.
type Account struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"not null"`
	Type           AccountType     `gorm:"type:varchar(20);not null"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Movement is an immutable ledger entry. It is never updated or deleted;
// a mistake is undone by a compensating movement that points at it via ReversalOf.
type Movement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_account_time,priority:1"`
	Direction   Direction       `gorm:"type:varchar(3);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method      PaymentMethod   `gorm:"type:varchar(20);not null"`
	SourceType  SourceType      `gorm:"type:varchar(20);not null"`
	SourceRefID *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"not null;default:''"`
	// BalanceAfter snapshots the account balance right after this movement.
	BalanceAfter decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ReversalOf   *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	OccurredAt   time.Time       `gorm:"type:timestamptz;not null;index:idx_movements_account_time,priority:2"`
	CreatedAt    time.Time
}

// Signed returns the amount with the sign implied by Direction.
func (m Movement) Signed() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}

// Operator is a staff member who opens and closes registers.
type Operator struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Email     *string   `gorm:"uniqueIndex"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
