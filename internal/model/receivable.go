package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleInstallment is one scheduled portion of a sale total.
// A batch for one sale always sums to the sale total (±0.01).
type SaleInstallment struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_installment_sale_number"`
	Number         int               `gorm:"not null;uniqueIndex:idx_installment_sale_number"`
	Amount         decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	DueDate        time.Time         `gorm:"type:date;not null;index"`
	Status         InstallmentStatus `gorm:"type:varchar(10);not null;default:'PENDING'"`
	ReceivedAt     *time.Time        `gorm:"type:date"`
	ReceivedAmount *decimal.Decimal  `gorm:"type:decimal(12,2)"`
	BankAccountID  *uuid.UUID        `gorm:"type:uuid"`
	MovementID     *uuid.UUID        `gorm:"type:uuid"`
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccountPayable is a pending obligation to a supplier or expense.
type AccountPayable struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Description string          `gorm:"not null"`
	Category    string          `gorm:"not null;default:''"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate     time.Time       `gorm:"type:date;not null;index"`
	Status      PayableStatus   `gorm:"type:varchar(10);not null;default:'PENDING'"`
	AccountID   *uuid.UUID      `gorm:"type:uuid"`
	PaidAt      *time.Time      `gorm:"type:timestamptz"`
	MovementID  *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecurringExpense is a template that only becomes money once realized as a
// payable and paid; the projection expands it into dated occurrences.
type RecurringExpense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Frequency   Frequency       `gorm:"type:varchar(10);not null"`
	StartDate   time.Time       `gorm:"type:date;not null"`
	EndDate     *time.Time      `gorm:"type:date"`
	Category    string          `gorm:"not null;default:''"`
	AccountID   *uuid.UUID      `gorm:"type:uuid"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
