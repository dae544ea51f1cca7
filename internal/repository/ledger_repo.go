package repository

import (
	"context"
	"errors"
	"time"

	"salonledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementFilter narrows a signed-sum query over the ledger. Empty slices and nil
// bounds mean "no restriction". Bounds are inclusive.
type MovementFilter struct {
	AccountIDs []uuid.UUID
	Methods    []model.PaymentMethod
	Sources    []model.SourceType
	From       *time.Time
	To         *time.Time
}

// LedgerRepository persists accounts and their append-only movements.
// Write methods take an optional tx; nil means "use the repository's connection".
type LedgerRepository interface {
	CreateAccount(ctx context.Context, a *model.Account) error
	FindAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Account, error)
	// LockAccount loads the account with SELECT ... FOR UPDATE.
	LockAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Account, error)
	ListAccounts(ctx context.Context, onlyActive bool) ([]model.Account, error)
	UpdateAccount(ctx context.Context, tx *gorm.DB, a *model.Account) error
	DeleteAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	CreateMovement(ctx context.Context, tx *gorm.DB, m *model.Movement) error
	FindMovement(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Movement, error)
	// LastMovement returns nil, nil when the account has no movements yet.
	LastMovement(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*model.Movement, error)
	// FindReversal returns nil, nil when movementID was never reversed.
	FindReversal(ctx context.Context, tx *gorm.DB, movementID uuid.UUID) (*model.Movement, error)
	CountMovements(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int64, error)
	ListMovements(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]model.Movement, error)
	// SumSigned returns Σ(+amount for IN, -amount for OUT) over the filtered movements.
	SumSigned(ctx context.Context, tx *gorm.DB, f MovementFilter) (decimal.Decimal, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) CreateAccount(ctx context.Context, a *model.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ledgerRepo) FindAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := conn(ctx, r.db, tx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *ledgerRepo) LockAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *ledgerRepo) ListAccounts(ctx context.Context, onlyActive bool) ([]model.Account, error) {
	var accounts []model.Account
	q := r.db.WithContext(ctx).Order("name ASC")
	if onlyActive {
		q = q.Where("active = true")
	}
	err := q.Find(&accounts).Error
	return accounts, err
}

func (r *ledgerRepo) UpdateAccount(ctx context.Context, tx *gorm.DB, a *model.Account) error {
	return conn(ctx, r.db, tx).Save(a).Error
}

func (r *ledgerRepo) DeleteAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&model.Account{}, "id = ?", id).Error
}

func (r *ledgerRepo) CreateMovement(ctx context.Context, tx *gorm.DB, m *model.Movement) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *ledgerRepo) FindMovement(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Movement, error) {
	var m model.Movement
	err := conn(ctx, r.db, tx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *ledgerRepo) LastMovement(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (*model.Movement, error) {
	var m model.Movement
	err := conn(ctx, r.db, tx).
		Where("account_id = ?", accountID).
		Order("occurred_at DESC, created_at DESC").
		Limit(1).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ledgerRepo) FindReversal(ctx context.Context, tx *gorm.DB, movementID uuid.UUID) (*model.Movement, error) {
	var m model.Movement
	err := conn(ctx, r.db, tx).Where("reversal_of = ?", movementID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ledgerRepo) CountMovements(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.Movement{}).Where("account_id = ?", accountID).Count(&n).Error
	return n, err
}

func (r *ledgerRepo) ListMovements(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]model.Movement, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if from != nil {
		q = q.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("occurred_at <= ?", *to)
	}
	var movs []model.Movement
	err := q.Order("occurred_at ASC, created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *ledgerRepo) SumSigned(ctx context.Context, tx *gorm.DB, f MovementFilter) (decimal.Decimal, error) {
	q := conn(ctx, r.db, tx).Model(&model.Movement{})
	if len(f.AccountIDs) > 0 {
		q = q.Where("account_id IN ?", f.AccountIDs)
	}
	if len(f.Methods) > 0 {
		q = q.Where("method IN ?", f.Methods)
	}
	if len(f.Sources) > 0 {
		q = q.Where("source_type IN ?", f.Sources)
	}
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at <= ?", *f.To)
	}

	var res struct{ Total decimal.Decimal }
	err := q.Select("COALESCE(SUM(CASE WHEN direction = 'IN' THEN amount ELSE -amount END), 0) AS total").
		Scan(&res).Error
	return res.Total, err
}

// conn picks the transaction when one is in flight.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
