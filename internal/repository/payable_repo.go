package repository

import (
	"context"
	"time"

	"salonledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayableRepository stores accounts payable and recurring expense templates.
type PayableRepository interface {
	CreatePayable(ctx context.Context, p *model.AccountPayable) error
	LockPayable(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.AccountPayable, error)
	UpdatePayable(ctx context.Context, tx *gorm.DB, p *model.AccountPayable) error
	ListPendingPayables(ctx context.Context, from, to time.Time) ([]model.AccountPayable, error)

	CreateRecurring(ctx context.Context, e *model.RecurringExpense) error
	FindRecurring(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error)
	UpdateRecurring(ctx context.Context, e *model.RecurringExpense) error
	ListActiveRecurring(ctx context.Context) ([]model.RecurringExpense, error)
	DB() *gorm.DB
}

type payableRepo struct{ db *gorm.DB }

func NewPayableRepository(db *gorm.DB) PayableRepository { return &payableRepo{db: db} }

func (r *payableRepo) DB() *gorm.DB { return r.db }

func (r *payableRepo) CreatePayable(ctx context.Context, p *model.AccountPayable) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *payableRepo) LockPayable(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.AccountPayable, error) {
	var p model.AccountPayable
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *payableRepo) UpdatePayable(ctx context.Context, tx *gorm.DB, p *model.AccountPayable) error {
	return conn(ctx, r.db, tx).Save(p).Error
}

func (r *payableRepo) ListPendingPayables(ctx context.Context, from, to time.Time) ([]model.AccountPayable, error) {
	var items []model.AccountPayable
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date BETWEEN ? AND ?", model.PayablePending, from, to).
		Order("due_date ASC").
		Find(&items).Error
	return items, err
}

func (r *payableRepo) CreateRecurring(ctx context.Context, e *model.RecurringExpense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *payableRepo) FindRecurring(ctx context.Context, id uuid.UUID) (*model.RecurringExpense, error) {
	var e model.RecurringExpense
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *payableRepo) UpdateRecurring(ctx context.Context, e *model.RecurringExpense) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *payableRepo) ListActiveRecurring(ctx context.Context) ([]model.RecurringExpense, error) {
	var items []model.RecurringExpense
	err := r.db.WithContext(ctx).Where("active = true").Order("start_date ASC").Find(&items).Error
	return items, err
}
