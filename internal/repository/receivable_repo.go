package repository

import (
	"context"
	"time"

	"salonledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReceivableRepository interface {
	CreateInstallments(ctx context.Context, tx *gorm.DB, items []model.SaleInstallment) error
	CountBySale(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) (int64, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleInstallment, error)
	// LockInstallment loads the installment with SELECT ... FOR UPDATE.
	LockInstallment(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SaleInstallment, error)
	UpdateInstallment(ctx context.Context, tx *gorm.DB, i *model.SaleInstallment) error
	// ListPending returns PENDING installments due within [from, to], by due date.
	ListPending(ctx context.Context, from, to time.Time) ([]model.SaleInstallment, error)
	DB() *gorm.DB
}

type receivableRepo struct{ db *gorm.DB }

func NewReceivableRepository(db *gorm.DB) ReceivableRepository { return &receivableRepo{db: db} }

func (r *receivableRepo) DB() *gorm.DB { return r.db }

func (r *receivableRepo) CreateInstallments(ctx context.Context, tx *gorm.DB, items []model.SaleInstallment) error {
	if len(items) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Create(&items).Error
}

func (r *receivableRepo) CountBySale(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.SaleInstallment{}).Where("sale_id = ?", saleID).Count(&n).Error
	return n, err
}

func (r *receivableRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	var items []model.SaleInstallment
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("number ASC").Find(&items).Error
	return items, err
}

func (r *receivableRepo) LockInstallment(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SaleInstallment, error) {
	var i model.SaleInstallment
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *receivableRepo) UpdateInstallment(ctx context.Context, tx *gorm.DB, i *model.SaleInstallment) error {
	return conn(ctx, r.db, tx).Save(i).Error
}

func (r *receivableRepo) ListPending(ctx context.Context, from, to time.Time) ([]model.SaleInstallment, error) {
	var items []model.SaleInstallment
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date BETWEEN ? AND ?", model.InstallmentPending, from, to).
		Order("due_date ASC, number ASC").
		Find(&items).Error
	return items, err
}
