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

// RegisterScope selects the register context an operator works in.
type RegisterScope struct {
	AccountID *uuid.UUID
	OpenedBy  *uuid.UUID
}

// RegisterHistoryFilter defines filters for listing registers. StartDate/EndDate
// bound opened_at (inclusive).
type RegisterHistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	OpenedBy  *uuid.UUID
	Status    *model.RegisterStatus
	Page      int
	Limit     int
}

// RegisterStats aggregates closing figures over every register matching a filter.
type RegisterStats struct {
	Count                int64
	TotalInitialBalance  decimal.Decimal
	TotalExpectedBalance decimal.Decimal
	TotalActualBalance   decimal.Decimal
	TotalSurplus         decimal.Decimal
	TotalShortage        decimal.Decimal
}

type CashRegisterRepository interface {
	CreateRegister(ctx context.Context, tx *gorm.DB, r *model.CashRegister) error
	// FindOpen returns nil, nil when no OPEN register matches the scope.
	FindOpen(ctx context.Context, tx *gorm.DB, scope RegisterScope) (*model.CashRegister, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	// LockByID loads the register with SELECT ... FOR UPDATE.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error)
	UpdateRegister(ctx context.Context, tx *gorm.DB, r *model.CashRegister) error
	CreateAdjustment(ctx context.Context, tx *gorm.DB, m *model.CashRegisterMovement) error
	ListAdjustments(ctx context.Context, tx *gorm.DB, registerID uuid.UUID) ([]model.CashRegisterMovement, error)
	ListHistory(ctx context.Context, f RegisterHistoryFilter) ([]model.CashRegister, int64, error)
	HistoryStats(ctx context.Context, f RegisterHistoryFilter) (RegisterStats, error)
	DB() *gorm.DB
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository {
	return &cashRegisterRepo{db: db}
}

func (r *cashRegisterRepo) DB() *gorm.DB { return r.db }

func (r *cashRegisterRepo) CreateRegister(ctx context.Context, tx *gorm.DB, reg *model.CashRegister) error {
	return conn(ctx, r.db, tx).Create(reg).Error
}

func (r *cashRegisterRepo) FindOpen(ctx context.Context, tx *gorm.DB, scope RegisterScope) (*model.CashRegister, error) {
	q := conn(ctx, r.db, tx).Where("status = ?", model.RegisterOpen)
	if scope.AccountID != nil {
		q = q.Where("account_id = ?", *scope.AccountID)
	}
	if scope.OpenedBy != nil {
		q = q.Where("opened_by = ?", *scope.OpenedBy)
	}
	var reg model.CashRegister
	err := q.Order("opened_at DESC").Take(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *cashRegisterRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Opener").
		Preload("Closer").
		First(&reg, "id = ?", id).Error
	return &reg, err
}

func (r *cashRegisterRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := conn(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", id).Error
	return &reg, err
}

func (r *cashRegisterRepo) UpdateRegister(ctx context.Context, tx *gorm.DB, reg *model.CashRegister) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(reg).Error
}

func (r *cashRegisterRepo) CreateAdjustment(ctx context.Context, tx *gorm.DB, m *model.CashRegisterMovement) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cashRegisterRepo) ListAdjustments(ctx context.Context, tx *gorm.DB, registerID uuid.UUID) ([]model.CashRegisterMovement, error) {
	var movs []model.CashRegisterMovement
	err := conn(ctx, r.db, tx).Where("register_id = ?", registerID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cashRegisterRepo) filtered(ctx context.Context, f RegisterHistoryFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.CashRegister{})
	if f.StartDate != nil {
		q = q.Where("opened_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("opened_at <= ?", *f.EndDate)
	}
	if f.OpenedBy != nil {
		q = q.Where("opened_by = ?", *f.OpenedBy)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

func (r *cashRegisterRepo) ListHistory(ctx context.Context, f RegisterHistoryFilter) ([]model.CashRegister, int64, error) {
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var regs []model.CashRegister
	err := q.Preload("Opener").Preload("Closer").
		Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&regs).Error
	return regs, total, err
}

func (r *cashRegisterRepo) HistoryStats(ctx context.Context, f RegisterHistoryFilter) (RegisterStats, error) {
	var res struct {
		Count         int64
		TotalInitial  decimal.Decimal
		TotalExpected decimal.Decimal
		TotalActual   decimal.Decimal
		TotalSurplus  decimal.Decimal
		TotalShortage decimal.Decimal
	}
	err := r.filtered(ctx, f).Select(`
		COUNT(*) AS count,
		COALESCE(SUM(initial_balance), 0) AS total_initial,
		COALESCE(SUM(expected_balance), 0) AS total_expected,
		COALESCE(SUM(actual_balance), 0) AS total_actual,
		COALESCE(SUM(CASE WHEN difference > 0 THEN difference ELSE 0 END), 0) AS total_surplus,
		COALESCE(SUM(CASE WHEN difference < 0 THEN -difference ELSE 0 END), 0) AS total_shortage`).
		Scan(&res).Error
	return RegisterStats{
		Count:                res.Count,
		TotalInitialBalance:  res.TotalInitial,
		TotalExpectedBalance: res.TotalExpected,
		TotalActualBalance:   res.TotalActual,
		TotalSurplus:         res.TotalSurplus,
		TotalShortage:        res.TotalShortage,
	}, err
}
