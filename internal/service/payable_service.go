package service

import (
	"context"
	"fmt"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/model"
	"salonledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePayableInput struct {
	Description string
	Category    string
	Amount      decimal.Decimal
	DueDate     time.Time
	AccountID   *uuid.UUID
}

type PayPayableInput struct {
	PayableID uuid.UUID
	AccountID *uuid.UUID // falls back to the payable's own account
	Method    model.PaymentMethod
}

type CreateRecurringInput struct {
	Description string
	Amount      decimal.Decimal
	Frequency   model.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Category    string
	AccountID   *uuid.UUID
}

// PayableService manages the outflow side of the projection: payables and
// recurring expense templates.
type PayableService interface {
	CreatePayable(ctx context.Context, in CreatePayableInput) (*model.AccountPayable, error)
	PayPayable(ctx context.Context, in PayPayableInput) (*model.AccountPayable, error)
	ListPendingPayables(ctx context.Context, from, to time.Time) ([]model.AccountPayable, error)

	CreateRecurringExpense(ctx context.Context, in CreateRecurringInput) (*model.RecurringExpense, error)
	ListActiveRecurring(ctx context.Context) ([]model.RecurringExpense, error)
	DeactivateRecurring(ctx context.Context, id uuid.UUID) error
}

type payableService struct {
	repo   repository.PayableRepository
	ledger LedgerService
	now    func() time.Time
}

func NewPayableService(repo repository.PayableRepository, ledger LedgerService, opts ...Option) PayableService {
	o := buildOptions(opts)
	return &payableService{repo: repo, ledger: ledger, now: o.now}
}

// ── Payables ──────────────────────────────────────────────────────────────────

func (s *payableService) CreatePayable(ctx context.Context, in CreatePayableInput) (*model.AccountPayable, error) {
	desc, err := requireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	amount := money(in.Amount)
	if !amount.IsPositive() {
		return nil, apierror.InvalidAmount("payable amount must be greater than zero, got %s", in.Amount.String())
	}
	if in.DueDate.IsZero() {
		return nil, apierror.Validation("due date is required")
	}
	p := &model.AccountPayable{
		ID:          uuid.New(),
		Description: desc,
		Category:    in.Category,
		Amount:      amount,
		DueDate:     truncateDay(in.DueDate),
		Status:      model.PayablePending,
		AccountID:   in.AccountID,
	}
	if err := s.repo.CreatePayable(ctx, p); err != nil {
		return nil, fmt.Errorf("create payable: %w", err)
	}
	return p, nil
}

// PayPayable posts the OUT movement and marks the payable PAID atomically.
func (s *payableService) PayPayable(ctx context.Context, in PayPayableInput) (*model.AccountPayable, error) {
	if _, err := model.ParsePaymentMethod(string(in.Method)); err != nil {
		return nil, apierror.Validation("%v", err)
	}

	var p *model.AccountPayable
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.LockPayable(ctx, tx, in.PayableID)
		if err != nil {
			return loadErr(err, "payable", in.PayableID)
		}
		if p.Status == model.PayablePaid {
			return apierror.InvalidState("payable %s was already paid", p.ID)
		}
		accountID := in.AccountID
		if accountID == nil {
			accountID = p.AccountID
		}
		if accountID == nil {
			return apierror.Validation("an account is required to pay payable %s", p.ID)
		}

		payableID := p.ID
		mov, err := s.ledger.AppendTx(ctx, tx, AppendMovementInput{
			AccountID:   *accountID,
			Direction:   model.DirectionOut,
			Amount:      p.Amount,
			Method:      in.Method,
			SourceType:  model.SourcePurchase,
			SourceRefID: &payableID,
			Description: p.Description,
		})
		if err != nil {
			return err
		}

		paidAt := s.now().UTC()
		p.Status = model.PayablePaid
		p.PaidAt = &paidAt
		p.AccountID = accountID
		p.MovementID = &mov.ID
		return s.repo.UpdatePayable(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("payable_id", p.ID.String()).Str("amount", p.Amount.StringFixed(2)).Msg("payable paid")
	return p, nil
}

func (s *payableService) ListPendingPayables(ctx context.Context, from, to time.Time) ([]model.AccountPayable, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return nil, apierror.Validation("to must not be before from")
	}
	return s.repo.ListPendingPayables(ctx, from, to)
}

// ── Recurring expenses ────────────────────────────────────────────────────────

func (s *payableService) CreateRecurringExpense(ctx context.Context, in CreateRecurringInput) (*model.RecurringExpense, error) {
	desc, err := requireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	if _, err := model.ParseFrequency(string(in.Frequency)); err != nil {
		return nil, apierror.Validation("%v", err)
	}
	amount := money(in.Amount)
	if !amount.IsPositive() {
		return nil, apierror.InvalidAmount("recurring expense amount must be greater than zero, got %s", in.Amount.String())
	}
	if in.StartDate.IsZero() {
		return nil, apierror.Validation("start date is required")
	}
	start := truncateDay(in.StartDate)
	var end *time.Time
	if in.EndDate != nil {
		e := truncateDay(*in.EndDate)
		if e.Before(start) {
			return nil, apierror.Validation("end date must not be before start date")
		}
		end = &e
	}

	e := &model.RecurringExpense{
		ID:          uuid.New(),
		Description: desc,
		Amount:      amount,
		Frequency:   in.Frequency,
		StartDate:   start,
		EndDate:     end,
		Category:    in.Category,
		AccountID:   in.AccountID,
		Active:      true,
	}
	if err := s.repo.CreateRecurring(ctx, e); err != nil {
		return nil, fmt.Errorf("create recurring expense: %w", err)
	}
	return e, nil
}

func (s *payableService) ListActiveRecurring(ctx context.Context) ([]model.RecurringExpense, error) {
	return s.repo.ListActiveRecurring(ctx)
}

func (s *payableService) DeactivateRecurring(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.FindRecurring(ctx, id)
	if err != nil {
		return loadErr(err, "recurring expense", id)
	}
	if !e.Active {
		return nil
	}
	e.Active = false
	return s.repo.UpdateRecurring(ctx, e)
}
