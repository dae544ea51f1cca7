package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/model"
	"salonledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentPlan is one requested installment before it is persisted.
type InstallmentPlan struct {
	Number  int
	Amount  decimal.Decimal
	DueDate time.Time
}

type ReceiptInput struct {
	InstallmentID uuid.UUID
	Amount        decimal.Decimal
	ReceivedAt    time.Time
	AccountID     uuid.UUID
	Method        model.PaymentMethod
	Notes         *string
}

type ReceivableService interface {
	CreateInstallments(ctx context.Context, saleID uuid.UUID, total decimal.Decimal, plans []InstallmentPlan) ([]uuid.UUID, error)
	// CreateInstallmentSchedule splits total into n monthly installments and persists them.
	CreateInstallmentSchedule(ctx context.Context, saleID uuid.UUID, n int, firstDueDate time.Time, total decimal.Decimal) ([]model.SaleInstallment, error)
	// RegisterReceipt returns the id of the ledger movement it posted.
	RegisterReceipt(ctx context.Context, in ReceiptInput) (uuid.UUID, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleInstallment, error)
	ListPending(ctx context.Context, from, to time.Time) ([]model.SaleInstallment, error)
}

type receivableService struct {
	repo   repository.ReceivableRepository
	ledger LedgerService
}

func NewReceivableService(repo repository.ReceivableRepository, ledger LedgerService) ReceivableService {
	return &receivableService{repo: repo, ledger: ledger}
}

var hundred = decimal.NewFromInt(100)

// SplitInstallments divides total into n parts of floor(total/n) cents each, the
// last part absorbing the remainder so the parts always add up to total exactly.
// Due dates fall on the same day of consecutive calendar months, clamped to the
// last day of shorter months.
func SplitInstallments(total decimal.Decimal, n int, firstDueDate time.Time) ([]InstallmentPlan, error) {
	if n < 1 {
		return nil, apierror.Validation("installment count must be at least 1, got %d", n)
	}
	total = money(total)
	if !total.IsPositive() {
		return nil, apierror.InvalidAmount("sale total must be greater than zero, got %s", total.String())
	}

	cents, _ := total.Mul(hundred).QuoRem(decimal.NewFromInt(int64(n)), 0)
	share := cents.Div(hundred)
	if !share.IsPositive() {
		return nil, apierror.InvalidAmount("%s cannot be split into %d installments of at least 0.01", total.String(), n)
	}

	first := truncateDay(firstDueDate)
	plans := make([]InstallmentPlan, n)
	allocated := decimal.Zero
	for i := 0; i < n; i++ {
		amount := share
		if i == n-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		plans[i] = InstallmentPlan{Number: i + 1, Amount: amount, DueDate: addMonths(first, i)}
	}
	return plans, nil
}

// addMonths moves t forward by months calendar months, keeping the day of month
// where it exists and using the month's last day where it does not.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, time.UTC)
}

// ── CreateInstallments ────────────────────────────────────────────────────────

func (s *receivableService) CreateInstallments(ctx context.Context, saleID uuid.UUID, total decimal.Decimal, plans []InstallmentPlan) ([]uuid.UUID, error) {
	if len(plans) == 0 {
		return nil, apierror.Validation("at least one installment is required")
	}
	total = money(total)
	if !total.IsPositive() {
		return nil, apierror.InvalidAmount("sale total must be greater than zero, got %s", total.String())
	}

	seen := make(map[int]bool, len(plans))
	sum := decimal.Zero
	for _, p := range plans {
		if p.Number < 1 {
			return nil, apierror.Validation("installment number must be at least 1, got %d", p.Number)
		}
		if seen[p.Number] {
			return nil, apierror.Validation("installment number %d is repeated", p.Number)
		}
		seen[p.Number] = true
		if !money(p.Amount).IsPositive() {
			return nil, apierror.InvalidAmount("installment %d amount must be greater than zero, got %s", p.Number, p.Amount.String())
		}
		if p.DueDate.IsZero() {
			return nil, apierror.Validation("installment %d has no due date", p.Number)
		}
		sum = sum.Add(money(p.Amount))
	}
	if sum.Sub(total).Abs().GreaterThan(discrepancyTolerance) {
		return nil, apierror.Validation("installments add up to %s but the sale total is %s", sum.StringFixed(2), total.StringFixed(2))
	}

	items := make([]model.SaleInstallment, len(plans))
	ids := make([]uuid.UUID, len(plans))
	for i, p := range plans {
		ids[i] = uuid.New()
		items[i] = model.SaleInstallment{
			ID:      ids[i],
			SaleID:  saleID,
			Number:  p.Number,
			Amount:  money(p.Amount),
			DueDate: truncateDay(p.DueDate),
			Status:  model.InstallmentPending,
		}
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.CountBySale(ctx, tx, saleID)
		if err != nil {
			return fmt.Errorf("count installments: %w", err)
		}
		if n > 0 {
			return apierror.InvalidState("sale %s already has %d installments", saleID, n)
		}
		return s.repo.CreateInstallments(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("sale_id", saleID.String()).Int("installments", len(items)).Str("total", total.StringFixed(2)).Msg("installments created")
	return ids, nil
}

func (s *receivableService) CreateInstallmentSchedule(ctx context.Context, saleID uuid.UUID, n int, firstDueDate time.Time, total decimal.Decimal) ([]model.SaleInstallment, error) {
	plans, err := SplitInstallments(total, n, firstDueDate)
	if err != nil {
		return nil, err
	}
	ids, err := s.CreateInstallments(ctx, saleID, total, plans)
	if err != nil {
		return nil, err
	}
	items := make([]model.SaleInstallment, len(plans))
	for i, p := range plans {
		items[i] = model.SaleInstallment{
			ID:      ids[i],
			SaleID:  saleID,
			Number:  p.Number,
			Amount:  p.Amount,
			DueDate: p.DueDate,
			Status:  model.InstallmentPending,
		}
	}
	return items, nil
}

// ── RegisterReceipt ───────────────────────────────────────────────────────────
// The installment update and the ledger movement commit together or not at all.

func (s *receivableService) RegisterReceipt(ctx context.Context, in ReceiptInput) (uuid.UUID, error) {
	if _, err := model.ParsePaymentMethod(string(in.Method)); err != nil {
		return uuid.Nil, apierror.Validation("%v", err)
	}
	if in.ReceivedAt.IsZero() {
		return uuid.Nil, apierror.Validation("received date is required")
	}

	var movementID uuid.UUID
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inst, err := s.repo.LockInstallment(ctx, tx, in.InstallmentID)
		if err != nil {
			return loadErr(err, "installment", in.InstallmentID)
		}
		if inst.Status == model.InstallmentReceived {
			return apierror.InvalidState("installment %s was already received", inst.ID)
		}
		amount := money(in.Amount)
		if !amount.IsPositive() {
			return apierror.InvalidAmount("received amount must be greater than zero, got %s", in.Amount.String())
		}

		saleID := inst.SaleID
		mov, err := s.ledger.AppendTx(ctx, tx, AppendMovementInput{
			AccountID:   in.AccountID,
			Direction:   model.DirectionIn,
			Amount:      amount,
			Method:      in.Method,
			SourceType:  model.SourceSale,
			SourceRefID: &saleID,
			Description: fmt.Sprintf("Installment %d of sale %s", inst.Number, saleID),
		})
		if err != nil {
			return err
		}

		receivedAt := truncateDay(in.ReceivedAt)
		accountID := in.AccountID
		inst.Status = model.InstallmentReceived
		inst.ReceivedAt = &receivedAt
		inst.ReceivedAmount = &amount
		inst.BankAccountID = &accountID
		inst.MovementID = &mov.ID
		inst.Notes = trimmed(in.Notes)
		if err := s.repo.UpdateInstallment(ctx, tx, inst); err != nil {
			return fmt.Errorf("update installment: %w", err)
		}
		movementID = mov.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Info().Str("installment_id", in.InstallmentID.String()).Str("movement_id", movementID.String()).Msg("installment received")
	return movementID, nil
}

func (s *receivableService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	return s.repo.ListBySale(ctx, saleID)
}

func (s *receivableService) ListPending(ctx context.Context, from, to time.Time) ([]model.SaleInstallment, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return nil, apierror.Validation("to must not be before from")
	}
	return s.repo.ListPending(ctx, from, to)
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apierror.ValidationFields(map[string]string{field: "is required"})
	}
	return v, nil
}
