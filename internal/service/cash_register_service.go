package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/model"
	"salonledger/internal/repository"
	"salonledger/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OpenRegisterInput struct {
	AccountID      uuid.UUID
	OpenedBy       uuid.UUID
	InitialBalance decimal.Decimal
	Notes          *string
}

type AdjustmentInput struct {
	RegisterID uuid.UUID
	Type       model.AdjustmentType
	Amount     decimal.Decimal
	Reason     string
	CreatedBy  uuid.UUID
}

type CloseRegisterInput struct {
	RegisterID uuid.UUID
	ClosedBy   uuid.UUID
	Breakdown  CountedBreakdown
	Notes      *string
}

// ClosingResult is the closed register together with the figures that closed it.
type ClosingResult struct {
	Register       *model.CashRegister
	Reconciliation Reconciliation
}

type RegisterHistory struct {
	Registers []model.CashRegister
	Total     int64
	Page      int
	Limit     int
	Stats     repository.RegisterStats
}

// RegisterReport is a read-only snapshot of one register. For an OPEN register
// the totals are live up to the time of the call.
type RegisterReport struct {
	Register        *model.CashRegister
	Totals          ShiftTotals
	ExpectedBalance decimal.Decimal
}

// AlertDispatcher queues closing discrepancy alerts. *worker.Dispatcher satisfies it.
type AlertDispatcher interface {
	EnqueueDiscrepancyAlert(ctx context.Context, payload worker.DiscrepancyAlertPayload) error
}

type CashRegisterService interface {
	Open(ctx context.Context, in OpenRegisterInput) (*model.CashRegister, error)
	RecordAdjustment(ctx context.Context, in AdjustmentInput) (*model.CashRegisterMovement, error)
	Close(ctx context.Context, in CloseRegisterInput) (*ClosingResult, error)
	// GetCurrentOpen returns nil, nil when nothing is open in scope.
	GetCurrentOpen(ctx context.Context, scope repository.RegisterScope) (*model.CashRegister, error)
	GetHistory(ctx context.Context, f repository.RegisterHistoryFilter) (*RegisterHistory, error)
	GetReport(ctx context.Context, registerID uuid.UUID) (*RegisterReport, error)
}

type cashRegisterService struct {
	repo       repository.CashRegisterRepository
	ledgerRepo repository.LedgerRepository
	operators  repository.OperatorRepository
	ledger     LedgerService
	alerts     AlertDispatcher
	now        func() time.Time
}

// NewCashRegisterService wires the register state machine. alerts may be nil.
func NewCashRegisterService(
	repo repository.CashRegisterRepository,
	ledgerRepo repository.LedgerRepository,
	operators repository.OperatorRepository,
	ledger LedgerService,
	alerts AlertDispatcher,
	opts ...Option,
) CashRegisterService {
	o := buildOptions(opts)
	return &cashRegisterService{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		operators:  operators,
		ledger:     ledger,
		alerts:     alerts,
		now:        o.now,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *cashRegisterService) Open(ctx context.Context, in OpenRegisterInput) (*model.CashRegister, error) {
	if in.InitialBalance.IsNegative() {
		return nil, apierror.InvalidAmount("initial balance cannot be negative, got %s", in.InitialBalance.String())
	}
	if _, err := s.operators.FindByID(ctx, in.OpenedBy); err != nil {
		return nil, loadErr(err, "operator", in.OpenedBy)
	}

	var reg *model.CashRegister
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		acc, err := s.ledgerRepo.FindAccount(ctx, tx, in.AccountID)
		if err != nil {
			return loadErr(err, "account", in.AccountID)
		}
		if !acc.Active {
			return apierror.InvalidState("account %s is inactive", acc.ID)
		}

		// Guard: one OPEN register per account. The partial unique index
		// catches the race this check cannot.
		existing, err := s.repo.FindOpen(ctx, tx, repository.RegisterScope{AccountID: &acc.ID})
		if err != nil {
			return fmt.Errorf("find open register: %w", err)
		}
		if existing != nil {
			return apierror.ConflictAlreadyOpen("register %s is already open for account %s", existing.ID, acc.ID)
		}

		reg = &model.CashRegister{
			ID:             uuid.New(),
			AccountID:      acc.ID,
			OpenedBy:       in.OpenedBy,
			OpenedAt:       s.now().UTC(),
			InitialBalance: money(in.InitialBalance),
			Status:         model.RegisterOpen,
			Notes:          trimmed(in.Notes),
		}
		if err := s.repo.CreateRegister(ctx, tx, reg); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.ConflictAlreadyOpen("a register is already open for account %s", acc.ID)
			}
			return fmt.Errorf("create register: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("register_id", reg.ID.String()).
		Str("account_id", reg.AccountID.String()).
		Str("opened_by", reg.OpenedBy.String()).
		Str("initial_balance", reg.InitialBalance.StringFixed(2)).
		Msg("register opened")
	return reg, nil
}

// ── RecordAdjustment ──────────────────────────────────────────────────────────
// Every sangria/suprimento also posts a cash movement on the register account
// in the same transaction, so the account balance always includes it.

func (s *cashRegisterService) RecordAdjustment(ctx context.Context, in AdjustmentInput) (*model.CashRegisterMovement, error) {
	var adj *model.CashRegisterMovement
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.repo.LockByID(ctx, tx, in.RegisterID)
		if err != nil {
			return loadErr(err, "register", in.RegisterID)
		}
		// State first: a closed register rejects any adjustment, valid or not.
		if reg.Status != model.RegisterOpen {
			return apierror.InvalidState("register %s is %s", reg.ID, reg.Status)
		}
		if _, err := model.ParseAdjustmentType(string(in.Type)); err != nil {
			return apierror.Validation("%v", err)
		}
		amount := money(in.Amount)
		if !amount.IsPositive() {
			return apierror.InvalidAmount("adjustment amount must be greater than zero, got %s", in.Amount.String())
		}
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			return apierror.Validation("a reason is required for %s", in.Type)
		}

		adj = &model.CashRegisterMovement{
			ID:         uuid.New(),
			RegisterID: reg.ID,
			Type:       in.Type,
			Amount:     amount,
			Reason:     reason,
			CreatedBy:  in.CreatedBy,
			CreatedAt:  s.now().UTC(),
		}

		direction := model.DirectionIn
		if in.Type == model.AdjustmentSangria {
			direction = model.DirectionOut
		}
		mov, err := s.ledger.AppendTx(ctx, tx, AppendMovementInput{
			AccountID:   reg.AccountID,
			Direction:   direction,
			Amount:      amount,
			Method:      model.MethodCash,
			SourceType:  model.SourceManual,
			SourceRefID: &adj.ID,
			Description: fmt.Sprintf("%s: %s", in.Type, reason),
		})
		if err != nil {
			return err
		}
		adj.LedgerMovementID = &mov.ID
		return s.repo.CreateAdjustment(ctx, tx, adj)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("register_id", adj.RegisterID.String()).
		Str("type", string(adj.Type)).
		Str("amount", adj.Amount.StringFixed(2)).
		Msg("register adjustment recorded")
	return adj, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// The register row stays locked for the whole close, and closedAt is the cutoff
// for the movements counted as part of the shift.

func (s *cashRegisterService) Close(ctx context.Context, in CloseRegisterInput) (*ClosingResult, error) {
	if err := validateBreakdown(in.Breakdown); err != nil {
		return nil, err
	}

	var res *ClosingResult
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		reg, err := s.repo.LockByID(ctx, tx, in.RegisterID)
		if err != nil {
			return loadErr(err, "register", in.RegisterID)
		}
		if reg.Status != model.RegisterOpen {
			return apierror.InvalidState("register %s is already %s", reg.ID, reg.Status)
		}

		closedAt := s.now().UTC()
		totals, err := s.shiftTotals(ctx, tx, reg, closedAt)
		if err != nil {
			return err
		}
		rec := reconcile(totals, in.Breakdown)

		closedBy := in.ClosedBy
		reg.Status = model.RegisterClosed
		reg.ClosedBy = &closedBy
		reg.ClosedAt = &closedAt
		reg.ExpectedBalance = &rec.ExpectedBalance
		reg.ActualBalance = &rec.ActualBalance
		reg.Difference = &rec.TotalDifference
		reg.Severity = &rec.Severity
		reg.ClosingNotes = trimmed(in.Notes)
		if err := s.repo.UpdateRegister(ctx, tx, reg); err != nil {
			return fmt.Errorf("close register: %w", err)
		}
		res = &ClosingResult{Register: reg, Reconciliation: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := res.Reconciliation
	event := log.Info()
	if rec.HasDiscrepancy {
		event = log.Warn()
	}
	event.
		Str("register_id", res.Register.ID.String()).
		Str("expected", rec.ExpectedBalance.StringFixed(2)).
		Str("actual", rec.ActualBalance.StringFixed(2)).
		Str("difference", rec.TotalDifference.StringFixed(2)).
		Str("severity", string(rec.Severity)).
		Msg("register closed")

	if rec.HasDiscrepancy {
		s.enqueueAlert(ctx, res)
	}
	return res, nil
}

// validateBreakdown rejects unknown methods and negative entries, and requires
// at least one non-zero entry.
func validateBreakdown(b CountedBreakdown) error {
	nonZero := false
	for method, amount := range b {
		if _, err := model.ParsePaymentMethod(string(method)); err != nil {
			return apierror.Validation("%v", err)
		}
		if amount.IsNegative() {
			return apierror.NegativeAmount("counted %s cannot be negative, got %s", method, amount.String())
		}
		if !money(amount).IsZero() {
			nonZero = true
		}
	}
	if !nonZero {
		return apierror.Validation("the counted breakdown must contain at least one non-zero amount")
	}
	return nil
}

// enqueueAlert is best-effort: a failed enqueue is logged, never returned.
func (s *cashRegisterService) enqueueAlert(ctx context.Context, res *ClosingResult) {
	if s.alerts == nil {
		return
	}
	reg, rec := res.Register, res.Reconciliation
	payload := worker.DiscrepancyAlertPayload{
		RegisterID: reg.ID.String(),
		AccountID:  reg.AccountID.String(),
		OpenedBy:   reg.OpenedBy.String(),
		ClosedAt:   reg.ClosedAt.Format(time.RFC3339),
		Expected:   rec.ExpectedBalance.StringFixed(2),
		Actual:     rec.ActualBalance.StringFixed(2),
		Difference: rec.TotalDifference.StringFixed(2),
		Severity:   string(rec.Severity),
	}
	if reg.ClosedBy != nil {
		payload.ClosedBy = reg.ClosedBy.String()
	}
	if err := s.alerts.EnqueueDiscrepancyAlert(ctx, payload); err != nil {
		log.Error().Err(err).Str("register_id", reg.ID.String()).Msg("failed to enqueue discrepancy alert")
	}
}

func (s *cashRegisterService) shiftTotals(ctx context.Context, tx *gorm.DB, reg *model.CashRegister, cutoff time.Time) (ShiftTotals, error) {
	from := reg.OpenedAt
	sales, err := s.ledgerRepo.SumSigned(ctx, tx, repository.MovementFilter{
		AccountIDs: []uuid.UUID{reg.AccountID},
		Methods:    []model.PaymentMethod{model.MethodCash},
		Sources:    []model.SourceType{model.SourceSale, model.SourceRefund},
		From:       &from,
		To:         &cutoff,
	})
	if err != nil {
		return ShiftTotals{}, fmt.Errorf("sum shift sales: %w", err)
	}

	adjustments, err := s.repo.ListAdjustments(ctx, tx, reg.ID)
	if err != nil {
		return ShiftTotals{}, fmt.Errorf("list adjustments: %w", err)
	}
	totals := ShiftTotals{
		InitialBalance: reg.InitialBalance,
		CashSales:      sales,
		Suprimentos:    decimal.Zero,
		Sangrias:       decimal.Zero,
	}
	for _, a := range adjustments {
		switch a.Type {
		case model.AdjustmentSuprimento:
			totals.Suprimentos = totals.Suprimentos.Add(a.Amount)
		case model.AdjustmentSangria:
			totals.Sangrias = totals.Sangrias.Add(a.Amount)
		}
	}
	return totals, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *cashRegisterService) GetCurrentOpen(ctx context.Context, scope repository.RegisterScope) (*model.CashRegister, error) {
	reg, err := s.repo.FindOpen(ctx, nil, scope)
	if err != nil {
		return nil, fmt.Errorf("find open register: %w", err)
	}
	return reg, nil
}

func (s *cashRegisterService) GetHistory(ctx context.Context, f repository.RegisterHistoryFilter) (*RegisterHistory, error) {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, apierror.Validation("end_date must not be before start_date")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	regs, total, err := s.repo.ListHistory(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list register history: %w", err)
	}
	stats, err := s.repo.HistoryStats(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("register history stats: %w", err)
	}
	return &RegisterHistory{Registers: regs, Total: total, Page: f.Page, Limit: f.Limit, Stats: stats}, nil
}

func (s *cashRegisterService) GetReport(ctx context.Context, registerID uuid.UUID) (*RegisterReport, error) {
	reg, err := s.repo.FindByID(ctx, registerID)
	if err != nil {
		return nil, loadErr(err, "register", registerID)
	}
	cutoff := s.now().UTC()
	if reg.ClosedAt != nil {
		cutoff = *reg.ClosedAt
	}
	totals, err := s.shiftTotals(ctx, nil, reg, cutoff)
	if err != nil {
		return nil, err
	}
	return &RegisterReport{Register: reg, Totals: totals, ExpectedBalance: totals.Expected()}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
