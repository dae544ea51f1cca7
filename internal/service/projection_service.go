package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"salonledger/internal/cashflow"
	"salonledger/internal/model"
	"salonledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProjectionScope restricts a projection to a set of accounts. Empty means the
// whole business: every active account, every payable and recurring expense.
type ProjectionScope struct {
	AccountIDs []uuid.UUID
}

// ProjectionCache is the best-effort store for computed projections.
// *infra.ProjectionCache satisfies it.
type ProjectionCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type ProjectionService interface {
	Project(ctx context.Context, scope ProjectionScope, start, end time.Time, scenario cashflow.Scenario) (*cashflow.Projection, error)
}

type ProjectionConfig struct {
	MinimumRequired decimal.Decimal
	MaxDays         int
}

type projectionService struct {
	ledger      LedgerService
	receivables repository.ReceivableRepository
	payables    repository.PayableRepository
	cache       ProjectionCache
	cfg         ProjectionConfig
	now         func() time.Time
}

// NewProjectionService builds the read-only projection service. cache may be nil.
func NewProjectionService(
	ledger LedgerService,
	receivables repository.ReceivableRepository,
	payables repository.PayableRepository,
	cache ProjectionCache,
	cfg ProjectionConfig,
	opts ...Option,
) ProjectionService {
	o := buildOptions(opts)
	return &projectionService{
		ledger:      ledger,
		receivables: receivables,
		payables:    payables,
		cache:       cache,
		cfg:         cfg,
		now:         o.now,
	}
}

func (s *projectionService) Project(ctx context.Context, scope ProjectionScope, start, end time.Time, scenario cashflow.Scenario) (*cashflow.Projection, error) {
	if err := cashflow.ValidateWindow(start, end, scenario, s.cfg.MaxDays); err != nil {
		return nil, err
	}
	start, end = cashflow.Day0(start), cashflow.Day0(end)

	key := s.cacheKey(scope, start, end, scenario)
	if s.cache != nil {
		var cached cashflow.Projection
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("projection cache read failed")
		}
		if hit {
			return &cached, nil
		}
	}

	in, err := s.gather(ctx, scope, start, end, scenario)
	if err != nil {
		return nil, err
	}
	proj, err := cashflow.Project(in)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, proj); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("projection cache write failed")
		}
	}
	return proj, nil
}

// gather reads a best-effort snapshot of everything the engine needs.
func (s *projectionService) gather(ctx context.Context, scope ProjectionScope, start, end time.Time, scenario cashflow.Scenario) (cashflow.Input, error) {
	opening, err := s.ledger.AggregateBalanceAsOf(ctx, scope.AccountIDs, s.now().UTC())
	if err != nil {
		return cashflow.Input{}, err
	}

	installments, err := s.receivables.ListPending(ctx, start, end)
	if err != nil {
		return cashflow.Input{}, fmt.Errorf("list pending installments: %w", err)
	}
	payables, err := s.payables.ListPendingPayables(ctx, start, end)
	if err != nil {
		return cashflow.Input{}, fmt.Errorf("list pending payables: %w", err)
	}
	recurring, err := s.payables.ListActiveRecurring(ctx)
	if err != nil {
		return cashflow.Input{}, fmt.Errorf("list recurring expenses: %w", err)
	}

	in := cashflow.Input{
		StartDate:       start,
		EndDate:         end,
		Scenario:        scenario,
		OpeningBalance:  opening,
		MinimumRequired: s.cfg.MinimumRequired,
		MaxDays:         s.cfg.MaxDays,
	}
	for _, i := range installments {
		in.Receivables = append(in.Receivables, cashflow.Receivable{
			RefID:       i.ID,
			Description: fmt.Sprintf("Installment %d of sale %s", i.Number, i.SaleID),
			Amount:      i.Amount,
			DueDate:     i.DueDate,
		})
	}
	inScope := accountFilter(scope.AccountIDs)
	for _, p := range payables {
		if !inScope(p.AccountID) {
			continue
		}
		in.Payables = append(in.Payables, cashflow.Payable{
			RefID:       p.ID,
			Description: p.Description,
			Amount:      p.Amount,
			DueDate:     p.DueDate,
		})
	}
	for _, r := range recurring {
		if !inScope(r.AccountID) {
			continue
		}
		in.Recurring = append(in.Recurring, recurrenceOf(r))
	}
	return in, nil
}

func recurrenceOf(r model.RecurringExpense) cashflow.Recurrence {
	return cashflow.Recurrence{
		RefID:       r.ID,
		Description: r.Description,
		Amount:      r.Amount,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

// accountFilter keeps items without an account, and with a scope only those
// whose account is in it.
func accountFilter(ids []uuid.UUID) func(*uuid.UUID) bool {
	if len(ids) == 0 {
		return func(*uuid.UUID) bool { return true }
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(id *uuid.UUID) bool { return id == nil || set[*id] }
}

func (s *projectionService) cacheKey(scope ProjectionScope, start, end time.Time, scenario cashflow.Scenario) string {
	ids := make([]string, len(scope.AccountIDs))
	for i, id := range scope.AccountIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	accounts := "all"
	if len(ids) > 0 {
		accounts = strings.Join(ids, ",")
	}
	return fmt.Sprintf("cashflow:projection:%s:%s:%s:%s:%s",
		scenario, start.Format("2006-01-02"), end.Format("2006-01-02"),
		s.cfg.MinimumRequired.StringFixed(2), accounts)
}
