package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"salonledger/internal/model"
	"salonledger/internal/repository"
	"salonledger/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Clock ─────────────────────────────────────────────────────────────────────

// stepClock advances by step on every reading so consecutive writes get
// strictly increasing timestamps.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), step: time.Minute}
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── In-memory LedgerRepository ────────────────────────────────────────────────

type memLedgerRepo struct {
	accounts  map[uuid.UUID]model.Account
	movements []model.Movement
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{accounts: make(map[uuid.UUID]model.Account)}
}

func (r *memLedgerRepo) CreateAccount(_ context.Context, a *model.Account) error {
	r.accounts[a.ID] = *a
	return nil
}

func (r *memLedgerRepo) FindAccount(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *memLedgerRepo) LockAccount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Account, error) {
	return r.FindAccount(ctx, tx, id)
}

func (r *memLedgerRepo) ListAccounts(_ context.Context, onlyActive bool) ([]model.Account, error) {
	var out []model.Account
	for _, a := range r.accounts {
		if onlyActive && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memLedgerRepo) UpdateAccount(_ context.Context, _ *gorm.DB, a *model.Account) error {
	r.accounts[a.ID] = *a
	return nil
}

func (r *memLedgerRepo) DeleteAccount(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.accounts, id)
	return nil
}

func (r *memLedgerRepo) CreateMovement(_ context.Context, _ *gorm.DB, m *model.Movement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memLedgerRepo) FindMovement(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Movement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLedgerRepo) LastMovement(_ context.Context, _ *gorm.DB, accountID uuid.UUID) (*model.Movement, error) {
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].AccountID == accountID {
			m := r.movements[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) FindReversal(_ context.Context, _ *gorm.DB, movementID uuid.UUID) (*model.Movement, error) {
	for _, m := range r.movements {
		if m.ReversalOf != nil && *m.ReversalOf == movementID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) CountMovements(_ context.Context, _ *gorm.DB, accountID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r *memLedgerRepo) ListMovements(_ context.Context, accountID uuid.UUID, from, to *time.Time) ([]model.Movement, error) {
	var out []model.Movement
	for _, m := range r.movements {
		if m.AccountID != accountID {
			continue
		}
		if from != nil && m.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && m.OccurredAt.After(*to) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memLedgerRepo) SumSigned(_ context.Context, _ *gorm.DB, f repository.MovementFilter) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if len(f.AccountIDs) > 0 && !containsID(f.AccountIDs, m.AccountID) {
			continue
		}
		if len(f.Methods) > 0 && !containsMethod(f.Methods, m.Method) {
			continue
		}
		if len(f.Sources) > 0 && !containsSource(f.Sources, m.SourceType) {
			continue
		}
		if f.From != nil && m.OccurredAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.OccurredAt.After(*f.To) {
			continue
		}
		sum = sum.Add(m.Signed())
	}
	return sum, nil
}

func (r *memLedgerRepo) DB() *gorm.DB { return nil }

func (r *memLedgerRepo) movementsFor(accountID uuid.UUID) []model.Movement {
	movs, _ := r.ListMovements(context.Background(), accountID, nil, nil)
	return movs
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsMethod(ms []model.PaymentMethod, m model.PaymentMethod) bool {
	for _, v := range ms {
		if v == m {
			return true
		}
	}
	return false
}

func containsSource(ss []model.SourceType, s model.SourceType) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ── In-memory CashRegisterRepository ──────────────────────────────────────────

type memRegisterRepo struct {
	registers   map[uuid.UUID]model.CashRegister
	adjustments []model.CashRegisterMovement
}

func newMemRegisterRepo() *memRegisterRepo {
	return &memRegisterRepo{registers: make(map[uuid.UUID]model.CashRegister)}
}

func (r *memRegisterRepo) CreateRegister(_ context.Context, _ *gorm.DB, reg *model.CashRegister) error {
	for _, existing := range r.registers {
		if existing.AccountID == reg.AccountID && existing.Status == model.RegisterOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	r.registers[reg.ID] = *reg
	return nil
}

func (r *memRegisterRepo) FindOpen(_ context.Context, _ *gorm.DB, scope repository.RegisterScope) (*model.CashRegister, error) {
	for _, reg := range r.registers {
		if reg.Status != model.RegisterOpen {
			continue
		}
		if scope.AccountID != nil && reg.AccountID != *scope.AccountID {
			continue
		}
		if scope.OpenedBy != nil && reg.OpenedBy != *scope.OpenedBy {
			continue
		}
		reg := reg
		return &reg, nil
	}
	return nil, nil
}

func (r *memRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	reg.Adjustments, _ = r.ListAdjustments(context.Background(), nil, id)
	return &reg, nil
}

func (r *memRegisterRepo) LockByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &reg, nil
}

func (r *memRegisterRepo) UpdateRegister(_ context.Context, _ *gorm.DB, reg *model.CashRegister) error {
	r.registers[reg.ID] = *reg
	return nil
}

func (r *memRegisterRepo) CreateAdjustment(_ context.Context, _ *gorm.DB, m *model.CashRegisterMovement) error {
	r.adjustments = append(r.adjustments, *m)
	return nil
}

func (r *memRegisterRepo) ListAdjustments(_ context.Context, _ *gorm.DB, registerID uuid.UUID) ([]model.CashRegisterMovement, error) {
	var out []model.CashRegisterMovement
	for _, a := range r.adjustments {
		if a.RegisterID == registerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRegisterRepo) ListHistory(_ context.Context, f repository.RegisterHistoryFilter) ([]model.CashRegister, int64, error) {
	var out []model.CashRegister
	for _, reg := range r.registers {
		if f.Status != nil && reg.Status != *f.Status {
			continue
		}
		if f.OpenedBy != nil && reg.OpenedBy != *f.OpenedBy {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memRegisterRepo) HistoryStats(ctx context.Context, f repository.RegisterHistoryFilter) (repository.RegisterStats, error) {
	f.Page, f.Limit = 1, len(r.registers)+1
	regs, total, _ := r.ListHistory(ctx, f)
	st := repository.RegisterStats{Count: total}
	for _, reg := range regs {
		st.TotalInitialBalance = st.TotalInitialBalance.Add(reg.InitialBalance)
		if reg.Difference != nil {
			if reg.Difference.IsPositive() {
				st.TotalSurplus = st.TotalSurplus.Add(*reg.Difference)
			} else {
				st.TotalShortage = st.TotalShortage.Add(reg.Difference.Abs())
			}
		}
	}
	return st, nil
}

func (r *memRegisterRepo) DB() *gorm.DB { return nil }

// ── In-memory OperatorRepository ──────────────────────────────────────────────

type memOperatorRepo struct{ ops map[uuid.UUID]model.Operator }

func newMemOperatorRepo(ops ...model.Operator) *memOperatorRepo {
	r := &memOperatorRepo{ops: make(map[uuid.UUID]model.Operator)}
	for _, o := range ops {
		r.ops[o.ID] = o
	}
	return r
}

func (r *memOperatorRepo) Create(_ context.Context, o *model.Operator) error {
	r.ops[o.ID] = *o
	return nil
}

func (r *memOperatorRepo) Upsert(ctx context.Context, o *model.Operator) error { return r.Create(ctx, o) }

func (r *memOperatorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Operator, error) {
	o, ok := r.ops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *memOperatorRepo) List(_ context.Context) ([]model.Operator, error) {
	var out []model.Operator
	for _, o := range r.ops {
		out = append(out, o)
	}
	return out, nil
}

// ── In-memory ReceivableRepository ────────────────────────────────────────────

type memReceivableRepo struct {
	items     map[uuid.UUID]model.SaleInstallment
	listCalls int
}

func newMemReceivableRepo() *memReceivableRepo {
	return &memReceivableRepo{items: make(map[uuid.UUID]model.SaleInstallment)}
}

func (r *memReceivableRepo) CreateInstallments(_ context.Context, _ *gorm.DB, items []model.SaleInstallment) error {
	for _, i := range items {
		r.items[i.ID] = i
	}
	return nil
}

func (r *memReceivableRepo) CountBySale(_ context.Context, _ *gorm.DB, saleID uuid.UUID) (int64, error) {
	var n int64
	for _, i := range r.items {
		if i.SaleID == saleID {
			n++
		}
	}
	return n, nil
}

func (r *memReceivableRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.SaleInstallment, error) {
	var out []model.SaleInstallment
	for _, i := range r.items {
		if i.SaleID == saleID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Number < out[b].Number })
	return out, nil
}

func (r *memReceivableRepo) LockInstallment(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.SaleInstallment, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &i, nil
}

func (r *memReceivableRepo) UpdateInstallment(_ context.Context, _ *gorm.DB, i *model.SaleInstallment) error {
	r.items[i.ID] = *i
	return nil
}

func (r *memReceivableRepo) ListPending(_ context.Context, from, to time.Time) ([]model.SaleInstallment, error) {
	r.listCalls++
	var out []model.SaleInstallment
	for _, i := range r.items {
		if i.Status == model.InstallmentPending && !i.DueDate.Before(from) && !i.DueDate.After(to) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].DueDate.Before(out[b].DueDate) })
	return out, nil
}

func (r *memReceivableRepo) DB() *gorm.DB { return nil }

// ── In-memory PayableRepository ───────────────────────────────────────────────

type memPayableRepo struct {
	payables  map[uuid.UUID]model.AccountPayable
	recurring map[uuid.UUID]model.RecurringExpense
}

func newMemPayableRepo() *memPayableRepo {
	return &memPayableRepo{
		payables:  make(map[uuid.UUID]model.AccountPayable),
		recurring: make(map[uuid.UUID]model.RecurringExpense),
	}
}

func (r *memPayableRepo) CreatePayable(_ context.Context, p *model.AccountPayable) error {
	r.payables[p.ID] = *p
	return nil
}

func (r *memPayableRepo) LockPayable(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.AccountPayable, error) {
	p, ok := r.payables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memPayableRepo) UpdatePayable(_ context.Context, _ *gorm.DB, p *model.AccountPayable) error {
	r.payables[p.ID] = *p
	return nil
}

func (r *memPayableRepo) ListPendingPayables(_ context.Context, from, to time.Time) ([]model.AccountPayable, error) {
	var out []model.AccountPayable
	for _, p := range r.payables {
		if p.Status == model.PayablePending && !p.DueDate.Before(from) && !p.DueDate.After(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].DueDate.Before(out[b].DueDate) })
	return out, nil
}

func (r *memPayableRepo) CreateRecurring(_ context.Context, e *model.RecurringExpense) error {
	r.recurring[e.ID] = *e
	return nil
}

func (r *memPayableRepo) FindRecurring(_ context.Context, id uuid.UUID) (*model.RecurringExpense, error) {
	e, ok := r.recurring[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *memPayableRepo) UpdateRecurring(_ context.Context, e *model.RecurringExpense) error {
	r.recurring[e.ID] = *e
	return nil
}

func (r *memPayableRepo) ListActiveRecurring(_ context.Context) ([]model.RecurringExpense, error) {
	var out []model.RecurringExpense
	for _, e := range r.recurring {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memPayableRepo) DB() *gorm.DB { return nil }

// ── Alert dispatcher spy ──────────────────────────────────────────────────────

type spyAlerts struct {
	mu       sync.Mutex
	payloads []worker.DiscrepancyAlertPayload
	err      error
}

func (s *spyAlerts) EnqueueDiscrepancyAlert(_ context.Context, p worker.DiscrepancyAlertPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

var errBoom = errors.New("boom")
