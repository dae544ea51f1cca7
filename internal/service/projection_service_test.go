package service

import (
	"context"
	"encoding/json"
	"testing"

	"salonledger/internal/apierror"
	"salonledger/internal/cashflow"
	"salonledger/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache stores JSON like the Redis-backed cache does.
type memCache struct {
	data   map[string][]byte
	getErr error
	sets   int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

type projectionFixture struct {
	*ledgerFixture
	receivables *memReceivableRepo
	payables    *memPayableRepo
	cache       *memCache
	svc         ProjectionService
	till, bank  *model.Account
}

func newProjectionFixture(t *testing.T) *projectionFixture {
	t.Helper()
	lf := newLedgerFixture()
	f := &projectionFixture{
		ledgerFixture: lf,
		receivables:   newMemReceivableRepo(),
		payables:      newMemPayableRepo(),
		cache:         newMemCache(),
	}
	f.svc = NewProjectionService(lf.svc, f.receivables, f.payables, f.cache,
		ProjectionConfig{MinimumRequired: dec("100"), MaxDays: 365}, WithClock(lf.clock.Now))
	f.till = lf.account(t, "500")
	f.bank = lf.account(t, "300")

	inst := model.SaleInstallment{ID: uuid.New(), SaleID: uuid.New(), Number: 1, Amount: dec("200"), DueDate: date(2025, 3, 12), Status: model.InstallmentPending}
	f.receivables.items[inst.ID] = inst

	for _, p := range []model.AccountPayable{
		{ID: uuid.New(), Description: "bank rent", Amount: dec("250"), DueDate: date(2025, 3, 15), Status: model.PayablePending, AccountID: &f.bank.ID},
		{ID: uuid.New(), Description: "till supplies", Amount: dec("40"), DueDate: date(2025, 3, 15), Status: model.PayablePending, AccountID: &f.till.ID},
		{ID: uuid.New(), Description: "unassigned tax", Amount: dec("10"), DueDate: date(2025, 3, 18), Status: model.PayablePending},
	} {
		f.payables.payables[p.ID] = p
	}
	return f
}

func TestProjection_WholeBusiness(t *testing.T) {
	f := newProjectionFixture(t)
	p, err := f.svc.Project(context.Background(), ProjectionScope{}, date(2025, 3, 10), date(2025, 3, 20), cashflow.Optimistic)
	require.NoError(t, err)

	assert.True(t, p.Summary.OpeningBalance.Equal(dec("800")))
	assert.Len(t, p.Inflows, 1)
	assert.Len(t, p.Outflows, 3)
	assert.True(t, p.Summary.ClosingBalance.Equal(dec("700")), p.Summary.ClosingBalance.String())
	assert.Len(t, p.Days, 11)
}

func TestProjection_ScopedToAccounts(t *testing.T) {
	f := newProjectionFixture(t)
	p, err := f.svc.Project(context.Background(), ProjectionScope{AccountIDs: []uuid.UUID{f.bank.ID}}, date(2025, 3, 10), date(2025, 3, 20), cashflow.Realistic)
	require.NoError(t, err)

	assert.True(t, p.Summary.OpeningBalance.Equal(dec("300")))
	var descs []string
	for _, o := range p.Outflows {
		descs = append(descs, o.Description)
	}
	assert.ElementsMatch(t, []string{"bank rent", "unassigned tax"}, descs)
	require.Len(t, p.Inflows, 1)
	assert.True(t, p.Inflows[0].Amount.Equal(dec("170")))
	// 300 + 170 - 250 - 10
	assert.True(t, p.Summary.ClosingBalance.Equal(dec("210")), p.Summary.ClosingBalance.String())
}

func TestProjection_ServedFromCacheOnSecondCall(t *testing.T) {
	f := newProjectionFixture(t)
	ctx := context.Background()

	first, err := f.svc.Project(ctx, ProjectionScope{}, date(2025, 3, 10), date(2025, 3, 20), cashflow.Pessimistic)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)
	assert.Equal(t, 1, f.receivables.listCalls)

	second, err := f.svc.Project(ctx, ProjectionScope{}, date(2025, 3, 10), date(2025, 3, 20), cashflow.Pessimistic)
	require.NoError(t, err)
	assert.Equal(t, 1, f.receivables.listCalls, "a cache hit skips the repositories")
	assert.True(t, first.Summary.ClosingBalance.Equal(second.Summary.ClosingBalance))
	assert.Len(t, second.Days, len(first.Days))

	for key := range f.cache.data {
		assert.Equal(t, "cashflow:projection:PESSIMISTIC:2025-03-10:2025-03-20:100.00:all", key)
	}
}

func TestProjection_CacheFailureStillComputes(t *testing.T) {
	f := newProjectionFixture(t)
	f.cache.getErr = errBoom

	p, err := f.svc.Project(context.Background(), ProjectionScope{}, date(2025, 3, 10), date(2025, 3, 11), cashflow.Optimistic)
	require.NoError(t, err)
	assert.Len(t, p.Days, 2)
}

func TestProjection_RejectsInvalidWindow(t *testing.T) {
	f := newProjectionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Project(ctx, ProjectionScope{}, date(2025, 3, 10), date(2025, 3, 9), cashflow.Optimistic)
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.svc.Project(ctx, ProjectionScope{}, date(2025, 1, 1), date(2026, 6, 1), cashflow.Optimistic)
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Zero(t, f.receivables.listCalls)
}
