package service

import (
	"context"
	"testing"

	"salonledger/internal/apierror"
	"salonledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	repo  *memLedgerRepo
	clock *stepClock
	svc   LedgerService
}

func newLedgerFixture() *ledgerFixture {
	repo := newMemLedgerRepo()
	clock := newStepClock()
	return &ledgerFixture{repo: repo, clock: clock, svc: NewLedgerService(repo, WithClock(clock.Now))}
}

func (f *ledgerFixture) account(t *testing.T, initial string) *model.Account {
	t.Helper()
	acc, err := f.svc.CreateAccount(context.Background(), CreateAccountInput{
		Name: "Till " + uuid.NewString()[:4], Type: model.AccountCash, InitialBalance: dec(initial),
	})
	require.NoError(t, err)
	return acc
}

func cashSale(accountID uuid.UUID, amount string) AppendMovementInput {
	return AppendMovementInput{
		AccountID:  accountID,
		Direction:  model.DirectionIn,
		Amount:     dec(amount),
		Method:     model.MethodCash,
		SourceType: model.SourceSale,
	}
}

func TestAppend_BalanceAfterChainsFromInitialBalance(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	acc := f.account(t, "100")

	m1, err := f.svc.Append(ctx, cashSale(acc.ID, "50"))
	require.NoError(t, err)
	assert.True(t, m1.BalanceAfter.Equal(dec("150")))
	assert.NotEqual(t, uuid.Nil, m1.ID)

	out := cashSale(acc.ID, "30.005")
	out.Direction = model.DirectionOut
	m2, err := f.svc.Append(ctx, out)
	require.NoError(t, err)
	assert.True(t, m2.Amount.Equal(dec("30.01")), "amounts are rounded to cents")
	assert.True(t, m2.BalanceAfter.Equal(dec("119.99")))
	assert.True(t, m2.OccurredAt.After(m1.OccurredAt))

	bal, err := f.svc.CurrentBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(m2.BalanceAfter), "balance = initial + Σin - Σout = last balance_after")
}

func TestAppend_RejectsNonPositiveAmounts(t *testing.T) {
	f := newLedgerFixture()
	acc := f.account(t, "0")

	for _, amount := range []string{"0", "-5", "0.004"} {
		_, err := f.svc.Append(context.Background(), cashSale(acc.ID, amount))
		assert.ErrorIs(t, err, apierror.ErrInvalidAmount, amount)
	}
	assert.Empty(t, f.repo.movements)
}

func TestAppend_ValidatesAccountAndEnums(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	acc := f.account(t, "0")

	_, err := f.svc.Append(ctx, cashSale(uuid.New(), "10"))
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	bad := cashSale(acc.ID, "10")
	bad.Method = "cheque"
	bad.SourceType = "gift"
	_, err = f.svc.Append(ctx, bad)
	require.ErrorIs(t, err, apierror.ErrValidation)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "method")
	assert.Contains(t, apiErr.Fields, "source_type")

	deleted, err := f.svc.DeactivateAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	kept := f.account(t, "0")
	_, err = f.svc.Append(ctx, cashSale(kept.ID, "1"))
	require.NoError(t, err)
	deleted, err = f.svc.DeactivateAccount(ctx, kept.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "accounts with history are deactivated, not deleted")

	_, err = f.svc.Append(ctx, cashSale(kept.ID, "1"))
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
}

func TestReverse_RestoresBalanceOnce(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	acc := f.account(t, "20")

	orig, err := f.svc.Append(ctx, cashSale(acc.ID, "80"))
	require.NoError(t, err)

	_, err = f.svc.Reverse(ctx, orig.ID, "  ")
	assert.ErrorIs(t, err, apierror.ErrValidation)

	rev, err := f.svc.Reverse(ctx, orig.ID, "typo")
	require.NoError(t, err)
	assert.Equal(t, model.DirectionOut, rev.Direction)
	assert.True(t, rev.Amount.Equal(orig.Amount))
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, orig.ID, *rev.ReversalOf)
	assert.Contains(t, rev.Description, "typo")

	bal, err := f.svc.CurrentBalance(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("20")))

	_, err = f.svc.Reverse(ctx, orig.ID, "again")
	assert.ErrorIs(t, err, apierror.ErrInvalidState)

	_, err = f.svc.Reverse(ctx, rev.ID, "undo the undo")
	assert.ErrorIs(t, err, apierror.ErrInvalidState)

	_, err = f.svc.Reverse(ctx, uuid.New(), "missing")
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	assert.Len(t, f.repo.movements, 2)
}

func TestTransfer_LegsNetToZero(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	till := f.account(t, "500")
	bank := f.account(t, "0")

	res, err := f.svc.Transfer(ctx, TransferInput{FromAccountID: till.ID, ToAccountID: bank.ID, Amount: dec("300")})
	require.NoError(t, err)
	assert.Equal(t, model.MethodTransfer, res.Out.Method)
	assert.Equal(t, model.SourceTransfer, res.In.SourceType)
	require.NotNil(t, res.Out.SourceRefID)
	assert.Equal(t, res.TransferID, *res.Out.SourceRefID)
	assert.Equal(t, res.TransferID, *res.In.SourceRefID)
	assert.True(t, res.Out.Signed().Add(res.In.Signed()).IsZero())

	total, err := f.svc.AggregateBalanceAsOf(ctx, nil, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("500")))

	_, err = f.svc.Transfer(ctx, TransferInput{FromAccountID: till.ID, ToAccountID: till.ID, Amount: dec("1")})
	assert.ErrorIs(t, err, apierror.ErrValidation)

	_, err = f.svc.Transfer(ctx, TransferInput{FromAccountID: till.ID, ToAccountID: bank.ID, Amount: decimal.Zero})
	assert.ErrorIs(t, err, apierror.ErrInvalidAmount)
}

func TestBalanceAsOf_IgnoresLaterMovements(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	acc := f.account(t, "10")

	first, err := f.svc.Append(ctx, cashSale(acc.ID, "5"))
	require.NoError(t, err)
	_, err = f.svc.Append(ctx, cashSale(acc.ID, "7"))
	require.NoError(t, err)

	bal, err := f.svc.BalanceAsOf(ctx, acc.ID, first.OccurredAt)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("15")))

	bal, err = f.svc.BalanceAsOf(ctx, acc.ID, first.OccurredAt.Add(-1))
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("10")))
}

func TestUpdateInitialBalance_FrozenAfterFirstMovement(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	acc := f.account(t, "0")

	updated, err := f.svc.UpdateInitialBalance(ctx, acc.ID, dec("42.5"))
	require.NoError(t, err)
	assert.True(t, updated.InitialBalance.Equal(dec("42.50")))

	_, err = f.svc.Append(ctx, cashSale(acc.ID, "1"))
	require.NoError(t, err)

	_, err = f.svc.UpdateInitialBalance(ctx, acc.ID, dec("0"))
	assert.ErrorIs(t, err, apierror.ErrInvalidState)
}

func TestListByAccount_RejectsInvertedRange(t *testing.T) {
	f := newLedgerFixture()
	acc := f.account(t, "0")
	from := f.clock.Now()
	to := from.Add(-1)
	_, err := f.svc.ListByAccount(context.Background(), acc.ID, &from, &to)
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestCreateAccount_Validates(t *testing.T) {
	f := newLedgerFixture()
	_, err := f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: " ", Type: model.AccountBank})
	assert.ErrorIs(t, err, apierror.ErrValidation)
	_, err = f.svc.CreateAccount(context.Background(), CreateAccountInput{Name: "Safe", Type: "VAULT"})
	assert.ErrorIs(t, err, apierror.ErrValidation)
}
