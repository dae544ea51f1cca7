package service

import (
	"bytes"
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

// AppendMovementInput describes a movement to post. Id, timestamp and
// balance-after are always assigned by the ledger.
type AppendMovementInput struct {
	AccountID   uuid.UUID
	Direction   model.Direction
	Amount      decimal.Decimal
	Method      model.PaymentMethod
	SourceType  model.SourceType
	SourceRefID *uuid.UUID
	Description string
}

type CreateAccountInput struct {
	Name           string
	Type           model.AccountType
	InitialBalance decimal.Decimal
}

type TransferInput struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Method        model.PaymentMethod // defaults to transfer
	Description   string
}

// TransferResult holds both legs; they share SourceRefID.
type TransferResult struct {
	TransferID uuid.UUID
	Out        *model.Movement
	In         *model.Movement
}

// LedgerService owns every write to the movements table and derives balances from it.
type LedgerService interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (*model.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error)
	UpdateInitialBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) (*model.Account, error)
	// DeactivateAccount deletes an account that never had movements and
	// deactivates one that has. deleted reports which happened.
	DeactivateAccount(ctx context.Context, id uuid.UUID) (deleted bool, err error)

	Append(ctx context.Context, in AppendMovementInput) (*model.Movement, error)
	// AppendTx posts a movement inside a caller-owned transaction (nil in unit tests).
	AppendTx(ctx context.Context, tx *gorm.DB, in AppendMovementInput) (*model.Movement, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]model.Movement, error)
	Reverse(ctx context.Context, movementID uuid.UUID, reason string) (*model.Movement, error)
	Transfer(ctx context.Context, in TransferInput) (*TransferResult, error)

	CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, accountID uuid.UUID, at time.Time) (decimal.Decimal, error)
	// AggregateBalanceAsOf sums BalanceAsOf over accountIDs, or over every active
	// account when accountIDs is empty.
	AggregateBalanceAsOf(ctx context.Context, accountIDs []uuid.UUID, at time.Time) (decimal.Decimal, error)
}

type ledgerService struct {
	repo repository.LedgerRepository
	now  func() time.Time
}

func NewLedgerService(repo repository.LedgerRepository, opts ...Option) LedgerService {
	o := buildOptions(opts)
	return &ledgerService{repo: repo, now: o.now}
}

// ── Accounts ──────────────────────────────────────────────────────────────────

func (s *ledgerService) CreateAccount(ctx context.Context, in CreateAccountInput) (*model.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierror.Validation("account name is required")
	}
	if _, err := model.ParseAccountType(string(in.Type)); err != nil {
		return nil, apierror.Validation("%v", err)
	}
	acc := &model.Account{
		ID:             uuid.New(),
		Name:           name,
		Type:           in.Type,
		InitialBalance: money(in.InitialBalance),
		Active:         true,
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	acc, err := s.repo.FindAccount(ctx, nil, id)
	if err != nil {
		return nil, loadErr(err, "account", id)
	}
	return acc, nil
}

func (s *ledgerService) ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	return s.repo.ListAccounts(ctx, !includeInactive)
}

func (s *ledgerService) UpdateInitialBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) (*model.Account, error) {
	var acc *model.Account
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		acc, err = s.repo.LockAccount(ctx, tx, id)
		if err != nil {
			return loadErr(err, "account", id)
		}
		n, err := s.repo.CountMovements(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count movements: %w", err)
		}
		if n > 0 {
			return apierror.InvalidState("initial balance of account %s is frozen: it already has %d movements", id, n)
		}
		acc.InitialBalance = money(balance)
		return s.repo.UpdateAccount(ctx, tx, acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *ledgerService) DeactivateAccount(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		acc, err := s.repo.LockAccount(ctx, tx, id)
		if err != nil {
			return loadErr(err, "account", id)
		}
		n, err := s.repo.CountMovements(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count movements: %w", err)
		}
		if n == 0 {
			deleted = true
			return s.repo.DeleteAccount(ctx, tx, id)
		}
		acc.Active = false
		return s.repo.UpdateAccount(ctx, tx, acc)
	})
	return deleted, err
}

// ── Movements ─────────────────────────────────────────────────────────────────

func (s *ledgerService) Append(ctx context.Context, in AppendMovementInput) (*model.Movement, error) {
	var mov *model.Movement
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = s.AppendTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// AppendTx locks the account row so concurrent appends see each other's
// balance-after and the running balance never forks.
func (s *ledgerService) AppendTx(ctx context.Context, tx *gorm.DB, in AppendMovementInput) (*model.Movement, error) {
	return s.appendTx(ctx, tx, in, nil)
}

func (s *ledgerService) appendTx(ctx context.Context, tx *gorm.DB, in AppendMovementInput, reversalOf *uuid.UUID) (*model.Movement, error) {
	amount := money(in.Amount)
	if !amount.IsPositive() {
		return nil, apierror.InvalidAmount("movement amount must be greater than zero, got %s", in.Amount.String())
	}
	if err := validateMovementEnums(in); err != nil {
		return nil, err
	}

	acc, err := s.repo.LockAccount(ctx, tx, in.AccountID)
	if err != nil {
		return nil, loadErr(err, "account", in.AccountID)
	}
	if !acc.Active {
		return nil, apierror.InvalidState("account %s is inactive", acc.ID)
	}

	previous := acc.InitialBalance
	last, err := s.repo.LastMovement(ctx, tx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("load last movement: %w", err)
	}
	if last != nil {
		previous = last.BalanceAfter
	}

	mov := &model.Movement{
		ID:          uuid.New(),
		AccountID:   acc.ID,
		Direction:   in.Direction,
		Amount:      amount,
		Method:      in.Method,
		SourceType:  in.SourceType,
		SourceRefID: in.SourceRefID,
		Description: strings.TrimSpace(in.Description),
		ReversalOf:  reversalOf,
		OccurredAt:  s.now().UTC(),
	}
	mov.BalanceAfter = previous.Add(mov.Signed())

	if err := s.repo.CreateMovement(ctx, tx, mov); err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}
	return mov, nil
}

func validateMovementEnums(in AppendMovementInput) error {
	fields := map[string]string{}
	if _, err := model.ParseDirection(string(in.Direction)); err != nil {
		fields["direction"] = err.Error()
	}
	if _, err := model.ParsePaymentMethod(string(in.Method)); err != nil {
		fields["method"] = err.Error()
	}
	if _, err := model.ParseSourceType(string(in.SourceType)); err != nil {
		fields["source_type"] = err.Error()
	}
	if len(fields) > 0 {
		return apierror.ValidationFields(fields)
	}
	return nil
}

func (s *ledgerService) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]model.Movement, error) {
	if _, err := s.repo.FindAccount(ctx, nil, accountID); err != nil {
		return nil, loadErr(err, "account", accountID)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, apierror.Validation("date range end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return s.repo.ListMovements(ctx, accountID, from, to)
}

// Reverse posts the equal-and-opposite movement. Each movement can be reversed
// once, and a reversal is never reversed itself.
func (s *ledgerService) Reverse(ctx context.Context, movementID uuid.UUID, reason string) (*model.Movement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apierror.Validation("a reason is required to reverse a movement")
	}

	var rev *model.Movement
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		orig, err := s.repo.FindMovement(ctx, tx, movementID)
		if err != nil {
			return loadErr(err, "movement", movementID)
		}
		if orig.ReversalOf != nil {
			return apierror.InvalidState("movement %s is itself a reversal", movementID)
		}
		// Lock the account before checking for an existing reversal so two
		// concurrent reversals of the same movement serialize.
		if _, err := s.repo.LockAccount(ctx, tx, orig.AccountID); err != nil {
			return loadErr(err, "account", orig.AccountID)
		}
		existing, err := s.repo.FindReversal(ctx, tx, movementID)
		if err != nil {
			return fmt.Errorf("find reversal: %w", err)
		}
		if existing != nil {
			return apierror.InvalidState("movement %s was already reversed by %s", movementID, existing.ID)
		}

		opposite := model.DirectionIn
		if orig.Direction == model.DirectionIn {
			opposite = model.DirectionOut
		}
		rev, err = s.appendTx(ctx, tx, AppendMovementInput{
			AccountID:   orig.AccountID,
			Direction:   opposite,
			Amount:      orig.Amount,
			Method:      orig.Method,
			SourceType:  orig.SourceType,
			SourceRefID: orig.SourceRefID,
			Description: fmt.Sprintf("Reversal of %s: %s", orig.ID, reason),
		}, &orig.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("movement_id", movementID.String()).Str("reversal_id", rev.ID.String()).Msg("ledger: movement reversed")
	return rev, nil
}

func (s *ledgerService) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.FromAccountID == in.ToAccountID {
		return nil, apierror.Validation("transfer source and destination must differ")
	}
	if !money(in.Amount).IsPositive() {
		return nil, apierror.InvalidAmount("transfer amount must be greater than zero, got %s", in.Amount.String())
	}
	method := in.Method
	if method == "" {
		method = model.MethodTransfer
	}

	res := &TransferResult{TransferID: uuid.New()}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Lock in id order so two opposite transfers cannot deadlock.
		first, second := in.FromAccountID, in.ToAccountID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}
		for _, id := range []uuid.UUID{first, second} {
			if _, err := s.repo.LockAccount(ctx, tx, id); err != nil {
				return loadErr(err, "account", id)
			}
		}

		desc := strings.TrimSpace(in.Description)
		if desc == "" {
			desc = "Transfer"
		}
		var err error
		res.Out, err = s.AppendTx(ctx, tx, AppendMovementInput{
			AccountID: in.FromAccountID, Direction: model.DirectionOut, Amount: in.Amount,
			Method: method, SourceType: model.SourceTransfer, SourceRefID: &res.TransferID, Description: desc,
		})
		if err != nil {
			return err
		}
		res.In, err = s.AppendTx(ctx, tx, AppendMovementInput{
			AccountID: in.ToAccountID, Direction: model.DirectionIn, Amount: in.Amount,
			Method: method, SourceType: model.SourceTransfer, SourceRefID: &res.TransferID, Description: desc,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ── Balances ──────────────────────────────────────────────────────────────────

func (s *ledgerService) CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return s.balance(ctx, accountID, nil)
}

func (s *ledgerService) BalanceAsOf(ctx context.Context, accountID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	return s.balance(ctx, accountID, &at)
}

func (s *ledgerService) balance(ctx context.Context, accountID uuid.UUID, at *time.Time) (decimal.Decimal, error) {
	acc, err := s.repo.FindAccount(ctx, nil, accountID)
	if err != nil {
		return decimal.Zero, loadErr(err, "account", accountID)
	}
	sum, err := s.repo.SumSigned(ctx, nil, repository.MovementFilter{
		AccountIDs: []uuid.UUID{accountID},
		To:         at,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return money(acc.InitialBalance.Add(sum)), nil
}

func (s *ledgerService) AggregateBalanceAsOf(ctx context.Context, accountIDs []uuid.UUID, at time.Time) (decimal.Decimal, error) {
	var accounts []model.Account
	if len(accountIDs) == 0 {
		var err error
		accounts, err = s.repo.ListAccounts(ctx, true)
		if err != nil {
			return decimal.Zero, fmt.Errorf("list accounts: %w", err)
		}
	} else {
		for _, id := range accountIDs {
			acc, err := s.repo.FindAccount(ctx, nil, id)
			if err != nil {
				return decimal.Zero, loadErr(err, "account", id)
			}
			accounts = append(accounts, *acc)
		}
	}
	if len(accounts) == 0 {
		return decimal.Zero, nil
	}

	total := decimal.Zero
	ids := make([]uuid.UUID, 0, len(accounts))
	for _, acc := range accounts {
		total = total.Add(acc.InitialBalance)
		ids = append(ids, acc.ID)
	}
	sum, err := s.repo.SumSigned(ctx, nil, repository.MovementFilter{AccountIDs: ids, To: &at})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return money(total.Add(sum)), nil
}
