package usecase

import (
	"context"
	"strings"

	"github.com/iho/ledgerd/internal/domain"
)

// AccountUseCase handles single-account ledger operations.
//
// Every mutation reads a snapshot, computes the next one and commits it
// conditioned on the snapshot being unchanged. Lost races surface as
// domain.ErrConflict; retrying is left to the caller.
type AccountUseCase struct {
	store AccountStore
	idGen IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store AccountStore, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		store: store,
		idGen: idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name string
}

// CreateAccount creates a new account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:      uc.idGen.Generate(),
		Name:    strings.TrimSpace(input.Name),
		Balance: 0,
	}

	// Nothing exists yet to race against, so the batch carries no Match.
	if _, err := uc.store.Commit(ctx, []domain.DocumentOp{domain.Put(account)}); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves the latest snapshot of an account.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.store.Get(ctx, id)
}

// Deposit credits amount to the account.
func (uc *AccountUseCase) Deposit(ctx context.Context, id string, amount int64) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	before, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after, err := before.ApplyCredit(amount)
	if err != nil {
		return nil, err
	}

	return uc.commitMutation(ctx, before, after)
}

// Withdraw debits amount from the account.
func (uc *AccountUseCase) Withdraw(ctx context.Context, id string, amount int64) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	before, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after, err := before.ApplyDebit(amount)
	if err != nil {
		return nil, err
	}

	return uc.commitMutation(ctx, before, after)
}

func (uc *AccountUseCase) commitMutation(ctx context.Context, before, after *domain.Account) (*domain.Account, error) {
	_, err := uc.store.Commit(ctx, []domain.DocumentOp{
		domain.Match(before.ID, before),
		domain.Put(after),
	})
	if err != nil {
		return nil, err
	}

	return after, nil
}
