package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/ledgerd/internal/adapter/repository/memory"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/usecase"
	"github.com/iho/ledgerd/internal/usecase/mocks"
)

func TestAccountUseCase_CreateAccount(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.CreateAccountInput
		setupMocks  func(*mocks.MockAccountStore)
		expectError error
	}{
		{
			name:  "successful account creation",
			input: usecase.CreateAccountInput{Name: "  alice "},
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Commit(gomock.Any(), []domain.DocumentOp{
					domain.Put(&domain.Account{ID: "1", Name: "alice"}),
				}).Return(int64(1), nil)
			},
		},
		{
			name:        "invalid name never reaches the store",
			input:       usecase.CreateAccountInput{Name: " "},
			setupMocks:  func(store *mocks.MockAccountStore) {},
			expectError: domain.ErrInvalidAccountName,
		},
		{
			name:  "store failure is surfaced",
			input: usecase.CreateAccountInput{Name: "alice"},
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))
			},
			expectError: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockAccountStore(ctrl)
			tt.setupMocks(store)

			uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())
			account, err := uc.CreateAccount(context.Background(), tt.input)

			if tt.expectError != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(tt.expectError, domain.ErrInvalidAccountName) && !errors.Is(err, domain.ErrInvalidAccountName) {
					t.Fatalf("expected ErrInvalidAccountName, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.ID != "1" || account.Name != "alice" || account.Balance != 0 {
				t.Errorf("unexpected account %+v", account)
			}
		})
	}
}

func TestAccountUseCase_Deposit(t *testing.T) {
	before := &domain.Account{ID: "acc-1", Name: "alice", Balance: 40, Version: 2}

	tests := []struct {
		name        string
		amount      int64
		setupMocks  func(*mocks.MockAccountStore)
		expectError error
		wantBalance int64
	}{
		{
			name:   "commits match and put",
			amount: 60,
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Get(gomock.Any(), "acc-1").Return(before.Clone(), nil)
				store.EXPECT().Commit(gomock.Any(), []domain.DocumentOp{
					domain.Match("acc-1", before),
					domain.Put(&domain.Account{ID: "acc-1", Name: "alice", Balance: 100, Version: 3}),
				}).Return(int64(9), nil)
			},
			wantBalance: 100,
		},
		{
			name:        "zero amount",
			amount:      0,
			setupMocks:  func(store *mocks.MockAccountStore) {},
			expectError: domain.ErrInvalidAmount,
		},
		{
			name:   "missing account",
			amount: 10,
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Get(gomock.Any(), "acc-1").Return(nil, domain.ErrAccountNotFound)
			},
			expectError: domain.ErrAccountNotFound,
		},
		{
			name:   "large amount has no upper bound",
			amount: 2_000_000_000_000,
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Get(gomock.Any(), "acc-1").Return(before.Clone(), nil)
				store.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(int64(10), nil)
			},
			wantBalance: 2_000_000_000_040,
		},
		{
			name:   "credit past max int64",
			amount: math.MaxInt64 - 39,
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Get(gomock.Any(), "acc-1").Return(before.Clone(), nil)
			},
			expectError: domain.ErrBalanceOverflow,
		},
		{
			name:   "lost race is not retried",
			amount: 10,
			setupMocks: func(store *mocks.MockAccountStore) {
				store.EXPECT().Get(gomock.Any(), "acc-1").Return(before.Clone(), nil)
				store.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(int64(0), domain.ErrConflict).Times(1)
			},
			expectError: domain.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockAccountStore(ctrl)
			tt.setupMocks(store)

			uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())
			account, err := uc.Deposit(context.Background(), "acc-1", tt.amount)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.Balance != tt.wantBalance {
				t.Errorf("expected balance %d, got %d", tt.wantBalance, account.Balance)
			}
		})
	}
}

func TestAccountUseCase_Withdraw(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())

	account, err := uc.CreateAccount(ctx, usecase.CreateAccountInput{Name: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uc.Deposit(ctx, account.ID, 50); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	t.Run("negative amount leaves balance unchanged", func(t *testing.T) {
		_, err := uc.Withdraw(ctx, account.ID, -5)
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
		assertBalance(t, store, account.ID, 50)
	})

	t.Run("overdraft is refused before commit", func(t *testing.T) {
		_, err := uc.Withdraw(ctx, account.ID, 51)
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		assertBalance(t, store, account.ID, 50)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := uc.Withdraw(ctx, "nope", 1)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("exact balance", func(t *testing.T) {
		got, err := uc.Withdraw(ctx, account.ID, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Balance != 0 {
			t.Fatalf("expected 0, got %d", got.Balance)
		}
	})
}

func TestAccountUseCase_WithdrawDepositRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())

	account, _ := uc.CreateAccount(ctx, usecase.CreateAccountInput{Name: "alice"})
	if _, err := uc.Deposit(ctx, account.ID, 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	for _, amount := range []int64{1, 13, 250, 500} {
		if _, err := uc.Withdraw(ctx, account.ID, amount); err != nil {
			t.Fatalf("withdraw %d: %v", amount, err)
		}
		if _, err := uc.Deposit(ctx, account.ID, amount); err != nil {
			t.Fatalf("deposit %d: %v", amount, err)
		}
		assertBalance(t, store, account.ID, 500)
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockAccountStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", Name: "test"}, nil)

	uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())
	account, err := uc.GetAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Name != "test" {
		t.Errorf("expected name test, got %q", account.Name)
	}
}

func assertBalance(t *testing.T, store usecase.AccountStore, id string, want int64) {
	t.Helper()

	account, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	if account.Balance != want {
		t.Fatalf("expected balance %d for %s, got %d", want, id, account.Balance)
	}
}

func TestAccountUseCase_DepositNeverWrapsBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	uc := usecase.NewAccountUseCase(store, mocks.NewMockIDGenerator())

	seeded := &domain.Account{ID: "a", Name: "a", Balance: math.MaxInt64 - 5}
	if _, err := store.Commit(ctx, []domain.DocumentOp{domain.Match("a", nil), domain.Put(seeded)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := uc.Deposit(ctx, "a", 10); !errors.Is(err, domain.ErrBalanceOverflow) {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	assertBalance(t, store, "a", math.MaxInt64-5)

	if _, err := uc.Deposit(ctx, "a", 5); err != nil {
		t.Fatalf("deposit up to the limit: %v", err)
	}
	assertBalance(t, store, "a", math.MaxInt64)
}
