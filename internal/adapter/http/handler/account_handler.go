package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgerd/internal/adapter/http/dto"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
	"github.com/iho/ledgerd/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	Deposit(ctx context.Context, id string, amount int64) (*domain.Account, error)
	Withdraw(ctx context.Context, id string, amount int64) (*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	retrier   Retrier
	metrics   *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. A nil retrier submits every
// operation once; a nil metrics skips operation counters.
func NewAccountHandler(accountUC AccountService, retrier Retrier, m *metrics.Metrics) *AccountHandler {
	if retrier == nil {
		retrier = runOnce{}
	}
	return &AccountHandler{accountUC: accountUC, retrier: retrier, metrics: m}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var account *domain.Account
	err := h.retrier.Retry(r.Context(), func() error {
		var err error
		account, err = h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
		return err
	})
	observe(h.metrics, "create", err)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by number.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account number", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Deposit credits the account in the path.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "deposit", h.accountUC.Deposit)
}

// Withdraw debits the account in the path.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "withdraw", h.accountUC.Withdraw)
}

func (h *AccountHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	apply func(ctx context.Context, id string, amount int64) (*domain.Account, error),
) {
	id := chi.URLParam(r, "id")

	var req dto.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var account *domain.Account
	err := h.retrier.Retry(r.Context(), func() error {
		var err error
		account, err = apply(r.Context(), id, req.Amount)
		return err
	})
	observe(h.metrics, operation, err)
	if err != nil {
		writeDomainError(w, "failed to "+operation, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
