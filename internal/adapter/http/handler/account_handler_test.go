package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/ledgerd/internal/adapter/http/dto"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
	"github.com/iho/ledgerd/internal/usecase"
)

type accountServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn      func(ctx context.Context, id string) (*domain.Account, error)
	depositFn  func(ctx context.Context, id string, amount int64) (*domain.Account, error)
	withdrawFn func(ctx context.Context, id string, amount int64) (*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func (s *accountServiceStub) Deposit(ctx context.Context, id string, amount int64) (*domain.Account, error) {
	return s.depositFn(ctx, id, amount)
}

func (s *accountServiceStub) Withdraw(ctx context.Context, id string, amount int64) (*domain.Account, error) {
	return s.withdrawFn(ctx, id, amount)
}

// withURLParam routes req as if chi matched {id}.
func withURLParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// countingRetrier retries up to max times on conflict.
type countingRetrier struct {
	max   int
	calls int
}

func (r *countingRetrier) Retry(_ context.Context, operation func() error) error {
	var err error
	for range r.max + 1 {
		r.calls++
		if err = operation(); !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{ID: "01HX", Name: "alice"}

	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return account, nil
		},
	}, nil, nil)

	body, _ := json.Marshal(dto.CreateAccountRequest{Name: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Name != "alice" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccountNumber != "01HX" || resp.Balance != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"name":`},
		{name: "unknown field", body: `{"name":"a","currency":"USD"}`},
		{name: "missing name", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(&accountServiceStub{
				createFn: func(context.Context, usecase.CreateAccountInput) (*domain.Account, error) {
					t.Fatal("service should not be called")
					return nil, nil
				},
			}, nil, nil)

			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAccountHandler_Create_InvalidName(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(context.Context, usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrInvalidAccountName
		},
	}, nil, nil)

	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"name":"  "}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "not found", err: domain.ErrAccountNotFound, wantStatus: http.StatusNotFound},
		{name: "store failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(&accountServiceStub{
				getFn: func(ctx context.Context, id string) (*domain.Account, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Account{ID: id, Name: "alice", Balance: 42}, nil
				},
			}, nil, nil)

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1", nil), "acc-1")
			rec := httptest.NewRecorder()
			handler.Get(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAccountHandler_DepositAndWithdraw(t *testing.T) {
	tests := []struct {
		name       string
		withdraw   bool
		err        error
		wantStatus int
	}{
		{name: "deposit ok", wantStatus: http.StatusOK},
		{name: "deposit invalid amount", err: domain.ErrInvalidAmount, wantStatus: http.StatusBadRequest},
		{name: "deposit missing account", err: domain.ErrAccountNotFound, wantStatus: http.StatusNotFound},
		{name: "deposit overflow", err: domain.ErrBalanceOverflow, wantStatus: http.StatusUnprocessableEntity},
		{name: "withdraw ok", withdraw: true, wantStatus: http.StatusOK},
		{name: "withdraw overdraft", withdraw: true, err: domain.ErrInsufficientFunds, wantStatus: http.StatusUnprocessableEntity},
		{name: "withdraw conflict", withdraw: true, err: domain.ErrConflict, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			var gotAmount int64
			apply := func(ctx context.Context, id string, amount int64) (*domain.Account, error) {
				gotID, gotAmount = id, amount
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.Account{ID: id, Balance: amount}, nil
			}

			handler := NewAccountHandler(&accountServiceStub{depositFn: apply, withdrawFn: apply}, nil, nil)

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":25}`)), "acc-1")
			rec := httptest.NewRecorder()
			if tt.withdraw {
				handler.Withdraw(rec, req)
			} else {
				handler.Deposit(rec, req)
			}

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if gotID != "acc-1" || gotAmount != 25 {
				t.Fatalf("expected acc-1/25, got %s/%d", gotID, gotAmount)
			}
		})
	}
}

func TestAccountHandler_RetriesConflicts(t *testing.T) {
	attempts := 0
	handler := NewAccountHandler(&accountServiceStub{
		depositFn: func(ctx context.Context, id string, amount int64) (*domain.Account, error) {
			attempts++
			if attempts < 3 {
				return nil, domain.ErrConflict
			}
			return &domain.Account{ID: id, Balance: amount}, nil
		},
	}, &countingRetrier{max: 5}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}`)), "acc-1")
	rec := httptest.NewRecorder()
	handler.Deposit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after retries, got %d", rec.Code)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestAccountHandler_CountsOperations(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	handler := NewAccountHandler(&accountServiceStub{
		withdrawFn: func(context.Context, string, int64) (*domain.Account, error) {
			return nil, domain.ErrInsufficientFunds
		},
	}, nil, m)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":5}`)), "acc-1")
	handler.Withdraw(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "rejected")); got != 1 {
		t.Fatalf("expected one rejected withdraw, got %v", got)
	}
}
