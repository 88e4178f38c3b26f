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

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Account, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	retrier    Retrier
	metrics    *metrics.Metrics
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, retrier Retrier, m *metrics.Metrics) *TransferHandler {
	if retrier == nil {
		retrier = runOnce{}
	}
	return &TransferHandler{transferUC: transferUC, retrier: retrier, metrics: m}
}

// Send moves funds from the account in the path and returns the sender.
func (h *TransferHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "id"))

	var sender *domain.Account
	err := h.retrier.Retry(r.Context(), func() error {
		var err error
		sender, err = h.transferUC.Transfer(r.Context(), input)
		return err
	})
	observe(h.metrics, "send", err)
	if err != nil {
		writeDomainError(w, "failed to send", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(sender))
}
