package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iho/ledgerd/internal/adapter/http/dto"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
)

// Retrier re-runs an operation that lost a concurrent commit.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// runOnce is used when no retrier is configured.
type runOnce struct{}

func (runOnce) Retry(_ context.Context, operation func() error) error {
	return operation()
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to its status and writes it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// mapDomainError maps domain errors to HTTP status codes.
// Receiver lookups wrap ErrAccountNotFound, so they are matched first.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrReceiverNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAccountName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// resultLabel classifies an operation outcome for metrics.
func resultLabel(err error) string {
	switch status := mapDomainError(err); {
	case err == nil:
		return "ok"
	case status == http.StatusConflict:
		return "conflict"
	case status < http.StatusInternalServerError:
		return "rejected"
	default:
		return "error"
	}
}

func observe(m *metrics.Metrics, operation string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, resultLabel(err)).Inc()
}
