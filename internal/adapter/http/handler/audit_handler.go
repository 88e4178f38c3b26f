package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgerd/internal/adapter/http/dto"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	AuditLog(ctx context.Context, accountID string) ([]domain.AuditRecord, error)
}

// AuditHandler serves account audit logs.
type AuditHandler struct {
	auditUC AuditService
	metrics *metrics.Metrics
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC AuditService, m *metrics.Metrics) *AuditHandler {
	return &AuditHandler{auditUC: auditUC, metrics: m}
}

// List returns the audit log of the account in the path, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.auditUC.AuditLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to read audit log", err)
		return
	}

	if h.metrics != nil {
		h.metrics.AuditRecordsServed.Observe(float64(len(records)))
	}

	writeJSON(w, http.StatusOK, dto.AuditFromDomain(records))
}
