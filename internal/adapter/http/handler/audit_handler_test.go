package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/ledgerd/internal/adapter/http/dto"
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/infrastructure/metrics"
)

type auditServiceStub struct {
	records []domain.AuditRecord
	err     error
}

func (s *auditServiceStub) AuditLog(context.Context, string) ([]domain.AuditRecord, error) {
	return s.records, s.err
}

func TestAuditHandler_List(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	handler := NewAuditHandler(&auditServiceStub{records: []domain.AuditRecord{
		{Sequence: 1, Debit: 5, Description: "send to #900"},
		{Sequence: 0, Credit: 100, Description: "deposit"},
	}}, m)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "1")
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.AuditRecordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 2 || resp[0].Sequence != 1 || resp[1].Credit != 100 {
		t.Fatalf("unexpected audit response %+v", resp)
	}
	if got := testutil.CollectAndCount(m.AuditRecordsServed); got != 1 {
		t.Fatalf("expected audit histogram to be collected once, got %d", got)
	}
}

func TestAuditHandler_EmptyLogIsArray(t *testing.T) {
	handler := NewAuditHandler(&auditServiceStub{records: []domain.AuditRecord{}}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "1"))

	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestAuditHandler_UnknownAccount(t *testing.T) {
	handler := NewAuditHandler(&auditServiceStub{err: domain.ErrAccountNotFound}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
