package dto

import (
	"github.com/iho/ledgerd/internal/domain"
	"github.com/iho/ledgerd/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
	Balance       int64  `json:"balance"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountNumber: a.ID,
		Name:          a.Name,
		Balance:       a.Balance,
	}
}

// AuditRecordResponse is one audit log line. Zero debit or credit is omitted.
type AuditRecordResponse struct {
	Sequence    int    `json:"sequence"`
	Debit       int64  `json:"debit,omitempty"`
	Credit      int64  `json:"credit,omitempty"`
	Description string `json:"description"`
}

// AuditFromDomain converts audit records to responses, preserving order.
func AuditFromDomain(records []domain.AuditRecord) []AuditRecordResponse {
	result := make([]AuditRecordResponse, len(records))
	for i, r := range records {
		result[i] = AuditRecordResponse{
			Sequence:    r.Sequence,
			Debit:       r.Debit,
			Credit:      r.Credit,
			Description: r.Description,
		}
	}
	return result
}

// ConsistencyResponse reports a full log replay.
type ConsistencyResponse struct {
	Status     string   `json:"status"`
	Consistent bool     `json:"consistent"`
	Entries    int      `json:"entries"`
	Accounts   int      `json:"accounts"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// ConsistencyFromReport converts a consistency report to a response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	status := "consistent"
	if !r.Consistent {
		status = "inconsistent"
	}
	return &ConsistencyResponse{
		Status:     status,
		Consistent: r.Consistent,
		Entries:    r.Entries,
		Accounts:   r.Accounts,
		Mismatches: r.Mismatches,
	}
}

// ReconciliationResponse reports one account's stored and replayed balances.
type ReconciliationResponse struct {
	AccountNumber     string `json:"accountNumber"`
	RecordedBalance   int64  `json:"recordedBalance"`
	CalculatedBalance int64  `json:"calculatedBalance"`
	Difference        int64  `json:"difference"`
	Reconciled        bool   `json:"reconciled"`
}

// ReconciliationFromResult converts a reconciliation result to a response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountNumber:     r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Reconciled:        r.IsReconciled,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
