package usecase

import (
	"context"
	"slices"

	"github.com/iho/ledgerd/internal/domain"
)

// AuditUseCase projects an account's audit log from the transaction log.
type AuditUseCase struct {
	accounts AccountStore
	log      TransactionLog
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(accounts AccountStore, log TransactionLog) *AuditUseCase {
	return &AuditUseCase{
		accounts: accounts,
		log:      log,
	}
}

// AuditLog returns the account's audit records, newest first.
//
// Records are derived on every call from one snapshot of the log. Sequence
// numbers index emitted records in log order, not store sequence IDs, since a
// transfer is one event however many documents it writes.
func (uc *AuditUseCase) AuditLog(ctx context.Context, accountID string) ([]domain.AuditRecord, error) {
	if _, err := uc.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	entries, err := uc.log.ReadLog(ctx, 0)
	if err != nil {
		return nil, err
	}

	return ProjectAuditLog(entries, accountID), nil
}

// ProjectAuditLog renders entries, oldest first, into accountID's audit log.
func ProjectAuditLog(entries []domain.TransactionEntry, accountID string) []domain.AuditRecord {
	records := make([]domain.AuditRecord, 0)
	for _, entry := range entries {
		record, ok := domain.ProjectAudit(domain.ClassifyEntry(entry), accountID)
		if !ok {
			continue
		}
		record.Sequence = len(records)
		records = append(records, record)
	}

	slices.Reverse(records)

	return records
}
