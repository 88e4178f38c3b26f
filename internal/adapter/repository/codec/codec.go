// Package codec defines the stored representation of account documents and
// transaction log entries shared by the persistent backends.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/ledgerd/internal/domain"
)

type accountDocument struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
	Version int64  `json:"version"`
}

type operationRecord struct {
	Kind      domain.OpKind    `json:"kind"`
	AccountID string           `json:"account_id"`
	Document  *accountDocument `json:"document"`
}

type entryRecord struct {
	SequenceID  int64             `json:"sequence_id,omitempty"`
	CommittedAt time.Time         `json:"committed_at"`
	Operations  []operationRecord `json:"operations"`
}

func toDocument(a *domain.Account) *accountDocument {
	if a == nil {
		return nil
	}
	return &accountDocument{ID: a.ID, Name: a.Name, Balance: a.Balance, Version: a.Version}
}

func fromDocument(d *accountDocument) *domain.Account {
	if d == nil {
		return nil
	}
	return &domain.Account{ID: d.ID, Name: d.Name, Balance: d.Balance, Version: d.Version}
}

// MarshalAccount encodes an account document.
func MarshalAccount(a *domain.Account) ([]byte, error) {
	return json.Marshal(toDocument(a))
}

// UnmarshalAccount decodes an account document.
func UnmarshalAccount(data []byte) (*domain.Account, error) {
	var doc accountDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return fromDocument(&doc), nil
}

// MarshalOperations encodes the operation list of a log entry.
func MarshalOperations(ops []domain.DocumentOp) ([]byte, error) {
	return json.Marshal(operationRecords(ops))
}

// UnmarshalOperations decodes an operation list written by MarshalOperations.
func UnmarshalOperations(data []byte) ([]domain.DocumentOp, error) {
	var records []operationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return documentOps(records)
}

// MarshalEntry encodes a whole log entry. The sequence ID is omitted when zero
// so backends that assign it on append can fill it in on read.
func MarshalEntry(entry domain.TransactionEntry) ([]byte, error) {
	return json.Marshal(entryRecord{
		SequenceID:  entry.SequenceID,
		CommittedAt: entry.CommittedAt,
		Operations:  operationRecords(entry.Operations),
	})
}

// UnmarshalEntry decodes a log entry written by MarshalEntry.
func UnmarshalEntry(data []byte) (domain.TransactionEntry, error) {
	var record entryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.TransactionEntry{}, fmt.Errorf("decode entry: %w", err)
	}

	ops, err := documentOps(record.Operations)
	if err != nil {
		return domain.TransactionEntry{}, err
	}

	return domain.TransactionEntry{
		SequenceID:  record.SequenceID,
		CommittedAt: record.CommittedAt,
		Operations:  ops,
	}, nil
}

func operationRecords(ops []domain.DocumentOp) []operationRecord {
	records := make([]operationRecord, len(ops))
	for i, op := range ops {
		records[i] = operationRecord{Kind: op.Kind, AccountID: op.AccountID, Document: toDocument(op.Document)}
	}
	return records
}

func documentOps(records []operationRecord) ([]domain.DocumentOp, error) {
	ops := make([]domain.DocumentOp, len(records))
	for i, r := range records {
		if r.Kind != domain.OpMatch && r.Kind != domain.OpPut {
			return nil, fmt.Errorf("decode operations: unknown kind %q", r.Kind)
		}
		ops[i] = domain.DocumentOp{Kind: r.Kind, AccountID: r.AccountID, Document: fromDocument(r.Document)}
	}
	return ops, nil
}
