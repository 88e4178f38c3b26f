package domain

import "fmt"

// AuditRecord is one ledger event as seen by a single account.
// Debit and Credit are positive amounts; zero means absent.
type AuditRecord struct {
	Sequence    int
	Debit       int64
	Credit      int64
	Description string
}

const (
	AuditDescriptionDeposit  = "deposit"
	AuditDescriptionWithdraw = "withdraw"
)

// SendDescription describes the sender side of a transfer.
func SendDescription(receiverID string) string {
	return fmt.Sprintf("send to #%s", receiverID)
}

// ReceiveDescription describes the receiver side of a transfer.
func ReceiveDescription(senderID string) string {
	return fmt.Sprintf("receive from #%s", senderID)
}

// ProjectAudit renders the record a classified entry contributes to accountID's audit log.
// The second result is false when the entry does not produce a record for that account.
func ProjectAudit(entry ClassifiedEntry, accountID string) (AuditRecord, bool) {
	switch entry.Kind {
	case EntryKindSingleAccount:
		m := entry.Mutations[0]
		if m.Before == nil || m.After == nil || m.AccountID != accountID {
			return AuditRecord{}, false
		}
		delta := m.Delta()
		switch {
		case delta > 0:
			return AuditRecord{Credit: delta, Description: AuditDescriptionDeposit}, true
		case delta < 0:
			return AuditRecord{Debit: -delta, Description: AuditDescriptionWithdraw}, true
		default:
			return AuditRecord{}, false
		}

	case EntryKindTransfer:
		sender, receiver := entry.Sender(), entry.Receiver()
		amount := absInt64(sender.Delta())
		if amount == 0 {
			return AuditRecord{}, false
		}
		switch accountID {
		case receiver.AccountID:
			return AuditRecord{Credit: amount, Description: ReceiveDescription(sender.AccountID)}, true
		case sender.AccountID:
			return AuditRecord{Debit: amount, Description: SendDescription(receiver.AccountID)}, true
		}
	}

	return AuditRecord{}, false
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
