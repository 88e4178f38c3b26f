package domain

import "time"

// Event types
const (
	EventTypeAccountCreated    = "account.created"
	EventTypeBalanceChanged    = "account.balance_changed"
	EventTypeTransferCommitted = "transfer.committed"
	EventTypeUnknownEntry      = "entry.unknown"
)

// EntryCommittedEvent is the change-feed payload for one transaction entry.
type EntryCommittedEvent struct {
	SequenceID  int64           `json:"sequence_id"`
	EventType   string          `json:"event_type"`
	CommittedAt time.Time       `json:"committed_at"`
	Changes     []BalanceChange `json:"changes"`
}

// BalanceChange is one account's side of a committed entry.
type BalanceChange struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name,omitempty"`
	Before    int64  `json:"before"`
	After     int64  `json:"after"`
	Delta     int64  `json:"delta"`
}

// NewEntryCommittedEvent builds the change-feed payload for entry.
func NewEntryCommittedEvent(entry TransactionEntry) EntryCommittedEvent {
	classified := ClassifyEntry(entry)

	event := EntryCommittedEvent{
		SequenceID:  entry.SequenceID,
		CommittedAt: entry.CommittedAt,
	}

	switch classified.Kind {
	case EntryKindCreation:
		event.EventType = EventTypeAccountCreated
		event.Changes = []BalanceChange{{
			AccountID: classified.Created.ID,
			Name:      classified.Created.Name,
			After:     classified.Created.Balance,
			Delta:     classified.Created.Balance,
		}}
	case EntryKindSingleAccount, EntryKindTransfer:
		event.EventType = EventTypeBalanceChanged
		if classified.Kind == EntryKindTransfer {
			event.EventType = EventTypeTransferCommitted
		}
		for _, m := range classified.Mutations {
			change := BalanceChange{AccountID: m.AccountID, Delta: m.Delta()}
			if m.Before != nil {
				change.Before = m.Before.Balance
			}
			if m.After != nil {
				change.After = m.After.Balance
				change.Name = m.After.Name
			}
			event.Changes = append(event.Changes, change)
		}
	default:
		event.EventType = EventTypeUnknownEntry
	}

	return event
}

// PartitionKey returns the first account the event touches.
func (e EntryCommittedEvent) PartitionKey() string {
	if len(e.Changes) == 0 {
		return ""
	}
	return e.Changes[0].AccountID
}
