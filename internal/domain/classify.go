package domain

// EntryKind is the shape of a committed transaction entry.
type EntryKind int

const (
	EntryKindUnknown EntryKind = iota
	EntryKindCreation
	EntryKindSingleAccount
	EntryKindTransfer
)

func (k EntryKind) String() string {
	switch k {
	case EntryKindCreation:
		return "creation"
	case EntryKindSingleAccount:
		return "single_account"
	case EntryKindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Mutation is a Match/Put pair on one account.
type Mutation struct {
	AccountID string
	Before    *Account
	After     *Account
}

// Delta returns the balance change of the mutation.
func (m Mutation) Delta() int64 {
	if m.Before == nil || m.After == nil {
		return 0
	}
	return m.After.Balance - m.Before.Balance
}

// ClassifiedEntry is a transaction entry decoded by shape.
//
// Creation carries the created document, SingleAccount one mutation and
// Transfer two mutations, sender first.
type ClassifiedEntry struct {
	Kind       EntryKind
	SequenceID int64
	Created    *Account
	Mutations  []Mutation
}

// Sender returns the debited side of a transfer.
func (c ClassifiedEntry) Sender() Mutation {
	return c.Mutations[0]
}

// Receiver returns the credited side of a transfer.
func (c ClassifiedEntry) Receiver() Mutation {
	return c.Mutations[1]
}

// Touches reports whether the entry changes accountID.
func (c ClassifiedEntry) Touches(accountID string) bool {
	if c.Created != nil && c.Created.ID == accountID {
		return true
	}
	for _, m := range c.Mutations {
		if m.AccountID == accountID {
			return true
		}
	}
	return false
}

// ClassifyEntry decodes an entry by its operation shape instead of list positions.
// Anything that is not a lone Put or one or two well formed Match/Put pairs is unknown.
func ClassifyEntry(entry TransactionEntry) ClassifiedEntry {
	out := ClassifiedEntry{SequenceID: entry.SequenceID}
	ops := entry.Operations

	if len(ops) == 1 && ops[0].Kind == OpPut && ops[0].Document != nil {
		out.Kind = EntryKindCreation
		out.Created = ops[0].Document
		return out
	}

	mutations, ok := decodePairs(ops)
	if !ok {
		return out
	}

	switch len(mutations) {
	case 1:
		out.Kind = EntryKindSingleAccount
	case 2:
		if mutations[0].AccountID == mutations[1].AccountID {
			return out
		}
		out.Kind = EntryKindTransfer
	default:
		return out
	}
	out.Mutations = mutations
	return out
}

func decodePairs(ops []DocumentOp) ([]Mutation, bool) {
	if len(ops) == 0 || len(ops)%2 != 0 {
		return nil, false
	}

	mutations := make([]Mutation, 0, len(ops)/2)
	for i := 0; i < len(ops); i += 2 {
		match, put := ops[i], ops[i+1]
		if match.Kind != OpMatch || put.Kind != OpPut {
			return nil, false
		}
		if match.AccountID != put.AccountID {
			return nil, false
		}
		mutations = append(mutations, Mutation{
			AccountID: match.AccountID,
			Before:    match.Document,
			After:     put.Document,
		})
	}
	return mutations, true
}
