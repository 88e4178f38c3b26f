package domain

import "time"

// OpKind distinguishes the operations of a commit batch.
type OpKind string

const (
	// OpMatch is a precondition: the stored document must equal the expected snapshot.
	OpMatch OpKind = "match"
	// OpPut writes a full account document.
	OpPut OpKind = "put"
)

// DocumentOp is one operation of an atomic commit batch.
type DocumentOp struct {
	Kind      OpKind
	AccountID string
	// Document is the expected snapshot for OpMatch and the new snapshot for OpPut.
	// A nil expected snapshot requires the account to be absent.
	Document *Account
}

// Match builds a precondition on the current version of accountID.
func Match(accountID string, expected *Account) DocumentOp {
	return DocumentOp{Kind: OpMatch, AccountID: accountID, Document: expected.Clone()}
}

// Put builds a write of the full account document.
func Put(doc *Account) DocumentOp {
	return DocumentOp{Kind: OpPut, AccountID: doc.ID, Document: doc.Clone()}
}

// TransactionEntry is one committed batch in the transaction log.
// Entries are immutable and totally ordered by SequenceID.
type TransactionEntry struct {
	SequenceID  int64
	CommittedAt time.Time
	Operations  []DocumentOp
}

// MatchedAccountIDs returns the account IDs guarded by OpMatch, in batch order.
func MatchedAccountIDs(ops []DocumentOp) []string {
	var ids []string
	for _, op := range ops {
		if op.Kind == OpMatch {
			ids = append(ids, op.AccountID)
		}
	}
	return ids
}
