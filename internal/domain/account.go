package domain

import "math"

// Account represents a ledger account that holds a non-negative balance in minor units.
type Account struct {
	ID      string
	Name    string
	Balance int64
	Version int64
}

// Clone returns a copy of the account that shares no state with the receiver.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// Equal reports whether two snapshots describe the same stored document.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return a == nil && other == nil
	}
	return *a == *other
}

// WithBalance returns the next snapshot of the account carrying balance.
func (a *Account) WithBalance(balance int64) *Account {
	next := a.Clone()
	next.Balance = balance
	next.Version++
	return next
}

// ApplyDebit returns the snapshot after debiting amount.
// The debit is refused if it would drive the balance negative.
func (a *Account) ApplyDebit(amount int64) (*Account, error) {
	balance := a.Balance - amount
	if balance < 0 {
		return nil, ErrInsufficientFunds
	}
	return a.WithBalance(balance), nil
}

// ApplyCredit returns the snapshot after crediting amount.
// The credit is refused if the balance would exceed math.MaxInt64.
func (a *Account) ApplyCredit(amount int64) (*Account, error) {
	if amount > math.MaxInt64-a.Balance {
		return nil, ErrBalanceOverflow
	}
	return a.WithBalance(a.Balance + amount), nil
}
