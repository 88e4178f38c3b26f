package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrBalanceOverflow    = errors.New("balance would overflow")

	// Mutation errors
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSameAccount   = errors.New("cannot transfer to same account")

	// Transfer lookups keep ErrAccountNotFound in their chain.
	ErrSenderNotFound   = fmt.Errorf("sender %w", ErrAccountNotFound)
	ErrReceiverNotFound = fmt.Errorf("receiver %w", ErrAccountNotFound)

	// ErrConflict is returned when a commit loses an optimistic-concurrency race.
	ErrConflict = errors.New("concurrent modification conflict")
)
