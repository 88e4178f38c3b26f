package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAccountNameLength is counted in characters, not bytes.
const MaxAccountNameLength = 255

// ValidateAccountName rejects blank, oversized or non-printable names.
// Surrounding whitespace is ignored.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	case n > MaxAccountNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: contains control characters", ErrInvalidAccountName)
	}

	return nil
}

// ValidateAmount checks a deposit, withdrawal or transfer amount.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
