package dto

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iho/ledgerd/internal/usecase"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Validate checks the request shape.
func (r *CreateAccountRequest) Validate() error {
	return validateStruct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{Name: r.Name}
}

// AmountRequest represents a deposit or withdrawal.
// Amount is checked by the ledger, so zero and negative values reach it.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// SendRequest represents a transfer from the account in the path.
type SendRequest struct {
	Amount        int64  `json:"amount"`
	AccountNumber string `json:"accountNumber" validate:"required,max=255"`
}

// Validate checks the request shape.
func (r *SendRequest) Validate() error {
	return validateStruct(r)
}

// ToUseCaseInput converts to use case input.
func (r *SendRequest) ToUseCaseInput(senderID string) usecase.TransferInput {
	return usecase.TransferInput{
		SenderID:   senderID,
		ReceiverID: r.AccountNumber,
		Amount:     r.Amount,
	}
}

func validateStruct(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
