package usecase

import (
	"context"
	"errors"

	"github.com/iho/ledgerd/internal/domain"
)

// TransferUseCase handles transfer business logic.
type TransferUseCase struct {
	store AccountStore
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(store AccountStore) *TransferUseCase {
	return &TransferUseCase{store: store}
}

// TransferInput represents input for moving funds between two accounts.
type TransferInput struct {
	SenderID   string
	ReceiverID string
	Amount     int64
}

// Transfer moves Amount from sender to receiver in one commit and returns the
// sender's new snapshot.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Account, error) {
	// 0. Validate inputs before touching the store
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.SenderID == input.ReceiverID {
		return nil, domain.ErrSameAccount
	}

	// 1. Read both snapshots
	senderBefore, err := uc.load(ctx, input.SenderID, domain.ErrSenderNotFound)
	if err != nil {
		return nil, err
	}

	receiverBefore, err := uc.load(ctx, input.ReceiverID, domain.ErrReceiverNotFound)
	if err != nil {
		return nil, err
	}

	// 2. Compute the next snapshots
	senderAfter, err := senderBefore.ApplyDebit(input.Amount)
	if err != nil {
		return nil, err
	}

	receiverAfter, err := receiverBefore.ApplyCredit(input.Amount)
	if err != nil {
		return nil, err
	}

	// 3. Commit sender pair first, then receiver pair, as one entry
	_, err = uc.store.Commit(ctx, []domain.DocumentOp{
		domain.Match(senderBefore.ID, senderBefore),
		domain.Put(senderAfter),
		domain.Match(receiverBefore.ID, receiverBefore),
		domain.Put(receiverAfter),
	})
	if err != nil {
		return nil, err
	}

	return senderAfter, nil
}

func (uc *TransferUseCase) load(ctx context.Context, id string, notFound error) (*domain.Account, error) {
	account, err := uc.store.Get(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, notFound
	}
	return account, err
}
