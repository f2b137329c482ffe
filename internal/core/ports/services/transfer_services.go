package services

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/cardbank/transfer_core/internal/dto"
)

// TransferSvcFacade is the transfer engine surface consumed by the calling layer.
//
// Both variants run the same validation sequence once the references are
// resolved; they differ only in how accounts are addressed and in the
// ownership check (the internal-id variant trusts the caller to have
// authorized the acting user, the card-number variant always verifies that
// the acting user owns the sender account).
type TransferSvcFacade interface {
	TransferByAccountID(ctx context.Context, req dto.TransferByIDRequest, actingUserID string) (*domain.Transaction, error)
	TransferByCardNumber(ctx context.Context, req dto.TransferByCardRequest, actingUsername string) (*domain.Transaction, error)
}
