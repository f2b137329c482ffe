package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/models"
	"github.com/cardbank/transfer_core/internal/utils/mapping"
	"github.com/cardbank/transfer_core/internal/utils/pagination"
)

// TransferRepository is the in-memory ledger. SaveTransfer runs the funds
// check, both balance mutations, and the ledger append inside one critical
// section of the shared store mutex, so partial transfers are never visible.
type TransferRepository struct {
	store *Store
}

func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

var _ portsrepo.TransferRepositoryFacade = (*TransferRepository)(nil)

func (r *TransferRepository) SaveTransfer(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	// Debit and credit target distinct map entries; a self-transfer would
	// let the credit write clobber the debit and break conservation.
	if txn.SenderAccountID == txn.ReceiverAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sender, ok := r.store.accountsByID[txn.SenderAccountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	receiver, ok := r.store.accountsByID[txn.ReceiverAccountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	if sender.Balance.LessThan(txn.Amount) {
		return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientBalance, sender.Balance.String(), txn.Amount.String())
	}

	sender.Balance = sender.Balance.Sub(txn.Amount)
	sender.Version++
	sender.LastUpdatedAt = txn.CreatedAt
	sender.LastUpdatedBy = txn.CreatedBy

	receiver.Balance = receiver.Balance.Add(txn.Amount)
	receiver.Version++
	receiver.LastUpdatedAt = txn.CreatedAt
	receiver.LastUpdatedBy = txn.CreatedBy

	r.store.accountsByID[txn.SenderAccountID] = sender
	r.store.accountsByID[txn.ReceiverAccountID] = receiver

	txn.BalanceAfter = sender.Balance
	r.store.transactions = append(r.store.transactions, mapping.ToModelTransaction(txn))

	return &txn, nil
}

func (r *TransferRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.store.transactions {
		if m.TransactionID == transactionID {
			txn := mapping.ToDomainTransaction(m)
			return &txn, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *TransferRepository) ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	owned := make(map[string]struct{})
	for id, m := range r.store.accountsByID {
		if m.OwnerUserID == userID {
			owned[id] = struct{}{}
		}
	}

	return r.listLocked(func(m models.Transaction) bool {
		_, sent := owned[m.SenderAccountID]
		_, received := owned[m.ReceiverAccountID]
		return sent || received
	}, limit, nextToken)
}

func (r *TransferRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.listLocked(func(m models.Transaction) bool {
		return m.SenderAccountID == accountID || m.ReceiverAccountID == accountID
	}, limit, nextToken)
}

// listLocked filters, sorts newest-first, and paginates. Requires at least a
// read lock on the store mutex.
func (r *TransferRepository) listLocked(match func(models.Transaction) bool, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	matched := make([]models.Transaction, 0)
	for _, m := range r.store.transactions {
		if match(m) {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].TransactionID > matched[j].TransactionID
	})

	if nextToken != nil && *nextToken != "" {
		cursorCreatedAt, cursorTransactionID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		after := matched[:0:0]
		for _, m := range matched {
			if m.CreatedAt.Before(cursorCreatedAt) ||
				(m.CreatedAt.Equal(cursorCreatedAt) && m.TransactionID < cursorTransactionID) {
				after = append(after, m)
			}
		}
		matched = after
	}

	var token *string
	if len(matched) > limit {
		last := matched[limit-1]
		t := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		token = &t
		matched = matched[:limit]
	}

	return mapping.ToDomainTransactionSlice(matched), token, nil
}
