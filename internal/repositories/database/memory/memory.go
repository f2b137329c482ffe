// Package memory provides in-process implementations of the repository
// ports. It backs unit tests and local development without a database,
// and is where the optimistic-concurrency semantics of the ports are
// exercised most directly.
package memory

import (
	"sync"

	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/models"
)

// Store is the shared state behind the in-memory repositories. A single
// mutex guards all three tables so the ledger append can observe and
// mutate account balances in one critical section.
type Store struct {
	mu sync.RWMutex

	accountsByID   map[string]models.Account
	accountsByCard map[string]string // card number -> account id
	transactions   []models.Transaction
	usersByID      map[string]models.User
	usersByName    map[string]string // username -> user id
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accountsByID:   make(map[string]models.Account),
		accountsByCard: make(map[string]string),
		usersByID:      make(map[string]models.User),
		usersByName:    make(map[string]string),
	}
}

// NewRepositoryProvider wires in-memory repositories over one shared store.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	store := NewStore()
	return portsrepo.RepositoryProvider{
		AccountRepo:  NewAccountRepository(store),
		TransferRepo: NewTransferRepository(store),
		UserRepo:     NewUserRepository(store),
	}
}
