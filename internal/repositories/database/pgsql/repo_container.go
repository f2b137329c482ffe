package pgsql

import (
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	transferRepo := newPgxTransferRepository(dbPool, accountRepo)

	return portsrepo.RepositoryProvider{
		AccountRepo:  accountRepo,
		TransferRepo: transferRepo,
		UserRepo:     userRepo,
	}
}
