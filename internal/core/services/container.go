package services

import (
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	portssvc "github.com/cardbank/transfer_core/internal/core/ports/services"
)

// ServicesConfig carries the tunables the service layer needs.
type ServicesConfig struct {
	CardNumberMaxAttempts int
	TransferMaxRetries    int
}

// ServicesContainer bundles all core services for the composition root.
type ServicesContainer struct {
	AccountSvc  portssvc.AccountSvcFacade
	TransferSvc portssvc.TransferSvcFacade
	LedgerSvc   portssvc.LedgerSvcFacade
	UserSvc     portssvc.UserSvcFacade
}

// NewServicesContainer wires the services against the given repositories.
// invalidator may be nil when no account cache is in front of the store.
func NewServicesContainer(repos portsrepo.RepositoryProvider, invalidator portsrepo.AccountCacheInvalidator, cfg ServicesConfig) *ServicesContainer {
	return &ServicesContainer{
		AccountSvc:  NewAccountService(repos.AccountRepo, invalidator, cfg.CardNumberMaxAttempts),
		TransferSvc: NewTransferService(repos.AccountRepo, repos.TransferRepo, repos.UserRepo, invalidator, cfg.TransferMaxRetries),
		LedgerSvc:   NewLedgerService(repos.TransferRepo),
		UserSvc:     NewUserService(repos.UserRepo),
	}
}
