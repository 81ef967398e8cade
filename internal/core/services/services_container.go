package services

import (
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
)

// NewServiceContainer creates a new service container with all services initialized
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, events portssvc.LedgerEventPublisher, audit portssvc.AuditTrail) *portssvc.ServiceContainer {
	options := []ServiceOption{
		WithEventPublisher(events),
		WithAuditTrail(audit),
	}

	journal := NewJournalService(repos, options...)

	return &portssvc.ServiceContainer{
		Account:        NewAccountService(repos.Tx, repos.AccountRepo, options...),
		BankAccount:    NewBankAccountService(repos.Tx, repos.BankRepo, repos.AccountRepo, options...),
		FiscalPeriod:   NewFiscalPeriodService(repos.FiscalCalendar, options...),
		Journal:        journal,
		Recurring:      NewRecurringService(repos, journal, cfg.RecurringWorkers, options...),
		Reconciliation: NewReconciliationService(repos, options...),
		Statement:      NewStatementService(repos.Tx, repos.BankRepo, options...),
	}
}
