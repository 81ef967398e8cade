package pgsql

import (
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository onto one pool. Pass a
// *pgxpool.Pool in production and a pgxmock pool in tests.
func NewRepositoryProvider(dbPool PgxPool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:                 newTxManager(dbPool),
		AccountRepo:        newPgxAccountRepository(dbPool),
		JournalRepo:        newPgxJournalRepository(dbPool),
		BankRepo:           newPgxBankRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
		RecurringRepo:      newPgxRecurringRepository(dbPool),
		FiscalCalendar:     newPgxFiscalCalendar(dbPool),
		Sequences:          newPgxSequenceAllocator(dbPool),
	}
}
