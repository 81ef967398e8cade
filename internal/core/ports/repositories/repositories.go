package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Tx                 TxRunner
	AccountRepo        AccountRepositoryFacade
	JournalRepo        JournalRepositoryFacade
	BankRepo           BankRepositoryFacade
	ReconciliationRepo ReconciliationRepositoryFacade
	RecurringRepo      RecurringRepositoryFacade
	FiscalCalendar     FiscalCalendar
	Sequences          SequenceAllocator
}
