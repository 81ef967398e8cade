package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Fake transaction runner ---

// FakeTx runs fn with a nil transaction and counts how often it was used.
type FakeTx struct {
	Calls int
}

var _ portsrepo.TxRunner = (*FakeTx)(nil)

func (f *FakeTx) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.Calls++
	return fn(nil)
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) LockAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) LockAccountsForShare(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, tx pgx.Tx, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) SumPostedLines(ctx context.Context, tx pgx.Tx, accountID string, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, tx, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockAccountRepository) SumAllPostedLines(ctx context.Context, tx pgx.Tx, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryFacade = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, filter portsrepo.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, filter, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.JournalEntry), returnedNextToken, args.Error(2)
}

func (m *MockJournalRepository) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) InsertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntryHeader(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) (int64, error) {
	args := m.Called(ctx, tx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) ReplaceLines(ctx context.Context, tx pgx.Tx, entryID string, lines []domain.JournalEntryLine) error {
	args := m.Called(ctx, tx, entryID, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) MarkPosted(ctx context.Context, tx pgx.Tx, entryID string, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, entryID, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) MarkReversed(ctx context.Context, tx pgx.Tx, entryID string, reversingEntryID string, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, entryID, reversingEntryID, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock BankRepository ---
type MockBankRepository struct {
	mock.Mock
}

var _ portsrepo.BankRepositoryFacade = (*MockBankRepository)(nil)

func (m *MockBankRepository) FindBankAccountByID(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, tx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankRepository) FindBankAccountsByLedgerAccounts(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.BankAccount, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.BankAccount), args.Error(1)
}

func (m *MockBankRepository) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankAccount), args.Error(1)
}

func (m *MockBankRepository) SaveBankAccount(ctx context.Context, tx pgx.Tx, account domain.BankAccount) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockBankRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, bankAccountID string, delta decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, bankAccountID, delta, userID, at)
	return args.Error(0)
}

func (m *MockBankRepository) SetLastReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, date *time.Time, balance *decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, bankAccountID, date, balance, userID, at)
	return args.Error(0)
}

func (m *MockBankRepository) ListTransactions(ctx context.Context, bankAccountID string, filter portsrepo.BankTransactionFilter, limit int, offset int) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, bankAccountID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) ListTransactionsByEntry(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) ListCandidates(ctx context.Context, tx pgx.Tx, bankAccountID string, upTo time.Time, reconciliationID string) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, tx, bankAccountID, upTo, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) FindTransactionsForUpdate(ctx context.Context, tx pgx.Tx, transactionIDs []string) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, tx, transactionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}

func (m *MockBankRepository) StatementTransactionExists(ctx context.Context, tx pgx.Tx, bankAccountID string, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	args := m.Called(ctx, tx, bankAccountID, date, amount, description)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankRepository) InsertTransactions(ctx context.Context, tx pgx.Tx, txns []domain.BankTransaction) error {
	args := m.Called(ctx, tx, txns)
	return args.Error(0)
}

func (m *MockBankRepository) MarkReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, transactionIDs []string, reconciliationID string, reconciledDate time.Time, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, bankAccountID, transactionIDs, reconciliationID, reconciledDate, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) ClearReconciled(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, transactionIDs, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) ClearReconciledByOwner(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, reconciliationID, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) DeleteUnreconciledTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (int64, error) {
	args := m.Called(ctx, tx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ReconciliationRepository ---
type MockReconciliationRepository struct {
	mock.Mock
}

var _ portsrepo.ReconciliationRepositoryFacade = (*MockReconciliationRepository)(nil)

func (m *MockReconciliationRepository) FindReconciliationByID(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, tx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindReconciliationByKey(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, status domain.ReconciliationStatus) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, tx, bankAccountID, statementDate, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindLatestFinalized(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, tx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindReconciliationForUpdate(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, tx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) InsertReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) error {
	args := m.Called(ctx, tx, rec)
	return args.Error(0)
}

func (m *MockReconciliationRepository) UpdateDraftStatementBalance(ctx context.Context, tx pgx.Tx, reconciliationID string, statementBalance decimal.Decimal, userID string, at time.Time) error {
	args := m.Called(ctx, tx, reconciliationID, statementBalance, userID, at)
	return args.Error(0)
}

func (m *MockReconciliationRepository) FinalizeReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) (int64, error) {
	args := m.Called(ctx, tx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReconciliationRepository) DeleteReconciliation(ctx context.Context, tx pgx.Tx, reconciliationID string) error {
	args := m.Called(ctx, tx, reconciliationID)
	return args.Error(0)
}

// --- Mock RecurringRepository ---
type MockRecurringRepository struct {
	mock.Mock
}

var _ portsrepo.RecurringRepositoryFacade = (*MockRecurringRepository)(nil)

func (m *MockRecurringRepository) SavePattern(ctx context.Context, pattern domain.RecurringPattern) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockRecurringRepository) FindPatternByID(ctx context.Context, patternID string) (*domain.RecurringPattern, error) {
	args := m.Called(ctx, patternID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringPattern), args.Error(1)
}

func (m *MockRecurringRepository) ListPatterns(ctx context.Context, activeOnly bool) ([]domain.RecurringPattern, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringPattern), args.Error(1)
}

func (m *MockRecurringRepository) ListDuePatterns(ctx context.Context, asOf time.Time) ([]domain.RecurringPattern, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringPattern), args.Error(1)
}

func (m *MockRecurringRepository) FindPatternForUpdate(ctx context.Context, tx pgx.Tx, patternID string) (*domain.RecurringPattern, error) {
	args := m.Called(ctx, tx, patternID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringPattern), args.Error(1)
}

func (m *MockRecurringRepository) UpdatePatternSchedule(ctx context.Context, tx pgx.Tx, pattern domain.RecurringPattern) error {
	args := m.Called(ctx, tx, pattern)
	return args.Error(0)
}

// --- Mock FiscalCalendar ---
type MockFiscalCalendar struct {
	mock.Mock
}

var _ portsrepo.FiscalCalendar = (*MockFiscalCalendar)(nil)

func (m *MockFiscalCalendar) PeriodFor(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, tx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalCalendar) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalCalendar) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

func (m *MockFiscalCalendar) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus) error {
	args := m.Called(ctx, periodID, status)
	return args.Error(0)
}

// --- Mock SequenceAllocator ---
type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) Next(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	args := m.Called(ctx, tx, name)
	return args.String(0), args.Error(1)
}

// --- Mock event publisher and audit trail ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.LedgerEventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type MockAuditTrail struct {
	mock.Mock
}

var _ portssvc.AuditTrail = (*MockAuditTrail)(nil)

func (m *MockAuditTrail) Record(ctx context.Context, rec domain.AuditRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAuditTrail) ListByEntity(ctx context.Context, entityType string, entityID string) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}

// --- Mock JournalWriterSvc (as used by the recurring generator) ---
type MockJournalWriter struct {
	mock.Mock
}

var _ portssvc.JournalWriterSvc = (*MockJournalWriter)(nil)

func (m *MockJournalWriter) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) CreateEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, autoPost bool, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entry, autoPost, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) UpdateEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) PostEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalWriter) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
