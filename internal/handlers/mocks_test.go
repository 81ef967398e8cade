package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	return m.Called(ctx, accountID, userID).Error(0)
}
func (m *MockAccountService) GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*dto.AccountBalanceResponse, error) {
	args := m.Called(ctx, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountBalanceResponse), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) entry(args mock.Arguments) (*domain.JournalEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID))
}
func (m *MockJournalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockJournalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, req, userID))
}
func (m *MockJournalService) CreateEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, autoPost bool, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, tx, entry, autoPost, userID))
}
func (m *MockJournalService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, req, userID))
}
func (m *MockJournalService) UpdateEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, tx, entryID, req, userID))
}
func (m *MockJournalService) PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, userID))
}
func (m *MockJournalService) PostEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, tx, entryID, userID))
}
func (m *MockJournalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, entryID, req, userID))
}
func (m *MockJournalService) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, tx, entryID, req, userID))
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) rec(args mock.Arguments) (*domain.BankReconciliation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockReconciliationService) GetReconciliation(ctx context.Context, id string) (*domain.BankReconciliation, error) {
	return m.rec(m.Called(ctx, id))
}
func (m *MockReconciliationService) ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error) {
	args := m.Called(ctx, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankReconciliation), args.Error(1)
}
func (m *MockReconciliationService) GetCandidates(ctx context.Context, id string) (*dto.CandidatesResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CandidatesResponse), args.Error(1)
}
func (m *MockReconciliationService) ComputeBalancing(ctx context.Context, id string) (*domain.BalancingSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalancingSummary), args.Error(1)
}
func (m *MockReconciliationService) GetAuditTrail(ctx context.Context, id string) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}
func (m *MockReconciliationService) GetOrCreateDraft(ctx context.Context, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error) {
	return m.rec(m.Called(ctx, bankAccountID, statementDate, statementBalance, userID))
}
func (m *MockReconciliationService) GetOrCreateDraftInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error) {
	return m.rec(m.Called(ctx, tx, bankAccountID, statementDate, statementBalance, userID))
}
func (m *MockReconciliationService) MarkProvisionallyReconciled(ctx context.Context, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error) {
	args := m.Called(ctx, draftID, transactionIDs, statementDate, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MatchResult), args.Error(1)
}
func (m *MockReconciliationService) MarkProvisionallyReconciledInTx(ctx context.Context, tx pgx.Tx, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error) {
	args := m.Called(ctx, tx, draftID, transactionIDs, statementDate, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MatchResult), args.Error(1)
}
func (m *MockReconciliationService) Unreconcile(ctx context.Context, transactionIDs []string, userID string) (*dto.UnreconcileResult, error) {
	args := m.Called(ctx, transactionIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UnreconcileResult), args.Error(1)
}
func (m *MockReconciliationService) UnreconcileInTx(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string) (*dto.UnreconcileResult, error) {
	args := m.Called(ctx, tx, transactionIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UnreconcileResult), args.Error(1)
}
func (m *MockReconciliationService) Finalize(ctx context.Context, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error) {
	return m.rec(m.Called(ctx, draftID, req, userID))
}
func (m *MockReconciliationService) FinalizeInTx(ctx context.Context, tx pgx.Tx, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error) {
	return m.rec(m.Called(ctx, tx, draftID, req, userID))
}
func (m *MockReconciliationService) DeleteReconciliation(ctx context.Context, id string, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}
func (m *MockReconciliationService) DeleteReconciliationInTx(ctx context.Context, tx pgx.Tx, id string, userID string) error {
	return m.Called(ctx, tx, id, userID).Error(0)
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) ImportStatement(ctx context.Context, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error) {
	args := m.Called(ctx, bankAccountID, rows, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}
func (m *MockStatementService) ImportStatementInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error) {
	args := m.Called(ctx, tx, bankAccountID, rows, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}

var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)
