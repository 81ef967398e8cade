package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts by their IDs.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a page of accounts.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive. Accounts with a non-zero balance are rejected.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error
}

// AccountCalculatorSvc defines calculation operations for account data
type AccountCalculatorSvc interface {
	// GetAccountBalance derives the balance from the opening balance and posted lines up to asOf.
	GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*dto.AccountBalanceResponse, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountCalculatorSvc
}

// BankAccountSvcFacade manages bank accounts and their transactions.
type BankAccountSvcFacade interface {
	CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)
	GetBankAccount(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
	ListTransactions(ctx context.Context, bankAccountID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error)

	// DeleteTransaction removes an unreconciled bank transaction.
	DeleteTransaction(ctx context.Context, transactionID string, userID string) error
}

// FiscalPeriodSvcFacade manages the accounting calendar.
type FiscalPeriodSvcFacade interface {
	CreatePeriod(ctx context.Context, req dto.CreateFiscalPeriodRequest) (*domain.FiscalPeriod, error)
	ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error)
	UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus) error
}
