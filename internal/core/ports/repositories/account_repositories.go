package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs are absent from the map.
	FindAccountsByIDs(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// LockAccountsForShare reads accounts with FOR SHARE so their active and
	// bank-linked flags cannot change before tx ends.
	LockAccountsForShare(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// LockAccountForUpdate reads one account with FOR UPDATE.
	LockAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by code.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, tx pgx.Tx, accountID string, userID string, now time.Time) error
}

// AccountBalanceReader derives balances from posted journal lines.
type AccountBalanceReader interface {
	// SumPostedLines returns the raw debit and credit totals of posted lines on
	// the account dated on or before asOf.
	SumPostedLines(ctx context.Context, tx pgx.Tx, accountID string, asOf time.Time) (debits decimal.Decimal, credits decimal.Decimal, err error)

	// SumAllPostedLines returns the totals of every posted line on the account
	// regardless of entry date.
	SumAllPostedLines(ctx context.Context, tx pgx.Tx, accountID string) (debits decimal.Decimal, credits decimal.Decimal, err error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
// This is a facade for clients that need access to all operations
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountBalanceReader
}
