package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BankAccountReader defines read operations for bank accounts.
type BankAccountReader interface {
	FindBankAccountByID(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankAccount, error)

	// FindBankAccountsByLedgerAccounts maps ledger account IDs to their bank accounts.
	FindBankAccountsByLedgerAccounts(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.BankAccount, error)

	ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
}

// BankAccountWriter defines write operations for bank accounts.
type BankAccountWriter interface {
	SaveBankAccount(ctx context.Context, tx pgx.Tx, account domain.BankAccount) error

	// AdjustBalance moves the running balance by delta.
	AdjustBalance(ctx context.Context, tx pgx.Tx, bankAccountID string, delta decimal.Decimal, userID string, at time.Time) error

	// SetLastReconciled overwrites the last-reconciled markers. Nil values clear them.
	SetLastReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, date *time.Time, balance *decimal.Decimal, userID string, at time.Time) error
}

// BankTransactionFilter narrows ListTransactions.
type BankTransactionFilter struct {
	Reconciled    *bool
	FromStatement *bool
}

// BankTransactionReader defines read operations for bank transactions.
type BankTransactionReader interface {
	ListTransactions(ctx context.Context, bankAccountID string, filter BankTransactionFilter, limit int, offset int) ([]domain.BankTransaction, error)

	ListTransactionsByEntry(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.BankTransaction, error)

	// ListCandidates returns the transactions of a bank account that are either
	// unreconciled and dated on or before upTo, or owned by reconciliationID.
	ListCandidates(ctx context.Context, tx pgx.Tx, bankAccountID string, upTo time.Time, reconciliationID string) ([]domain.BankTransaction, error)

	// FindTransactionsForUpdate loads and locks the given transactions. Unknown IDs are skipped.
	FindTransactionsForUpdate(ctx context.Context, tx pgx.Tx, transactionIDs []string) ([]domain.BankTransaction, error)

	// StatementTransactionExists reports whether a from-statement transaction with
	// the same date, amount and description is already on the bank account.
	StatementTransactionExists(ctx context.Context, tx pgx.Tx, bankAccountID string, date time.Time, amount decimal.Decimal, description string) (bool, error)
}

// BankTransactionWriter defines write operations for bank transactions.
type BankTransactionWriter interface {
	InsertTransactions(ctx context.Context, tx pgx.Tx, txns []domain.BankTransaction) error

	// MarkReconciled flags unreconciled transactions of bankAccountID as owned by
	// reconciliationID and reports the rows affected.
	MarkReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, transactionIDs []string, reconciliationID string, reconciledDate time.Time, userID string, at time.Time) (int64, error)

	// ClearReconciled resets the reconciled flag, date and owner on the given transactions.
	ClearReconciled(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string, at time.Time) (int64, error)

	// ClearReconciledByOwner releases every transaction owned by reconciliationID.
	ClearReconciledByOwner(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string, at time.Time) (int64, error)

	// DeleteUnreconciledTransaction removes a transaction that is not reconciled and reports the rows affected.
	DeleteUnreconciledTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (int64, error)
}

// BankRepositoryFacade combines bank account and bank transaction persistence.
type BankRepositoryFacade interface {
	BankAccountReader
	BankAccountWriter
	BankTransactionReader
	BankTransactionWriter
}
