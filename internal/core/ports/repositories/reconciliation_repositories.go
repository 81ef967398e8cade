package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReconciliationReader defines read operations for bank reconciliations.
type ReconciliationReader interface {
	FindReconciliationByID(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error)

	// FindReconciliationByKey returns the reconciliation in the given status for
	// (bank account, statement date), or a not-found error.
	FindReconciliationByKey(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, status domain.ReconciliationStatus) (*domain.BankReconciliation, error)

	// FindLatestFinalized returns the most recent finalized reconciliation, or nil when there is none.
	FindLatestFinalized(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankReconciliation, error)

	ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error)
}

// ReconciliationWriter defines write operations for bank reconciliations.
type ReconciliationWriter interface {
	FindReconciliationForUpdate(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error)

	// InsertReconciliation persists a draft. A second draft for the same key fails with apperrors.ErrDuplicate.
	InsertReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) error

	UpdateDraftStatementBalance(ctx context.Context, tx pgx.Tx, reconciliationID string, statementBalance decimal.Decimal, userID string, at time.Time) error

	// FinalizeReconciliation freezes a draft and reports the rows affected.
	FinalizeReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) (int64, error)

	DeleteReconciliation(ctx context.Context, tx pgx.Tx, reconciliationID string) error
}

// ReconciliationRepositoryFacade combines reconciliation persistence.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
