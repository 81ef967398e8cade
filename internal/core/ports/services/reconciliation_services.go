package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReconciliationReaderSvc defines read operations for reconciliations.
type ReconciliationReaderSvc interface {
	GetReconciliation(ctx context.Context, reconciliationID string) (*domain.BankReconciliation, error)
	ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error)

	// GetCandidates returns the statement-side and system-side pools for a reconciliation.
	GetCandidates(ctx context.Context, reconciliationID string) (*dto.CandidatesResponse, error)

	// ComputeBalancing runs the balancing arithmetic for a reconciliation.
	ComputeBalancing(ctx context.Context, reconciliationID string) (*domain.BalancingSummary, error)

	// GetAuditTrail lists the recorded actions of a reconciliation, oldest first.
	GetAuditTrail(ctx context.Context, reconciliationID string) ([]domain.AuditRecord, error)
}

// ReconciliationWriterSvc drives the DRAFT -> FINALIZED state machine.
type ReconciliationWriterSvc interface {
	GetOrCreateDraft(ctx context.Context, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error)
	GetOrCreateDraftInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error)

	MarkProvisionallyReconciled(ctx context.Context, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error)
	MarkProvisionallyReconciledInTx(ctx context.Context, tx pgx.Tx, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error)

	Unreconcile(ctx context.Context, transactionIDs []string, userID string) (*dto.UnreconcileResult, error)
	UnreconcileInTx(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string) (*dto.UnreconcileResult, error)

	Finalize(ctx context.Context, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error)
	FinalizeInTx(ctx context.Context, tx pgx.Tx, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error)

	// DeleteReconciliation releases every owned transaction and removes the reconciliation.
	DeleteReconciliation(ctx context.Context, reconciliationID string, userID string) error
	DeleteReconciliationInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string) error
}

// ReconciliationSvcFacade combines all reconciliation service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationReaderSvc
	ReconciliationWriterSvc
}

// StatementSvcFacade imports statement rows as bank transactions.
type StatementSvcFacade interface {
	// ImportStatement inserts the usable rows and reports every skipped row.
	ImportStatement(ctx context.Context, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error)
	ImportStatementInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error)
}
