package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GetOrCreateDraftRequest opens (or resumes) the draft for a statement.
type GetOrCreateDraftRequest struct {
	BankAccountID    string          `json:"bankAccountID" binding:"required"`
	StatementDate    time.Time       `json:"statementDate" binding:"required"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
}

// MatchTransactionsRequest selects transactions to provisionally reconcile.
type MatchTransactionsRequest struct {
	TransactionIDs []string  `json:"transactionIDs" binding:"required,min=1,dive,required"`
	StatementDate  time.Time `json:"statementDate" binding:"required"`
}

// UnreconcileRequest selects transactions to release.
type UnreconcileRequest struct {
	TransactionIDs []string `json:"transactionIDs" binding:"required,min=1,dive,required"`
}

// FinalizeReconciliationRequest carries the figures frozen on finalize.
type FinalizeReconciliationRequest struct {
	StatementBalance      decimal.Decimal `json:"statementBalance"`
	CalculatedBookBalance decimal.Decimal `json:"calculatedBookBalance"`
	Difference            decimal.Decimal `json:"difference"`
}

// CandidatesResponse holds both sides of the matching screen.
type CandidatesResponse struct {
	ReconciliationID string                   `json:"reconciliationID"`
	StatementSide    []domain.BankTransaction `json:"statementSide"`
	SystemSide       []domain.BankTransaction `json:"systemSide"`
}

// MatchResult reports a successful provisional match.
type MatchResult struct {
	ReconciliationID string          `json:"reconciliationID"`
	Matched          int             `json:"matched"`
	StatementTotal   decimal.Decimal `json:"statementTotal"`
	SystemTotal      decimal.Decimal `json:"systemTotal"`
}

// UnreconcileResult reports how many transactions were released.
type UnreconcileResult struct {
	Released int `json:"released"`
}
