package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the state of a bank reconciliation. DRAFT moves to
// FINALIZED and never back.
type ReconciliationStatus string

const (
	ReconciliationDraft     ReconciliationStatus = "DRAFT"
	ReconciliationFinalized ReconciliationStatus = "FINALIZED"
)

// BankReconciliation matches one bank statement against the ledger.
type BankReconciliation struct {
	ReconciliationID      string               `json:"reconciliationID"`
	BankAccountID         string               `json:"bankAccountID"`
	StatementDate         time.Time            `json:"statementDate"`
	StatementBalance      decimal.Decimal      `json:"statementBalance"`
	CalculatedBookBalance decimal.Decimal      `json:"calculatedBookBalance"`
	ReconciledDifference  decimal.Decimal      `json:"reconciledDifference"`
	Status                ReconciliationStatus `json:"status"`
	ReconciledAt          *time.Time           `json:"reconciledAt,omitempty"`
	ReconciledBy          *string              `json:"reconciledBy,omitempty"`
	AuditFields
}

// IsDraft reports whether matches can still be added or removed.
func (r BankReconciliation) IsDraft() bool {
	return r.Status == ReconciliationDraft
}

// NewDraftReconciliation returns a draft with nothing matched: the book balance
// is zero and the whole statement balance is outstanding.
func NewDraftReconciliation(bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal) BankReconciliation {
	return BankReconciliation{
		BankAccountID:         bankAccountID,
		StatementDate:         DateOnly(statementDate),
		StatementBalance:      statementBalance,
		CalculatedBookBalance: decimal.Zero,
		ReconciledDifference:  statementBalance,
		Status:                ReconciliationDraft,
	}
}

// BalancingInput gathers what the balancing arithmetic needs. StatementSide and
// SystemSide are the candidate pools; transactions already reconciled are
// treated as matched and do not count as outstanding.
type BalancingInput struct {
	LedgerBalance    decimal.Decimal
	StatementBalance decimal.Decimal
	StatementSide    []BankTransaction
	SystemSide       []BankTransaction
}

// BalancingSummary is the result of ComputeBalancing.
type BalancingSummary struct {
	LedgerBalance          decimal.Decimal `json:"ledgerBalance"`
	StatementBalance       decimal.Decimal `json:"statementBalance"`
	UnrecordedCredits      decimal.Decimal `json:"unrecordedCredits"`
	UnrecordedDebits       decimal.Decimal `json:"unrecordedDebits"`
	OutstandingDeposits    decimal.Decimal `json:"outstandingDeposits"`
	OutstandingWithdrawals decimal.Decimal `json:"outstandingWithdrawals"`
	AdjustedBookBalance    decimal.Decimal `json:"adjustedBookBalance"`
	AdjustedBankBalance    decimal.Decimal `json:"adjustedBankBalance"`
	Difference             decimal.Decimal `json:"difference"`
	IsBalanced             bool            `json:"isBalanced"`
	MatchedStatementCount  int             `json:"matchedStatementCount"`
	MatchedSystemCount     int             `json:"matchedSystemCount"`
}

// ComputeBalancing derives adjusted book and bank balances:
//
//	adjusted book = ledger + unrecorded statement credits - unrecorded statement debits
//	adjusted bank = statement + outstanding system inflows - outstanding system outflows
//
// The reconciliation balances when the two are within BalanceTolerance.
func ComputeBalancing(in BalancingInput) BalancingSummary {
	s := BalancingSummary{
		LedgerBalance:          in.LedgerBalance,
		StatementBalance:       in.StatementBalance,
		UnrecordedCredits:      decimal.Zero,
		UnrecordedDebits:       decimal.Zero,
		OutstandingDeposits:    decimal.Zero,
		OutstandingWithdrawals: decimal.Zero,
	}

	for _, t := range in.StatementSide {
		if t.IsReconciled {
			s.MatchedStatementCount++
			continue
		}
		if t.IsInflow() {
			s.UnrecordedCredits = s.UnrecordedCredits.Add(t.Amount)
		} else {
			s.UnrecordedDebits = s.UnrecordedDebits.Add(t.Amount.Abs())
		}
	}
	for _, t := range in.SystemSide {
		if t.IsReconciled {
			s.MatchedSystemCount++
			continue
		}
		if t.IsInflow() {
			s.OutstandingDeposits = s.OutstandingDeposits.Add(t.Amount)
		} else {
			s.OutstandingWithdrawals = s.OutstandingWithdrawals.Add(t.Amount.Abs())
		}
	}

	s.AdjustedBookBalance = in.LedgerBalance.Add(s.UnrecordedCredits).Sub(s.UnrecordedDebits)
	s.AdjustedBankBalance = in.StatementBalance.Add(s.OutstandingDeposits).Sub(s.OutstandingWithdrawals)
	s.Difference = s.AdjustedBankBalance.Sub(s.AdjustedBookBalance)
	s.IsBalanced = WithinTolerance(s.Difference)
	return s
}

// SumAmounts totals the signed amounts of txns.
func SumAmounts(txns []BankTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}
