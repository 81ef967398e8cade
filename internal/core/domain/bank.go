package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransactionType classifies the direction of a bank movement.
type BankTransactionType string

const (
	Deposit    BankTransactionType = "DEPOSIT"
	Withdrawal BankTransactionType = "WITHDRAWAL"
)

// TransactionTypeFor returns DEPOSIT for positive amounts and WITHDRAWAL otherwise.
func TransactionTypeFor(amount decimal.Decimal) BankTransactionType {
	if amount.IsPositive() {
		return Deposit
	}
	return Withdrawal
}

// BankAccount is the banking side of a bank-linked ledger account.
type BankAccount struct {
	BankAccountID         string           `json:"bankAccountID"`
	AccountID             string           `json:"accountID"` // linked GL account
	Name                  string           `json:"name"`
	AccountNumber         string           `json:"accountNumber,omitempty"`
	CurrencyCode          string           `json:"currencyCode"`
	CurrentBalance        decimal.Decimal  `json:"currentBalance"`
	LastReconciledDate    *time.Time       `json:"lastReconciledDate,omitempty"`
	LastReconciledBalance *decimal.Decimal `json:"lastReconciledBalance,omitempty"`
	IsActive              bool             `json:"isActive"`
	AuditFields
}

// BankTransaction is a single movement on a bank account, either imported
// from a statement or derived from a ledger posting.
type BankTransaction struct {
	TransactionID    string              `json:"transactionID"`
	BankAccountID    string              `json:"bankAccountID"`
	TransactionDate  time.Time           `json:"transactionDate"`
	TransactionType  BankTransactionType `json:"transactionType"`
	Description      string              `json:"description"`
	Reference        string              `json:"reference,omitempty"`
	Amount           decimal.Decimal     `json:"amount"` // positive = inflow
	IsFromStatement  bool                `json:"isFromStatement"`
	StatementRaw     *string             `json:"statementRaw,omitempty"`
	JournalEntryID   *string             `json:"journalEntryID,omitempty"`
	JournalLineID    *string             `json:"journalLineID,omitempty"`
	IsReconciled     bool                `json:"isReconciled"`
	ReconciledDate   *time.Time          `json:"reconciledDate,omitempty"`
	ReconciliationID *string             `json:"reconciliationID,omitempty"`
	AuditFields
}

// IsInflow reports whether the transaction increases the bank balance.
func (t BankTransaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// CanDelete reports whether the transaction may be removed.
func (t BankTransaction) CanDelete() bool {
	return !t.IsReconciled
}
