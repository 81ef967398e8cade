package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JournalType tags the book an entry belongs to.
type JournalType string

const (
	GeneralJournal     JournalType = "GENERAL"
	SalesJournal       JournalType = "SALES"
	PurchaseJournal    JournalType = "PURCHASE"
	CashReceiptJournal JournalType = "CASH_RECEIPT"
	CashPaymentJournal JournalType = "CASH_PAYMENT"
	AdjustmentJournal  JournalType = "ADJUSTMENT"
	RecurringJournal   JournalType = "RECURRING"
	ReversalJournal    JournalType = "REVERSAL"
)

// IsValid reports whether the journal type is one of the known tags.
func (t JournalType) IsValid() bool {
	switch t {
	case GeneralJournal, SalesJournal, PurchaseJournal, CashReceiptJournal,
		CashPaymentJournal, AdjustmentJournal, RecurringJournal, ReversalJournal:
		return true
	}
	return false
}

// SourceDocumentType identifies what produced an entry.
type SourceDocumentType string

const (
	SourceInvoice          SourceDocumentType = "INVOICE"
	SourcePayment          SourceDocumentType = "PAYMENT"
	SourceReconciliation   SourceDocumentType = "RECONCILIATION"
	SourceRecurringPattern SourceDocumentType = "RECURRING_PATTERN"
)

// JournalEntry is the header of a double-entry ledger posting.
type JournalEntry struct {
	EntryID            string              `json:"entryID"`
	EntryNumber        string              `json:"entryNumber"`
	EntryDate          time.Time           `json:"entryDate"`
	JournalType        JournalType         `json:"journalType"`
	FiscalPeriodID     string              `json:"fiscalPeriodID"`
	Description        string              `json:"description"`
	Reference          string              `json:"reference,omitempty"`
	IsPosted           bool                `json:"isPosted"`
	PostedAt           *time.Time          `json:"postedAt,omitempty"`
	PostedBy           *string             `json:"postedBy,omitempty"`
	IsReversed         bool                `json:"isReversed"`
	ReversingEntryID   *string             `json:"reversingEntryID,omitempty"` // set on the original
	ReversedEntryID    *string             `json:"reversedEntryID,omitempty"`  // set on the mirror
	SourceDocumentType *SourceDocumentType `json:"sourceDocumentType,omitempty"`
	SourceDocumentID   *string             `json:"sourceDocumentID,omitempty"`
	Lines              []JournalEntryLine  `json:"lines,omitempty"`
	AuditFields
}

// TotalDebit sums the debit side of the entry.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.DebitAmount)
	}
	return total
}

// TotalCredit sums the credit side of the entry.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.CreditAmount)
	}
	return total
}

// CanModify reports whether lines may still be replaced.
func (e JournalEntry) CanModify() bool {
	return !e.IsPosted
}

// JournalEntryLine is a single debit or credit against one account.
type JournalEntryLine struct {
	LineID       string            `json:"lineID"`
	EntryID      string            `json:"entryID"`
	LineNumber   int               `json:"lineNumber"`
	AccountID    string            `json:"accountID"`
	Description  string            `json:"description,omitempty"`
	DebitAmount  decimal.Decimal   `json:"debitAmount"`
	CreditAmount decimal.Decimal   `json:"creditAmount"`
	CurrencyCode string            `json:"currencyCode"`
	ExchangeRate decimal.Decimal   `json:"exchangeRate"`
	TaxCode      *string           `json:"taxCode,omitempty"`
	TaxAmount    decimal.Decimal   `json:"taxAmount"`
	Dimensions   map[string]string `json:"dimensions,omitempty"`
}

// Net returns debit minus credit.
func (l JournalEntryLine) Net() decimal.Decimal {
	return l.DebitAmount.Sub(l.CreditAmount)
}

// Mirror returns the line with debit and credit swapped and the tax amount negated.
func (l JournalEntryLine) Mirror() JournalEntryLine {
	m := l
	m.LineID = ""
	m.EntryID = ""
	m.DebitAmount, m.CreditAmount = l.CreditAmount, l.DebitAmount
	m.TaxAmount = l.TaxAmount.Neg()
	if l.Dimensions != nil {
		m.Dimensions = make(map[string]string, len(l.Dimensions))
		for k, v := range l.Dimensions {
			m.Dimensions[k] = v
		}
	}
	return m
}

// ValidateLines enforces the structural rules of a proposed entry and returns
// every violation found. An empty result means the lines are acceptable.
func ValidateLines(lines []JournalEntryLine) []string {
	if len(lines) == 0 {
		return []string{"journal entry must have at least one line"}
	}

	var msgs []string
	debits, credits := decimal.Zero, decimal.Zero
	for i, l := range lines {
		n := i + 1
		if l.AccountID == "" {
			msgs = append(msgs, fmt.Sprintf("line %d: account is required", n))
		}
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			msgs = append(msgs, fmt.Sprintf("line %d: amounts cannot be negative", n))
		}
		if l.DebitAmount.IsPositive() && l.CreditAmount.IsPositive() {
			msgs = append(msgs, fmt.Sprintf("line %d: cannot carry both a debit and a credit", n))
		}
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}

	if diff := debits.Sub(credits); !WithinTolerance(diff) {
		msgs = append(msgs, fmt.Sprintf("entry is unbalanced: debits %s, credits %s (difference %s)",
			debits.StringFixed(2), credits.StringFixed(2), diff.Abs().StringFixed(2)))
	}
	return msgs
}
