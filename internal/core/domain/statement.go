package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementRow is one parsed line of a bank statement feed. A row that could
// not be parsed carries ParseError and no usable date or amount.
type StatementRow struct {
	RowNumber   int
	Date        time.Time
	Description string
	Reference   string
	Amount      decimal.Decimal
	Raw         map[string]string
	ParseError  string
}

// RowOutcome classifies what happened to a statement row on import.
type RowOutcome string

const (
	RowImported   RowOutcome = "IMPORTED"
	RowDuplicate  RowOutcome = "DUPLICATE"
	RowFailed     RowOutcome = "FAILED"
	RowZeroAmount RowOutcome = "ZERO_AMOUNT"
)

// RowError describes a skipped row.
type RowError struct {
	RowNumber int        `json:"rowNumber"`
	Outcome   RowOutcome `json:"outcome"`
	Message   string     `json:"message"`
}

// ImportResult summarises a statement import. Total always equals the sum of
// the four outcome counters.
type ImportResult struct {
	BankAccountID string     `json:"bankAccountID"`
	Total         int        `json:"total"`
	Imported      int        `json:"imported"`
	Duplicates    int        `json:"duplicates"`
	Failed        int        `json:"failed"`
	ZeroAmount    int        `json:"zeroAmount"`
	RowErrors     []RowError `json:"rowErrors,omitempty"`
}

// Record counts a row outcome. Imported rows never carry a message.
func (r *ImportResult) Record(row int, outcome RowOutcome, msg string) {
	r.Total++
	switch outcome {
	case RowImported:
		r.Imported++
		return
	case RowDuplicate:
		r.Duplicates++
	case RowFailed:
		r.Failed++
	case RowZeroAmount:
		r.ZeroAmount++
	}
	r.RowErrors = append(r.RowErrors, RowError{RowNumber: row, Outcome: outcome, Message: msg})
}
