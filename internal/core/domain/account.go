package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// ParseAccountType converts a stored or user-supplied value into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Asset, Liability, Equity, Revenue, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// IsDebitNature reports whether debits increase the account's presented balance.
// Asset and Expense accounts are debit-natured; everything else is credit-natured.
func (t AccountType) IsDebitNature() bool {
	switch t {
	case Asset, Expense:
		return true
	default:
		return false
	}
}

// SignedBalance presents raw debit and credit sums as a balance in the account's own polarity.
func (t AccountType) SignedBalance(debits, credits decimal.Decimal) decimal.Decimal {
	if t.IsDebitNature() {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// Account represents a general-ledger account within the core domain.
type Account struct {
	AccountID          string          `json:"accountID"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	AccountType        AccountType     `json:"accountType"`
	IsBankLinked       bool            `json:"isBankLinked"`
	IsActive           bool            `json:"isActive"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceDate *time.Time      `json:"openingBalanceDate,omitempty"`
	AuditFields
}
