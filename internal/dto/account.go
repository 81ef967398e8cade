package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code               string          `json:"code" binding:"required"`
	Name               string          `json:"name" binding:"required"`
	AccountType        string          `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	IsBankLinked       bool            `json:"isBankLinked"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceDate *time.Time      `json:"openingBalanceDate"`
}

// ListAccountsParams defines the query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// AccountBalanceResponse is a derived balance at a date.
type AccountBalanceResponse struct {
	AccountID   string             `json:"accountID"`
	AccountType domain.AccountType `json:"accountType"`
	AsOf        time.Time          `json:"asOf"`
	Debits      decimal.Decimal    `json:"debits"`
	Credits     decimal.Decimal    `json:"credits"`
	Balance     decimal.Decimal    `json:"balance"`
}

// CreateBankAccountRequest links a bank account to a bank-linked ledger account.
type CreateBankAccountRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	AccountNumber  string          `json:"accountNumber"`
	CurrencyCode   string          `json:"currencyCode" binding:"required,len=3"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// ListBankTransactionsParams defines the query parameters for listing bank transactions.
type ListBankTransactionsParams struct {
	Reconciled    *bool `form:"reconciled"`
	FromStatement *bool `form:"fromStatement"`
	Limit         int   `form:"limit,default=50"`
	Offset        int   `form:"offset,default=0"`
}

// CreateFiscalPeriodRequest defines an accounting period.
type CreateFiscalPeriodRequest struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// UpdateFiscalPeriodStatusRequest opens, closes or archives a period.
type UpdateFiscalPeriodStatusRequest struct {
	Status domain.PeriodStatus `json:"status" binding:"required,oneof=OPEN CLOSED ARCHIVED"`
}
