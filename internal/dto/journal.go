package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryLineRequest is one proposed journal line.
type EntryLineRequest struct {
	AccountID    string            `json:"accountID" binding:"required"`
	Description  string            `json:"description"`
	DebitAmount  decimal.Decimal   `json:"debitAmount" binding:"decimal_gte0"`
	CreditAmount decimal.Decimal   `json:"creditAmount" binding:"decimal_gte0"`
	CurrencyCode string            `json:"currencyCode"`
	ExchangeRate *decimal.Decimal  `json:"exchangeRate"` // defaults to 1
	TaxCode      *string           `json:"taxCode"`
	TaxAmount    decimal.Decimal   `json:"taxAmount"`
	Dimensions   map[string]string `json:"dimensions"`
}

// CreateEntryRequest defines the data needed to create a journal entry.
type CreateEntryRequest struct {
	EntryDate          time.Time          `json:"entryDate" binding:"required"`
	JournalType        domain.JournalType `json:"journalType" binding:"required"`
	Description        string             `json:"description"`
	Reference          string             `json:"reference"`
	SourceDocumentType *string            `json:"sourceDocumentType"`
	SourceDocumentID   *string            `json:"sourceDocumentID"`
	Lines              []EntryLineRequest `json:"lines" binding:"dive"`
	AutoPost           bool               `json:"autoPost"` // post in the same transaction
}

// UpdateEntryRequest replaces the header fields and the whole line set of an unposted entry.
type UpdateEntryRequest struct {
	EntryDate   time.Time          `json:"entryDate" binding:"required"`
	JournalType domain.JournalType `json:"journalType" binding:"required"`
	Description string             `json:"description"`
	Reference   string             `json:"reference"`
	Lines       []EntryLineRequest `json:"lines" binding:"dive"`
}

// ReverseEntryRequest defines the data needed to reverse a posted entry.
type ReverseEntryRequest struct {
	ReversalDate time.Time `json:"reversalDate" binding:"required"`
	Note         string    `json:"note"`
	AutoPost     bool      `json:"autoPost"`
}

// ListEntriesParams defines the query parameters for listing entries.
type ListEntriesParams struct {
	Limit     int        `form:"limit,default=20"`
	NextToken *string    `form:"nextToken"`
	FromDate  *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate    *time.Time `form:"toDate" time_format:"2006-01-02"`
	Posted    *bool      `form:"posted"`
}

// EntryLineResponse defines the data returned for a journal line.
type EntryLineResponse struct {
	LineID       string            `json:"lineID"`
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

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string              `json:"entryID"`
	EntryNumber      string              `json:"entryNumber"`
	EntryDate        time.Time           `json:"entryDate"`
	JournalType      domain.JournalType  `json:"journalType"`
	FiscalPeriodID   string              `json:"fiscalPeriodID"`
	Description      string              `json:"description"`
	Reference        string              `json:"reference,omitempty"`
	IsPosted         bool                `json:"isPosted"`
	PostedAt         *time.Time          `json:"postedAt,omitempty"`
	IsReversed       bool                `json:"isReversed"`
	ReversingEntryID *string             `json:"reversingEntryID,omitempty"`
	ReversedEntryID  *string             `json:"reversedEntryID,omitempty"`
	TotalDebit       decimal.Decimal     `json:"totalDebit"`
	TotalCredit      decimal.Decimal     `json:"totalCredit"`
	Lines            []EntryLineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	CreatedBy        string              `json:"createdBy"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToLines converts request lines into domain lines, numbering them from 1.
func ToLines(reqs []EntryLineRequest) []domain.JournalEntryLine {
	lines := make([]domain.JournalEntryLine, len(reqs))
	for i, r := range reqs {
		rate := decimal.NewFromInt(1)
		if r.ExchangeRate != nil {
			rate = *r.ExchangeRate
		}
		lines[i] = domain.JournalEntryLine{
			LineNumber:   i + 1,
			AccountID:    r.AccountID,
			Description:  r.Description,
			DebitAmount:  r.DebitAmount,
			CreditAmount: r.CreditAmount,
			CurrencyCode: r.CurrencyCode,
			ExchangeRate: rate,
			TaxCode:      r.TaxCode,
			TaxAmount:    r.TaxAmount,
			Dimensions:   r.Dimensions,
		}
	}
	return lines
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          e.EntryID,
		EntryNumber:      e.EntryNumber,
		EntryDate:        e.EntryDate,
		JournalType:      e.JournalType,
		FiscalPeriodID:   e.FiscalPeriodID,
		Description:      e.Description,
		Reference:        e.Reference,
		IsPosted:         e.IsPosted,
		PostedAt:         e.PostedAt,
		IsReversed:       e.IsReversed,
		ReversingEntryID: e.ReversingEntryID,
		ReversedEntryID:  e.ReversedEntryID,
		TotalDebit:       e.TotalDebit(),
		TotalCredit:      e.TotalCredit(),
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	if len(e.Lines) > 0 {
		resp.Lines = make([]EntryLineResponse, len(e.Lines))
		for i, l := range e.Lines {
			resp.Lines[i] = EntryLineResponse{
				LineID:       l.LineID,
				LineNumber:   l.LineNumber,
				AccountID:    l.AccountID,
				Description:  l.Description,
				DebitAmount:  l.DebitAmount,
				CreditAmount: l.CreditAmount,
				CurrencyCode: l.CurrencyCode,
				ExchangeRate: l.ExchangeRate,
				TaxCode:      l.TaxCode,
				TaxAmount:    l.TaxAmount,
				Dimensions:   l.Dimensions,
			}
		}
	}
	return resp
}

// ToEntryResponses converts a slice of domain.JournalEntry to []EntryResponse.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}
