package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const balancedEntry = `{
	"entryDate": "2024-06-03T00:00:00Z",
	"journalType": "GENERAL",
	"description": "Office rent",
	"autoPost": true,
	"lines": [
		{"accountID": "acc-rent", "debitAmount": "1800.00"},
		{"accountID": "acc-bank", "creditAmount": "1800.00"}
	]
}`

func postedEntry() *domain.JournalEntry {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	return &domain.JournalEntry{
		EntryID:     "je-1",
		EntryNumber: "JE-000001",
		EntryDate:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		JournalType: domain.GeneralJournal,
		Description: "Office rent",
		IsPosted:    true,
		PostedAt:    &now,
		Lines: []domain.JournalEntryLine{
			{LineID: "l1", LineNumber: 1, AccountID: "acc-rent", DebitAmount: decimal.NewFromInt(1800), CreditAmount: decimal.Zero},
			{LineID: "l2", LineNumber: 2, AccountID: "acc-bank", DebitAmount: decimal.Zero, CreditAmount: decimal.NewFromInt(1800)},
		},
	}
}

func (suite *HandlerTestSuite) TestCreateEntry_Success() {
	suite.journal.On("CreateEntry", mock.Anything, mock.MatchedBy(func(r dto.CreateEntryRequest) bool {
		return r.AutoPost && len(r.Lines) == 2 && r.Lines[0].DebitAmount.Equal(decimal.NewFromInt(1800))
	}), suite.userID).Return(postedEntry(), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries", balancedEntry)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("JE-000001", resp.EntryNumber)
	suite.True(resp.IsPosted)
	suite.True(resp.TotalDebit.Equal(decimal.NewFromInt(1800)))
	suite.Len(resp.Lines, 2)
}

func (suite *HandlerTestSuite) TestCreateEntry_ValidationMessagesAreReturned() {
	msgs := []string{"entry is not balanced: debits 100.00, credits 90.00", "line 2: account acc-x does not exist"}
	suite.journal.On("CreateEntry", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.NewValidationErrors(msgs)).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries", balancedEntry)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(msgs, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestCreateEntry_NegativeAmountRejectedAtBinding() {
	body := `{"entryDate":"2024-06-03T00:00:00Z","journalType":"GENERAL","lines":[{"accountID":"a","debitAmount":"-5"}]}`

	w := suite.do(http.MethodPost, "/api/v1/entries", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	errs := suite.errorsOf(w)
	suite.Require().Len(errs, 1)
	suite.Contains(errs[0], "decimal_gte0")
	suite.journal.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateEntry_MissingDate() {
	w := suite.do(http.MethodPost, "/api/v1/entries", `{"journalType":"GENERAL","lines":[]}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestGetEntry_NotFound() {
	suite.journal.On("GetEntry", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("journal entry missing not found")).Once()

	w := suite.do(http.MethodGet, "/api/v1/entries/missing", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal([]string{"journal entry missing not found"}, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestPostEntry_AlreadyPosted() {
	suite.journal.On("PostEntry", mock.Anything, "je-1", suite.userID).
		Return(nil, apperrors.NewConflictError("journal entry JE-000001 is already posted")).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/je-1/post", "")

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal([]string{"journal entry JE-000001 is already posted"}, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestPostEntry_InfrastructureErrorIsHidden() {
	suite.journal.On("PostEntry", mock.Anything, "je-1", suite.userID).
		Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/je-1/post", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal([]string{"Failed posting journal entry"}, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestReverseEntry() {
	reversal := postedEntry()
	reversal.EntryID = "je-2"
	reversal.JournalType = domain.ReversalJournal
	original := "je-1"
	reversal.ReversedEntryID = &original

	suite.journal.On("ReverseEntry", mock.Anything, "je-1", mock.MatchedBy(func(r dto.ReverseEntryRequest) bool {
		return r.Note == "duplicate" && r.ReversalDate.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	}), suite.userID).Return(reversal, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/entries/je-1/reverse", `{"reversalDate":"2024-06-30T00:00:00Z","note":"duplicate"}`)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("je-2", resp.EntryID)
	suite.Require().NotNil(resp.ReversedEntryID)
	suite.Equal("je-1", *resp.ReversedEntryID)
}

func (suite *HandlerTestSuite) TestListEntries_BindsFilters() {
	suite.journal.On("ListEntries", mock.Anything, mock.MatchedBy(func(p dto.ListEntriesParams) bool {
		return p.Limit == 5 && p.Posted != nil && *p.Posted &&
			p.FromDate != nil && p.FromDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	})).Return(&dto.ListEntriesResponse{Entries: []dto.EntryResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/entries?limit=5&posted=true&fromDate=2024-06-01", "")

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
}
