package handlers_test

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var june30 = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func (suite *HandlerTestSuite) TestGetOrCreateDraft() {
	draft := domain.NewDraftReconciliation("bank-1", june30, decimal.NewFromInt(1200))
	draft.ReconciliationID = "rec-1"

	suite.recon.On("GetOrCreateDraft", mock.Anything, "bank-1",
		mock.MatchedBy(func(d time.Time) bool { return d.Equal(june30) }),
		mock.MatchedBy(func(b decimal.Decimal) bool { return b.Equal(decimal.NewFromInt(1200)) }),
		suite.userID).Return(&draft, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations",
		`{"bankAccountID":"bank-1","statementDate":"2024-06-30T00:00:00Z","statementBalance":"1200.00"}`)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var got domain.BankReconciliation
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal("rec-1", got.ReconciliationID)
	suite.Equal(domain.ReconciliationDraft, got.Status)
}

func (suite *HandlerTestSuite) TestGetOrCreateDraft_AlreadyReconciled() {
	suite.recon.On("GetOrCreateDraft", mock.Anything, "bank-1", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.NewConflictError("the statement of 2024-06-30 is already reconciled")).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations",
		`{"bankAccountID":"bank-1","statementDate":"2024-06-30T00:00:00Z","statementBalance":"1200.00"}`)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestMatch() {
	suite.recon.On("MarkProvisionallyReconciled", mock.Anything, "rec-1", []string{"t1", "t2"},
		mock.MatchedBy(func(d time.Time) bool { return d.Equal(june30) }), suite.userID).
		Return(&dto.MatchResult{ReconciliationID: "rec-1", Matched: 2, StatementTotal: decimal.NewFromInt(50), SystemTotal: decimal.NewFromInt(50)}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/match",
		`{"transactionIDs":["t1","t2"],"statementDate":"2024-06-30T00:00:00Z"}`)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var got dto.MatchResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(2, got.Matched)
}

func (suite *HandlerTestSuite) TestMatch_TotalsMismatch() {
	msg := "selected statement total 50.00 does not match selected system total 45.00"
	suite.recon.On("MarkProvisionallyReconciled", mock.Anything, "rec-1", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.NewValidationError("%s", msg)).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/match",
		`{"transactionIDs":["t1"],"statementDate":"2024-06-30T00:00:00Z"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal([]string{msg}, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestMatch_EmptySelection() {
	w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/match",
		`{"transactionIDs":[],"statementDate":"2024-06-30T00:00:00Z"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUnreconcile() {
	suite.recon.On("Unreconcile", mock.Anything, []string{"t1"}, suite.userID).
		Return(&dto.UnreconcileResult{Released: 1}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/bank-transactions/unreconcile", `{"transactionIDs":["t1"]}`)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`{"released":1}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestFinalize() {
	now := june30.Add(10 * time.Hour)
	finalized := domain.BankReconciliation{
		ReconciliationID: "rec-1",
		BankAccountID:    "bank-1",
		StatementDate:    june30,
		StatementBalance: decimal.NewFromInt(1200),
		Status:           domain.ReconciliationFinalized,
		ReconciledAt:     &now,
		ReconciledBy:     &suite.userID,
	}
	suite.recon.On("Finalize", mock.Anything, "rec-1", mock.MatchedBy(func(r dto.FinalizeReconciliationRequest) bool {
		return r.StatementBalance.Equal(decimal.NewFromInt(1200)) && r.Difference.IsZero()
	}), suite.userID).Return(&finalized, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliations/rec-1/finalize",
		`{"statementBalance":"1200","calculatedBookBalance":"1200","difference":"0"}`)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var got domain.BankReconciliation
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(domain.ReconciliationFinalized, got.Status)
}

func (suite *HandlerTestSuite) TestDeleteReconciliation() {
	suite.recon.On("DeleteReconciliation", mock.Anything, "rec-1", suite.userID).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/reconciliations/rec-1", "")

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestBalancingAndAudit() {
	suite.recon.On("ComputeBalancing", mock.Anything, "rec-1").Return(&domain.BalancingSummary{
		LedgerBalance:       decimal.NewFromInt(1150),
		AdjustedBookBalance: decimal.NewFromInt(1200),
		AdjustedBankBalance: decimal.NewFromInt(1200),
		Difference:          decimal.Zero,
		IsBalanced:          true,
	}, nil).Once()
	suite.recon.On("GetAuditTrail", mock.Anything, "rec-1").Return([]domain.AuditRecord{
		{RecordID: "a1", Action: domain.AuditDraftOpened, EntityType: "reconciliation", EntityID: "rec-1"},
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/reconciliations/rec-1/balancing", "")
	suite.Equal(http.StatusOK, w.Code)
	var summary domain.BalancingSummary
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	suite.True(summary.IsBalanced)

	w = suite.do(http.MethodGet, "/api/v1/reconciliations/rec-1/audit", "")
	suite.Equal(http.StatusOK, w.Code)
	var body struct {
		Records []domain.AuditRecord `json:"records"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body.Records, 1)
	suite.Equal(domain.AuditDraftOpened, body.Records[0].Action)
}
