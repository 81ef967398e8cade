package handlers_test

import (
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (suite *HandlerTestSuite) TestGetAccountBalance() {
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	suite.accounts.On("GetAccountBalance", mock.Anything, "acc-1", asOf).Return(&dto.AccountBalanceResponse{
		AccountID:   "acc-1",
		AccountType: domain.Asset,
		AsOf:        asOf,
		Debits:      decimal.NewFromInt(2000),
		Credits:     decimal.NewFromInt(850),
		Balance:     decimal.NewFromInt(1150),
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/balance?asOf=2024-06-30", "")

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"balance":"1150"`)
}

func (suite *HandlerTestSuite) TestGetAccountBalance_BadDate() {
	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/balance?asOf=30/06/2024", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal([]string{"asOf must be a date in YYYY-MM-DD format"}, suite.errorsOf(w))
}

func (suite *HandlerTestSuite) TestCreateAccount_BadType() {
	w := suite.do(http.MethodPost, "/api/v1/accounts", `{"code":"1000","name":"Cash","accountType":"CASH"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeactivateAccount_WithBalance() {
	msg := "account 1000 has a balance of 25.00 and cannot be deactivated"
	suite.accounts.On("DeactivateAccount", mock.Anything, "acc-1", suite.userID).
		Return(apperrors.NewValidationError("%s", msg)).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts/acc-1/deactivate", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal([]string{msg}, suite.errorsOf(w))
}
