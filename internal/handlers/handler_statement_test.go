package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func multipartStatement(profile, csv string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if profile != "" {
		_ = w.WriteField("profile", profile)
	}
	if csv != "" {
		part, _ := w.CreateFormFile("file", "june.csv")
		_, _ = part.Write([]byte(csv))
	}
	_ = w.Close()
	return body, w.FormDataContentType()
}

func (suite *HandlerTestSuite) uploadStatement(profile, csv string) int {
	body, contentType := multipartStatement(profile, csv)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/bank-accounts/bank-1/statements", body)
	req.Header.Set("Content-Type", contentType)
	return suite.serve(req).Code
}

func (suite *HandlerTestSuite) TestImportStatement_ParsesWithProfile() {
	csv := "Transaction Date,Details,Debit,Credit\n" +
		"03 Jun 2024,Salary,,3000.00\n" +
		"04 Jun 2024,Rent,1800.00,\n" +
		"bad date,Broken,,1\n"

	suite.statements.On("ImportStatement", mock.Anything, "bank-1", mock.MatchedBy(func(rows []domain.StatementRow) bool {
		return len(rows) == 3 &&
			rows[0].Amount.Equal(decimal.NewFromInt(3000)) &&
			rows[0].Date.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) &&
			rows[1].Amount.Equal(decimal.NewFromInt(-1800)) &&
			rows[2].ParseError != ""
	}), suite.userID).Return(&domain.ImportResult{BankAccountID: "bank-1", Total: 3, Imported: 2, Failed: 1}, nil).Once()

	suite.Equal(http.StatusOK, suite.uploadStatement("dbs", csv))
}

func (suite *HandlerTestSuite) TestImportStatement_UnknownProfile() {
	suite.Equal(http.StatusBadRequest, suite.uploadStatement("uob", "Date,Amount\n"))
}

func (suite *HandlerTestSuite) TestImportStatement_MissingFile() {
	suite.Equal(http.StatusBadRequest, suite.uploadStatement("dbs", ""))
}

func (suite *HandlerTestSuite) TestImportStatement_HeaderMismatch() {
	suite.Equal(http.StatusBadRequest, suite.uploadStatement("", "When,What\n2024-06-01,x\n"))
}
