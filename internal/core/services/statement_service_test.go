package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestImportStatement_TolerantPerRow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	bankRepo := new(MockBankRepository)
	events := new(MockEventPublisher)
	audit := new(MockAuditTrail)
	svc := services.NewStatementService(&FakeTx{}, bankRepo,
		services.WithEventPublisher(events),
		services.WithAuditTrail(audit),
		services.WithClock(func() time.Time { return now }))

	rows := []domain.StatementRow{
		{RowNumber: 2, Date: day, Description: "Salary", Amount: decimal.RequireFromString("2500.00"), Raw: map[string]string{"Date": "03/06/2024", "Amount": "2500.00"}},
		{RowNumber: 3, ParseError: `invalid date "31/31/2024"`},
		{RowNumber: 4, Date: day, Description: "Fee waiver", Amount: decimal.RequireFromString("0.004")},
		{RowNumber: 5, Date: day, Description: "Rent", Amount: decimal.RequireFromString("-1200")},
		{RowNumber: 6, Date: day, Description: "Salary", Amount: decimal.RequireFromString("2500")},
	}

	bankRepo.On("FindBankAccountByID", mock.Anything, nil, "bank-1").Return(&domain.BankAccount{BankAccountID: "bank-1", IsActive: true}, nil).Once()
	bankRepo.On("StatementTransactionExists", mock.Anything, nil, "bank-1", day, amountEq("2500"), "Salary").Return(false, nil).Once()
	bankRepo.On("StatementTransactionExists", mock.Anything, nil, "bank-1", day, amountEq("-1200"), "Rent").Return(true, nil).Once()
	bankRepo.On("StatementTransactionExists", mock.Anything, nil, "bank-1", day, amountEq("2500"), "Salary").Return(true, nil).Once()
	bankRepo.On("InsertTransactions", mock.Anything, nil, mock.MatchedBy(func(txns []domain.BankTransaction) bool {
		return len(txns) == 1 &&
			txns[0].IsFromStatement &&
			txns[0].TransactionType == domain.Deposit &&
			txns[0].StatementRaw != nil && *txns[0].StatementRaw == `{"Amount":"2500.00","Date":"03/06/2024"}`
	})).Return(nil).Once()
	audit.On("Record", mock.Anything, mock.MatchedBy(func(r domain.AuditRecord) bool {
		return r.Action == domain.AuditStatementImported && r.EntityID == "bank-1"
	})).Return(nil).Once()
	events.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Type == domain.EventStatementImported
	})).Return(nil).Once()

	result, err := svc.ImportStatement(ctx, "bank-1", rows, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.ZeroAmount)
	assert.Equal(t, result.Total, result.Imported+result.Duplicates+result.Failed+result.ZeroAmount)
	require.Len(t, result.RowErrors, 4)
	assert.Equal(t, 3, result.RowErrors[0].RowNumber)
	assert.Equal(t, domain.RowFailed, result.RowErrors[0].Outcome)
	bankRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestImportStatement_InfrastructureErrorAbortsBatch(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	bankRepo := new(MockBankRepository)
	events := new(MockEventPublisher)
	svc := services.NewStatementService(&FakeTx{}, bankRepo, services.WithEventPublisher(events))

	bankRepo.On("FindBankAccountByID", mock.Anything, nil, "bank-1").Return(&domain.BankAccount{BankAccountID: "bank-1", IsActive: true}, nil).Once()
	bankRepo.On("StatementTransactionExists", mock.Anything, nil, "bank-1", day, mock.Anything, "Salary").Return(false, errors.New("connection reset")).Once()

	_, err := svc.ImportStatement(ctx, "bank-1", []domain.StatementRow{
		{RowNumber: 2, Date: day, Description: "Salary", Amount: decimal.NewFromInt(10)},
	}, "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestImportStatement_InactiveBankAccount(t *testing.T) {
	bankRepo := new(MockBankRepository)
	svc := services.NewStatementService(&FakeTx{}, bankRepo)
	bankRepo.On("FindBankAccountByID", mock.Anything, nil, "bank-1").Return(&domain.BankAccount{BankAccountID: "bank-1", Name: "Old"}, nil).Once()

	_, err := svc.ImportStatement(context.Background(), "bank-1", nil, "user-1")

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
