package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBankAccountService_CreateBankAccount(t *testing.T) {
	ctx := context.Background()
	req := dto.CreateBankAccountRequest{AccountID: "acc-cash", Name: "Operating", CurrencyCode: "SGD"}

	t.Run("Success", func(t *testing.T) {
		bankRepo, accountRepo := new(MockBankRepository), new(MockAccountRepository)
		svc := services.NewBankAccountService(&FakeTx{}, bankRepo, accountRepo)
		accountRepo.On("LockAccountsForShare", ctx, nil, []string{"acc-cash"}).
			Return(map[string]domain.Account{"acc-cash": {AccountID: "acc-cash", IsBankLinked: true, IsActive: true}}, nil).Once()
		bankRepo.On("SaveBankAccount", ctx, nil, mock.MatchedBy(func(b domain.BankAccount) bool {
			return b.AccountID == "acc-cash" && b.BankAccountID != "" && b.IsActive
		})).Return(nil).Once()

		bank, err := svc.CreateBankAccount(ctx, req, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "Operating", bank.Name)
	})

	t.Run("LedgerAccountNotBankLinked", func(t *testing.T) {
		bankRepo, accountRepo := new(MockBankRepository), new(MockAccountRepository)
		svc := services.NewBankAccountService(&FakeTx{}, bankRepo, accountRepo)
		accountRepo.On("LockAccountsForShare", ctx, nil, []string{"acc-cash"}).
			Return(map[string]domain.Account{"acc-cash": {AccountID: "acc-cash", Code: "1000"}}, nil).Once()

		_, err := svc.CreateBankAccount(ctx, req, "user-1")

		require.Error(t, err)
		assert.Equal(t, []string{"account 1000 is not bank-linked", "account 1000 is inactive"}, apperrors.Messages(err))
		bankRepo.AssertNotCalled(t, "SaveBankAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LedgerAccountMissing", func(t *testing.T) {
		bankRepo, accountRepo := new(MockBankRepository), new(MockAccountRepository)
		svc := services.NewBankAccountService(&FakeTx{}, bankRepo, accountRepo)
		accountRepo.On("LockAccountsForShare", ctx, nil, []string{"acc-cash"}).Return(map[string]domain.Account{}, nil).Once()

		_, err := svc.CreateBankAccount(ctx, req, "user-1")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestBankAccountService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	entryID := "entry-1"
	recID := "rec-1"

	tests := []struct {
		name    string
		found   []domain.BankTransaction
		deleted int64
		wantErr error
	}{
		{name: "Missing", found: []domain.BankTransaction{}, wantErr: apperrors.ErrNotFound},
		{name: "Reconciled", found: []domain.BankTransaction{{TransactionID: "t1", IsReconciled: true, ReconciliationID: &recID}}, wantErr: apperrors.ErrConflict},
		{name: "FromPosting", found: []domain.BankTransaction{{TransactionID: "t1", JournalEntryID: &entryID}}, wantErr: apperrors.ErrConflict},
		{name: "ChangedUnderneath", found: []domain.BankTransaction{{TransactionID: "t1", IsFromStatement: true}}, deleted: 0, wantErr: apperrors.ErrConflict},
		{name: "Deleted", found: []domain.BankTransaction{{TransactionID: "t1", IsFromStatement: true}}, deleted: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bankRepo := new(MockBankRepository)
			audit := new(MockAuditTrail)
			svc := services.NewBankAccountService(&FakeTx{}, bankRepo, new(MockAccountRepository),
				services.WithAuditTrail(audit), services.WithClock(func() time.Time { return now }))
			bankRepo.On("FindTransactionsForUpdate", ctx, nil, []string{"t1"}).Return(tt.found, nil).Once()
			bankRepo.On("DeleteUnreconciledTransaction", ctx, nil, "t1").Return(tt.deleted, nil).Maybe()
			audit.On("Record", ctx, mock.MatchedBy(func(r domain.AuditRecord) bool {
				return r.Action == domain.AuditTransactionDeleted && r.EntityID == "t1"
			})).Return(nil).Maybe()

			err := svc.DeleteTransaction(ctx, "t1", "user-1")

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			audit.AssertNumberOfCalls(t, "Record", 1)
		})
	}
}
