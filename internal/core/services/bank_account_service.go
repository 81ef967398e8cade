package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type bankAccountService struct {
	BaseService
	tx          portsrepo.TxRunner
	bankRepo    portsrepo.BankRepositoryFacade
	accountRepo portsrepo.AccountReader
}

// NewBankAccountService creates the service managing bank accounts and their transactions.
func NewBankAccountService(tx portsrepo.TxRunner, bankRepo portsrepo.BankRepositoryFacade, accountRepo portsrepo.AccountReader, options ...ServiceOption) portssvc.BankAccountSvcFacade {
	return &bankAccountService{
		BaseService: newBaseService(options...),
		tx:          tx,
		bankRepo:    bankRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.BankAccountSvcFacade = (*bankAccountService)(nil)

// CreateBankAccount opens the bank account record of a bank-linked ledger
// account. The ledger account is share-locked while the row is inserted.
func (s *bankAccountService) CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	var bank domain.BankAccount
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		accounts, err := s.accountRepo.LockAccountsForShare(ctx, tx, []string{req.AccountID})
		if err != nil {
			return err
		}
		account, ok := accounts[req.AccountID]
		if !ok {
			return apperrors.NewNotFoundError("account " + req.AccountID + " not found")
		}
		var msgs []string
		if !account.IsBankLinked {
			msgs = append(msgs, "account "+account.Code+" is not bank-linked")
		}
		if !account.IsActive {
			msgs = append(msgs, "account "+account.Code+" is inactive")
		}
		if err := apperrors.NewValidationErrors(msgs); err != nil {
			return err
		}

		now := s.Now()
		bank = domain.BankAccount{
			BankAccountID:  uuid.NewString(),
			AccountID:      account.AccountID,
			Name:           req.Name,
			AccountNumber:  req.AccountNumber,
			CurrencyCode:   req.CurrencyCode,
			CurrentBalance: req.OpeningBalance.Round(2),
			IsActive:       true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		return s.bankRepo.SaveBankAccount(ctx, tx, bank)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save bank account", slog.String("account_id", req.AccountID))
		return nil, err
	}
	s.LogInfo(ctx, "Bank account created", slog.String("bank_account_id", bank.BankAccountID))
	return &bank, nil
}

func (s *bankAccountService) GetBankAccount(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	return s.bankRepo.FindBankAccountByID(ctx, nil, bankAccountID)
}

func (s *bankAccountService) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	return s.bankRepo.ListBankAccounts(ctx)
}

func (s *bankAccountService) ListTransactions(ctx context.Context, bankAccountID string, params dto.ListBankTransactionsParams) ([]domain.BankTransaction, error) {
	if _, err := s.bankRepo.FindBankAccountByID(ctx, nil, bankAccountID); err != nil {
		return nil, err
	}
	filter := portsrepo.BankTransactionFilter{Reconciled: params.Reconciled, FromStatement: params.FromStatement}
	return s.bankRepo.ListTransactions(ctx, bankAccountID, filter, params.Limit, params.Offset)
}

// DeleteTransaction removes a bank transaction that is neither reconciled nor
// derived from a posted entry.
func (s *bankAccountService) DeleteTransaction(ctx context.Context, transactionID string, userID string) error {
	var deleted domain.BankTransaction
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		txns, err := s.bankRepo.FindTransactionsForUpdate(ctx, tx, []string{transactionID})
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			return apperrors.NewNotFoundError("bank transaction " + transactionID + " not found")
		}
		deleted = txns[0]
		if !deleted.CanDelete() {
			return apperrors.NewConflictError("bank transaction " + transactionID + " is reconciled; unreconcile it first")
		}
		if deleted.JournalEntryID != nil {
			return apperrors.NewConflictError("bank transaction " + transactionID + " comes from journal entry " + *deleted.JournalEntryID + "; reverse the entry instead")
		}

		n, err := s.bankRepo.DeleteUnreconciledTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperrors.NewConflictError("bank transaction " + transactionID + " changed while being deleted")
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete bank transaction", slog.String("transaction_id", transactionID))
		return err
	}

	s.record(ctx, domain.AuditTransactionDeleted, "bank_transaction", transactionID, userID, map[string]any{
		"bankAccountID": deleted.BankAccountID,
		"amount":        deleted.Amount.StringFixed(2),
		"date":          deleted.TransactionDate.Format("2006-01-02"),
		"description":   deleted.Description,
	})
	return nil
}
