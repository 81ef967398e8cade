package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type accountService struct {
	BaseService
	tx          portsrepo.TxRunner
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the chart-of-accounts service.
func NewAccountService(tx portsrepo.TxRunner, accountRepo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(options...),
		tx:          tx,
		accountRepo: accountRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	accountType, err := domain.ParseAccountType(req.AccountType)
	if err != nil {
		return nil, apperrors.NewValidationError("%s", err.Error())
	}

	now := s.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		Code:           req.Code,
		Name:           req.Name,
		AccountType:    accountType,
		IsBankLinked:   req.IsBankLinked,
		IsActive:       true,
		OpeningBalance: req.OpeningBalance.Round(2),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if req.OpeningBalanceDate != nil {
		d := domain.DateOnly(*req.OpeningBalanceDate)
		account.OpeningBalanceDate = &d
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("code", account.Code))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, nil, accountID)
}

func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, nil, accountIDs)
}

func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, params.Limit, params.Offset)
}

// DeactivateAccount refuses accounts that still carry a balance. The account
// row stays locked until commit, so entries validating against it wait.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		account, err := s.accountRepo.LockAccountForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return apperrors.NewConflictError("account " + account.Code + " is already inactive")
		}

		now := s.Now()
		balance, err := lifetimeBalance(ctx, s.accountRepo, tx, *account)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			return apperrors.NewValidationError("account %s has a balance of %s and cannot be deactivated",
				account.Code, balance.StringFixed(2))
		}
		return s.accountRepo.DeactivateAccount(ctx, tx, accountID, userID, now)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}

func (s *accountService) GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*dto.AccountBalanceResponse, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	asOf = domain.DateOnly(asOf)
	balance, debits, credits, err := ledgerBalance(ctx, s.accountRepo, nil, *account, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to derive account balance", slog.String("account_id", accountID))
		return nil, err
	}
	return &dto.AccountBalanceResponse{
		AccountID:   account.AccountID,
		AccountType: account.AccountType,
		AsOf:        asOf,
		Debits:      debits,
		Credits:     credits,
		Balance:     balance,
	}, nil
}

// ledgerBalance is the opening balance (once its date is reached) plus the
// posted lines up to asOf, presented in the account's own polarity.
func ledgerBalance(ctx context.Context, repo portsrepo.AccountBalanceReader, tx pgx.Tx, account domain.Account, asOf time.Time) (balance, debits, credits decimal.Decimal, err error) {
	debits, credits, err = repo.SumPostedLines(ctx, tx, account.AccountID, asOf)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("summing posted lines of %s: %w", account.Code, err)
	}
	balance = account.AccountType.SignedBalance(debits, credits)
	if account.OpeningBalanceDate == nil || !account.OpeningBalanceDate.After(asOf) {
		balance = balance.Add(account.OpeningBalance)
	}
	return balance, debits, credits, nil
}

// lifetimeBalance counts every posted line and the opening balance, whatever
// their dates.
func lifetimeBalance(ctx context.Context, repo portsrepo.AccountBalanceReader, tx pgx.Tx, account domain.Account) (decimal.Decimal, error) {
	debits, credits, err := repo.SumAllPostedLines(ctx, tx, account.AccountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing posted lines of %s: %w", account.Code, err)
	}
	return account.AccountType.SignedBalance(debits, credits).Add(account.OpeningBalance), nil
}
