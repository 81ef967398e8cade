package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type statementService struct {
	BaseService
	tx       portsrepo.TxRunner
	bankRepo portsrepo.BankRepositoryFacade
}

// NewStatementService creates the statement importer.
func NewStatementService(tx portsrepo.TxRunner, bankRepo portsrepo.BankRepositoryFacade, options ...ServiceOption) portssvc.StatementSvcFacade {
	return &statementService{
		BaseService: newBaseService(options...),
		tx:          tx,
		bankRepo:    bankRepo,
	}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

func (s *statementService) ImportStatement(ctx context.Context, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error) {
	var result *domain.ImportResult
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.ImportStatementInTx(ctx, tx, bankAccountID, rows, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Statement import aborted", slog.String("bank_account_id", bankAccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Statement imported",
		slog.String("bank_account_id", bankAccountID),
		slog.Int("total", result.Total),
		slog.Int("imported", result.Imported),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("failed", result.Failed),
		slog.Int("zero_amount", result.ZeroAmount))
	summary := map[string]any{
		"total":      result.Total,
		"imported":   result.Imported,
		"duplicates": result.Duplicates,
		"failed":     result.Failed,
		"zeroAmount": result.ZeroAmount,
	}
	s.record(ctx, domain.AuditStatementImported, "bank_account", bankAccountID, userID, summary)
	s.publish(ctx, domain.EventStatementImported, bankAccountID, userID, summary)
	return result, nil
}

// ImportStatementInTx inserts every usable row and records why the others were
// skipped. Rows are handled one at a time so a repeated row within the same
// file is caught as a duplicate.
func (s *statementService) ImportStatementInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, rows []domain.StatementRow, userID string) (*domain.ImportResult, error) {
	bank, err := s.bankRepo.FindBankAccountByID(ctx, tx, bankAccountID)
	if err != nil {
		return nil, err
	}
	if !bank.IsActive {
		return nil, apperrors.NewValidationError("bank account %s is inactive", bank.Name)
	}

	result := &domain.ImportResult{BankAccountID: bankAccountID}
	for _, row := range rows {
		if row.ParseError != "" {
			result.Record(row.RowNumber, domain.RowFailed, row.ParseError)
			continue
		}

		amount := row.Amount.Round(2)
		if amount.IsZero() {
			result.Record(row.RowNumber, domain.RowZeroAmount, "amount is zero")
			continue
		}

		date := domain.DateOnly(row.Date)
		description := strings.TrimSpace(row.Description)
		exists, err := s.bankRepo.StatementTransactionExists(ctx, tx, bankAccountID, date, amount, description)
		if err != nil {
			return nil, fmt.Errorf("checking row %d for duplicates: %w", row.RowNumber, err)
		}
		if exists {
			result.Record(row.RowNumber, domain.RowDuplicate,
				fmt.Sprintf("a statement transaction of %s on %s is already recorded", amount.StringFixed(2), date.Format("2006-01-02")))
			continue
		}

		raw, err := json.Marshal(row.Raw)
		if err != nil {
			result.Record(row.RowNumber, domain.RowFailed, "raw row cannot be stored: "+err.Error())
			continue
		}
		rawText := string(raw)
		now := s.Now()
		txn := domain.BankTransaction{
			TransactionID:   uuid.NewString(),
			BankAccountID:   bankAccountID,
			TransactionDate: date,
			TransactionType: domain.TransactionTypeFor(amount),
			Description:     description,
			Reference:       strings.TrimSpace(row.Reference),
			Amount:          amount,
			IsFromStatement: true,
			StatementRaw:    &rawText,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.bankRepo.InsertTransactions(ctx, tx, []domain.BankTransaction{txn}); err != nil {
			return nil, fmt.Errorf("inserting row %d: %w", row.RowNumber, err)
		}
		result.Record(row.RowNumber, domain.RowImported, "")
	}
	return result, nil
}
