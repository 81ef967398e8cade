package services

import (
	"context"
	"errors"
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

const reconciliationEntity = "reconciliation"

type reconciliationService struct {
	BaseService
	tx          portsrepo.TxRunner
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	bankRepo    portsrepo.BankRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewReconciliationService creates the reconciliation engine.
func NewReconciliationService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		BaseService: newBaseService(options...),
		tx:          repos.Tx,
		reconRepo:   repos.ReconciliationRepo,
		bankRepo:    repos.BankRepo,
		accountRepo: repos.AccountRepo,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) GetReconciliation(ctx context.Context, reconciliationID string) (*domain.BankReconciliation, error) {
	return s.reconRepo.FindReconciliationByID(ctx, nil, reconciliationID)
}

func (s *reconciliationService) ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error) {
	if _, err := s.bankRepo.FindBankAccountByID(ctx, nil, bankAccountID); err != nil {
		return nil, err
	}
	return s.reconRepo.ListReconciliations(ctx, bankAccountID)
}

// GetOrCreateDraft returns the draft for (bank account, statement date),
// creating it when absent. A concurrent creator that wins the unique index is
// picked up by a second attempt.
func (s *reconciliationService) GetOrCreateDraft(ctx context.Context, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error) {
	var draft *domain.BankReconciliation
	var created bool
	attempt := func() error {
		return s.tx.WithTx(ctx, func(tx pgx.Tx) error {
			var err error
			draft, created, err = s.getOrCreateDraft(ctx, tx, bankAccountID, statementDate, statementBalance, userID)
			return err
		})
	}

	err := attempt()
	if errors.Is(err, apperrors.ErrDuplicate) {
		s.LogDebug(ctx, "Draft created concurrently, retrying", slog.String("bank_account_id", bankAccountID))
		err = attempt()
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to open reconciliation draft", slog.String("bank_account_id", bankAccountID))
		return nil, err
	}

	if created {
		s.LogInfo(ctx, "Reconciliation draft opened", slog.String("reconciliation_id", draft.ReconciliationID))
		s.record(ctx, domain.AuditDraftOpened, reconciliationEntity, draft.ReconciliationID, userID, map[string]any{
			"bankAccountID":    bankAccountID,
			"statementDate":    draft.StatementDate.Format("2006-01-02"),
			"statementBalance": statementBalance.StringFixed(2),
		})
	}
	return draft, nil
}

func (s *reconciliationService) GetOrCreateDraftInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, error) {
	draft, _, err := s.getOrCreateDraft(ctx, tx, bankAccountID, statementDate, statementBalance, userID)
	return draft, err
}

func (s *reconciliationService) getOrCreateDraft(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, statementBalance decimal.Decimal, userID string) (*domain.BankReconciliation, bool, error) {
	if _, err := s.bankRepo.FindBankAccountByID(ctx, tx, bankAccountID); err != nil {
		return nil, false, err
	}
	statementDate = domain.DateOnly(statementDate)

	finalized, err := s.reconRepo.FindReconciliationByKey(ctx, tx, bankAccountID, statementDate, domain.ReconciliationFinalized)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}
	if finalized != nil {
		return nil, false, apperrors.NewConflictError("the statement of " + statementDate.Format("2006-01-02") + " is already reconciled")
	}

	now := s.Now()
	draft, err := s.reconRepo.FindReconciliationByKey(ctx, tx, bankAccountID, statementDate, domain.ReconciliationDraft)
	switch {
	case err == nil:
		if err := s.reconRepo.UpdateDraftStatementBalance(ctx, tx, draft.ReconciliationID, statementBalance, userID, now); err != nil {
			return nil, false, err
		}
		draft.StatementBalance = statementBalance
		draft.ReconciledDifference = statementBalance.Sub(draft.CalculatedBookBalance)
		draft.LastUpdatedAt = now
		draft.LastUpdatedBy = userID
		return draft, false, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, err
	}

	rec := domain.NewDraftReconciliation(bankAccountID, statementDate, statementBalance)
	rec.ReconciliationID = uuid.NewString()
	rec.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	if err := s.reconRepo.InsertReconciliation(ctx, tx, rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *reconciliationService) MarkProvisionallyReconciled(ctx context.Context, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error) {
	var result *dto.MatchResult
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.MarkProvisionallyReconciledInTx(ctx, tx, draftID, transactionIDs, statementDate, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to match transactions", slog.String("reconciliation_id", draftID))
		return nil, err
	}

	s.LogInfo(ctx, "Transactions provisionally reconciled",
		slog.String("reconciliation_id", draftID),
		slog.Int("matched", result.Matched))
	s.record(ctx, domain.AuditMatched, reconciliationEntity, draftID, userID, map[string]any{
		"transactionIDs": dedupe(transactionIDs),
		"statementTotal": result.StatementTotal.StringFixed(2),
		"systemTotal":    result.SystemTotal.StringFixed(2),
	})
	return result, nil
}

// MarkProvisionallyReconciledInTx attaches transactions to a draft. The
// selected statement-side and system-side totals must agree.
func (s *reconciliationService) MarkProvisionallyReconciledInTx(ctx context.Context, tx pgx.Tx, draftID string, transactionIDs []string, statementDate time.Time, userID string) (*dto.MatchResult, error) {
	ids := dedupe(transactionIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("at least one transaction is required")
	}

	draft, err := s.reconRepo.FindReconciliationForUpdate(ctx, tx, draftID)
	if err != nil {
		return nil, err
	}
	if !draft.IsDraft() {
		return nil, apperrors.NewConflictError("reconciliation " + draftID + " is finalized")
	}

	txns, err := s.bankRepo.FindTransactionsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(txns))
	var msgs []string
	var statementSide, systemSide []domain.BankTransaction
	for _, t := range txns {
		found[t.TransactionID] = true
		switch {
		case t.BankAccountID != draft.BankAccountID:
			msgs = append(msgs, fmt.Sprintf("transaction %s belongs to another bank account", t.TransactionID))
		case t.IsReconciled:
			msgs = append(msgs, fmt.Sprintf("transaction %s is already reconciled", t.TransactionID))
		case t.IsFromStatement:
			statementSide = append(statementSide, t)
		default:
			systemSide = append(systemSide, t)
		}
	}
	for _, id := range ids {
		if !found[id] {
			msgs = append(msgs, fmt.Sprintf("transaction %s does not exist", id))
		}
	}
	if err := apperrors.NewValidationErrors(msgs); err != nil {
		return nil, err
	}

	statementTotal := domain.SumAmounts(statementSide)
	systemTotal := domain.SumAmounts(systemSide)
	if !domain.WithinTolerance(statementTotal.Sub(systemTotal)) {
		return nil, apperrors.NewValidationError("selected statement total %s does not match selected system total %s",
			statementTotal.StringFixed(2), systemTotal.StringFixed(2))
	}

	reconciledDate := draft.StatementDate
	if !statementDate.IsZero() {
		reconciledDate = domain.DateOnly(statementDate)
	}

	n, err := s.bankRepo.MarkReconciled(ctx, tx, draft.BankAccountID, ids, draft.ReconciliationID, reconciledDate, userID, s.Now())
	if err != nil {
		return nil, err
	}
	if n != int64(len(ids)) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("partial match: %d of %d transactions could be reconciled", n, len(ids)))
	}

	return &dto.MatchResult{
		ReconciliationID: draft.ReconciliationID,
		Matched:          len(ids),
		StatementTotal:   statementTotal,
		SystemTotal:      systemTotal,
	}, nil
}

func (s *reconciliationService) Unreconcile(ctx context.Context, transactionIDs []string, userID string) (*dto.UnreconcileResult, error) {
	var result *dto.UnreconcileResult
	var owners map[string][]string
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, owners, err = s.unreconcile(ctx, tx, transactionIDs, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to unreconcile transactions")
		return nil, err
	}

	for _, recID := range sortedKeys(owners) {
		s.record(ctx, domain.AuditUnreconciled, reconciliationEntity, recID, userID, map[string]any{
			"transactionIDs": owners[recID],
		})
	}
	s.LogInfo(ctx, "Transactions unreconciled", slog.Int("released", result.Released))
	return result, nil
}

func (s *reconciliationService) UnreconcileInTx(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string) (*dto.UnreconcileResult, error) {
	result, _, err := s.unreconcile(ctx, tx, transactionIDs, userID)
	return result, err
}

// unreconcile releases transactions held by drafts and reports them grouped by owner.
func (s *reconciliationService) unreconcile(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string) (*dto.UnreconcileResult, map[string][]string, error) {
	ids := dedupe(transactionIDs)
	if len(ids) == 0 {
		return nil, nil, apperrors.NewValidationError("at least one transaction is required")
	}

	txns, err := s.bankRepo.FindTransactionsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, nil, err
	}
	found := make(map[string]bool, len(txns))
	for _, t := range txns {
		found[t.TransactionID] = true
	}
	var msgs []string
	for _, id := range ids {
		if !found[id] {
			msgs = append(msgs, fmt.Sprintf("transaction %s does not exist", id))
		}
	}
	if err := apperrors.NewValidationErrors(msgs); err != nil {
		return nil, nil, err
	}

	owners := make(map[string][]string)
	statuses := make(map[string]domain.ReconciliationStatus)
	var release []string
	for _, t := range txns {
		if !t.IsReconciled || t.ReconciliationID == nil {
			continue
		}
		recID := *t.ReconciliationID
		status, ok := statuses[recID]
		if !ok {
			rec, err := s.reconRepo.FindReconciliationByID(ctx, tx, recID)
			if err != nil {
				return nil, nil, err
			}
			status = rec.Status
			statuses[recID] = status
		}
		if status == domain.ReconciliationFinalized {
			return nil, nil, apperrors.NewConflictError("transaction " + t.TransactionID + " belongs to finalized reconciliation " + recID + "; delete the reconciliation to release it")
		}
		owners[recID] = append(owners[recID], t.TransactionID)
		release = append(release, t.TransactionID)
	}

	if len(release) == 0 {
		return &dto.UnreconcileResult{}, owners, nil
	}
	n, err := s.bankRepo.ClearReconciled(ctx, tx, release, userID, s.Now())
	if err != nil {
		return nil, nil, err
	}
	return &dto.UnreconcileResult{Released: int(n)}, owners, nil
}

func (s *reconciliationService) Finalize(ctx context.Context, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error) {
	var rec *domain.BankReconciliation
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = s.FinalizeInTx(ctx, tx, draftID, req, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to finalize reconciliation", slog.String("reconciliation_id", draftID))
		return nil, err
	}

	s.LogInfo(ctx, "Reconciliation finalized", slog.String("reconciliation_id", draftID))
	details := map[string]any{
		"bankAccountID":         rec.BankAccountID,
		"statementDate":         rec.StatementDate.Format("2006-01-02"),
		"statementBalance":      rec.StatementBalance.StringFixed(2),
		"calculatedBookBalance": rec.CalculatedBookBalance.StringFixed(2),
		"difference":            rec.ReconciledDifference.StringFixed(2),
	}
	s.record(ctx, domain.AuditFinalized, reconciliationEntity, rec.ReconciliationID, userID, details)
	s.publish(ctx, domain.EventReconciliationFinalized, rec.ReconciliationID, userID, details)
	return rec, nil
}

// FinalizeInTx freezes the supplied figures on a draft. The difference is
// stored as given and is not re-validated.
func (s *reconciliationService) FinalizeInTx(ctx context.Context, tx pgx.Tx, draftID string, req dto.FinalizeReconciliationRequest, userID string) (*domain.BankReconciliation, error) {
	rec, err := s.reconRepo.FindReconciliationForUpdate(ctx, tx, draftID)
	if err != nil {
		return nil, err
	}
	if !rec.IsDraft() {
		return nil, apperrors.NewConflictError("reconciliation " + draftID + " is already finalized")
	}

	now := s.Now()
	rec.StatementBalance = req.StatementBalance
	rec.CalculatedBookBalance = req.CalculatedBookBalance
	rec.ReconciledDifference = req.Difference
	rec.Status = domain.ReconciliationFinalized
	rec.ReconciledAt = &now
	rec.ReconciledBy = &userID
	rec.LastUpdatedAt = now
	rec.LastUpdatedBy = userID

	n, err := s.reconRepo.FinalizeReconciliation(ctx, tx, *rec)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.NewConflictError("reconciliation " + draftID + " was finalized concurrently")
	}

	if err := s.refreshLastReconciled(ctx, tx, rec.BankAccountID, userID, now); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *reconciliationService) DeleteReconciliation(ctx context.Context, reconciliationID string, userID string) error {
	var deleted *domain.BankReconciliation
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = s.deleteReconciliation(ctx, tx, reconciliationID, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete reconciliation", slog.String("reconciliation_id", reconciliationID))
		return err
	}

	s.LogInfo(ctx, "Reconciliation deleted", slog.String("reconciliation_id", reconciliationID))
	details := map[string]any{
		"bankAccountID": deleted.BankAccountID,
		"statementDate": deleted.StatementDate.Format("2006-01-02"),
		"status":        string(deleted.Status),
	}
	s.record(ctx, domain.AuditDeleted, reconciliationEntity, reconciliationID, userID, details)
	s.publish(ctx, domain.EventReconciliationDeleted, reconciliationID, userID, details)
	return nil
}

func (s *reconciliationService) DeleteReconciliationInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string) error {
	_, err := s.deleteReconciliation(ctx, tx, reconciliationID, userID)
	return err
}

func (s *reconciliationService) deleteReconciliation(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string) (*domain.BankReconciliation, error) {
	rec, err := s.reconRepo.FindReconciliationForUpdate(ctx, tx, reconciliationID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	released, err := s.bankRepo.ClearReconciledByOwner(ctx, tx, rec.ReconciliationID, userID, now)
	if err != nil {
		return nil, err
	}
	if err := s.reconRepo.DeleteReconciliation(ctx, tx, rec.ReconciliationID); err != nil {
		return nil, err
	}
	s.LogDebug(ctx, "Released reconciled transactions",
		slog.String("reconciliation_id", reconciliationID),
		slog.Int64("released", released))

	if rec.Status == domain.ReconciliationFinalized {
		if err := s.refreshLastReconciled(ctx, tx, rec.BankAccountID, userID, now); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// refreshLastReconciled points the bank account markers at its latest finalized
// reconciliation, clearing them when none is left.
func (s *reconciliationService) refreshLastReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, userID string, at time.Time) error {
	latest, err := s.reconRepo.FindLatestFinalized(ctx, tx, bankAccountID)
	if err != nil {
		return err
	}
	if latest == nil {
		return s.bankRepo.SetLastReconciled(ctx, tx, bankAccountID, nil, nil, userID, at)
	}
	date, balance := latest.StatementDate, latest.StatementBalance
	return s.bankRepo.SetLastReconciled(ctx, tx, bankAccountID, &date, &balance, userID, at)
}

func (s *reconciliationService) GetCandidates(ctx context.Context, reconciliationID string) (*dto.CandidatesResponse, error) {
	rec, statementSide, systemSide, err := s.candidates(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	return &dto.CandidatesResponse{
		ReconciliationID: rec.ReconciliationID,
		StatementSide:    statementSide,
		SystemSide:       systemSide,
	}, nil
}

func (s *reconciliationService) ComputeBalancing(ctx context.Context, reconciliationID string) (*domain.BalancingSummary, error) {
	rec, statementSide, systemSide, err := s.candidates(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	bank, err := s.bankRepo.FindBankAccountByID(ctx, nil, rec.BankAccountID)
	if err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByID(ctx, nil, bank.AccountID)
	if err != nil {
		return nil, err
	}
	balance, _, _, err := ledgerBalance(ctx, s.accountRepo, nil, *account, rec.StatementDate)
	if err != nil {
		s.LogError(ctx, err, "Failed to derive ledger balance", slog.String("reconciliation_id", reconciliationID))
		return nil, err
	}

	summary := domain.ComputeBalancing(domain.BalancingInput{
		LedgerBalance:    balance,
		StatementBalance: rec.StatementBalance,
		StatementSide:    statementSide,
		SystemSide:       systemSide,
	})
	return &summary, nil
}

func (s *reconciliationService) GetAuditTrail(ctx context.Context, reconciliationID string) ([]domain.AuditRecord, error) {
	return s.Audit.ListByEntity(ctx, reconciliationEntity, reconciliationID)
}

func (s *reconciliationService) candidates(ctx context.Context, reconciliationID string) (*domain.BankReconciliation, []domain.BankTransaction, []domain.BankTransaction, error) {
	rec, err := s.reconRepo.FindReconciliationByID(ctx, nil, reconciliationID)
	if err != nil {
		return nil, nil, nil, err
	}
	txns, err := s.bankRepo.ListCandidates(ctx, nil, rec.BankAccountID, rec.StatementDate, rec.ReconciliationID)
	if err != nil {
		return nil, nil, nil, err
	}
	statementSide := []domain.BankTransaction{}
	systemSide := []domain.BankTransaction{}
	for _, t := range txns {
		if t.IsFromStatement {
			statementSide = append(statementSide, t)
		} else {
			systemSide = append(systemSide, t)
		}
	}
	return rec, statementSide, systemSide, nil
}

// dedupe drops blanks and repeated IDs, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
