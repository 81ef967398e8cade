package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(pool PgxPool) *PgxReconciliationRepository {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

const reconciliationColumns = `reconciliation_id, bank_account_id, statement_date, statement_balance,
	calculated_book_balance, reconciled_difference, status, reconciled_at, reconciled_by,
	created_at, created_by, last_updated_at, last_updated_by`

func scanReconciliation(row scanner) (domain.BankReconciliation, error) {
	var rec domain.BankReconciliation
	err := row.Scan(
		&rec.ReconciliationID,
		&rec.BankAccountID,
		&rec.StatementDate,
		&rec.StatementBalance,
		&rec.CalculatedBookBalance,
		&rec.ReconciledDifference,
		&rec.Status,
		&rec.ReconciledAt,
		&rec.ReconciledBy,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.LastUpdatedAt,
		&rec.LastUpdatedBy,
	)
	return rec, err
}

func (r *PgxReconciliationRepository) findOne(ctx context.Context, tx pgx.Tx, query string, notFound string, args ...any) (*domain.BankReconciliation, error) {
	rec, err := scanReconciliation(r.db(tx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(notFound)
		}
		return nil, apperrors.NewAppError(500, "failed to load reconciliation", err)
	}
	return &rec, nil
}

func (r *PgxReconciliationRepository) FindReconciliationByID(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM bank_reconciliations WHERE reconciliation_id = $1;`
	return r.findOne(ctx, tx, query, "reconciliation "+reconciliationID+" not found", reconciliationID)
}

func (r *PgxReconciliationRepository) FindReconciliationForUpdate(ctx context.Context, tx pgx.Tx, reconciliationID string) (*domain.BankReconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM bank_reconciliations WHERE reconciliation_id = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, query, "reconciliation "+reconciliationID+" not found", reconciliationID)
}

func (r *PgxReconciliationRepository) FindReconciliationByKey(ctx context.Context, tx pgx.Tx, bankAccountID string, statementDate time.Time, status domain.ReconciliationStatus) (*domain.BankReconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM bank_reconciliations
		WHERE bank_account_id = $1 AND statement_date = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1;
	`
	date := domain.DateOnly(statementDate)
	return r.findOne(ctx, tx, query,
		"no "+string(status)+" reconciliation for bank account "+bankAccountID+" on "+date.Format("2006-01-02"),
		bankAccountID, date, status)
}

// FindLatestFinalized returns nil, nil when the bank account has no finalized reconciliation.
func (r *PgxReconciliationRepository) FindLatestFinalized(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankReconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM bank_reconciliations
		WHERE bank_account_id = $1 AND status = 'FINALIZED'
		ORDER BY statement_date DESC, reconciled_at DESC
		LIMIT 1;
	`
	rec, err := scanReconciliation(r.db(tx).QueryRow(ctx, query, bankAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewAppError(500, "failed to load latest finalized reconciliation for "+bankAccountID, err)
	}
	return &rec, nil
}

func (r *PgxReconciliationRepository) ListReconciliations(ctx context.Context, bankAccountID string) ([]domain.BankReconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM bank_reconciliations WHERE bank_account_id = $1 ORDER BY statement_date DESC, created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, bankAccountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list reconciliations for "+bankAccountID, err)
	}
	defer rows.Close()

	recs := []domain.BankReconciliation{}
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reconciliation row", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating reconciliation rows", err)
	}
	return recs, nil
}

func (r *PgxReconciliationRepository) InsertReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) error {
	query := `
		INSERT INTO bank_reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db(tx).Exec(ctx, query,
		rec.ReconciliationID,
		rec.BankAccountID,
		rec.StatementDate,
		rec.StatementBalance,
		rec.CalculatedBookBalance,
		rec.ReconciledDifference,
		rec.Status,
		rec.ReconciledAt,
		rec.ReconciledBy,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "a draft reconciliation already exists for bank account "+rec.BankAccountID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert reconciliation "+rec.ReconciliationID, err)
	}
	return nil
}

func (r *PgxReconciliationRepository) UpdateDraftStatementBalance(ctx context.Context, tx pgx.Tx, reconciliationID string, statementBalance decimal.Decimal, userID string, at time.Time) error {
	query := `
		UPDATE bank_reconciliations
		SET statement_balance = $2,
		    reconciled_difference = $2 - calculated_book_balance,
		    last_updated_at = $3, last_updated_by = $4
		WHERE reconciliation_id = $1 AND status = 'DRAFT';
	`
	tag, err := r.db(tx).Exec(ctx, query, reconciliationID, statementBalance, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update reconciliation "+reconciliationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("reconciliation " + reconciliationID + " is not a draft")
	}
	return nil
}

func (r *PgxReconciliationRepository) FinalizeReconciliation(ctx context.Context, tx pgx.Tx, rec domain.BankReconciliation) (int64, error) {
	query := `
		UPDATE bank_reconciliations
		SET status = 'FINALIZED', statement_balance = $2, calculated_book_balance = $3, reconciled_difference = $4,
		    reconciled_at = $5, reconciled_by = $6, last_updated_at = $5, last_updated_by = $6
		WHERE reconciliation_id = $1 AND status = 'DRAFT';
	`
	tag, err := r.db(tx).Exec(ctx, query,
		rec.ReconciliationID,
		rec.StatementBalance,
		rec.CalculatedBookBalance,
		rec.ReconciledDifference,
		rec.ReconciledAt,
		rec.ReconciledBy,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to finalize reconciliation "+rec.ReconciliationID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxReconciliationRepository) DeleteReconciliation(ctx context.Context, tx pgx.Tx, reconciliationID string) error {
	tag, err := r.db(tx).Exec(ctx, `DELETE FROM bank_reconciliations WHERE reconciliation_id = $1;`, reconciliationID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete reconciliation "+reconciliationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("reconciliation " + reconciliationID + " not found")
	}
	return nil
}
