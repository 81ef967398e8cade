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

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool PgxPool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, code, name, account_type, is_bank_linked, is_active,
	opening_balance, opening_balance_date, created_at, created_by, last_updated_at, last_updated_by`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountID,
		&a.Code,
		&a.Name,
		&a.AccountType,
		&a.IsBankLinked,
		&a.IsActive,
		&a.OpeningBalance,
		&a.OpeningBalanceDate,
		&a.CreatedAt,
		&a.CreatedBy,
		&a.LastUpdatedAt,
		&a.LastUpdatedBy,
	)
	return a, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.Code,
		account.Name,
		account.AccountType,
		account.IsBankLinked,
		account.IsActive,
		account.OpeningBalance,
		account.OpeningBalanceDate,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "account code "+account.Code+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save account "+account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, tx, accountID, "")
}

// LockAccountForUpdate retrieves an account and holds a row lock until tx ends.
func (r *PgxAccountRepository) LockAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, tx, accountID, " FOR UPDATE")
}

func (r *PgxAccountRepository) findOne(ctx context.Context, tx pgx.Tx, accountID string, lock string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1` + lock + `;`
	acc, err := scanAccount(r.db(tx).QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts keyed by ID.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	return r.findMany(ctx, tx, accountIDs, "")
}

// LockAccountsForShare retrieves accounts keyed by ID under a shared row lock.
// Rows are locked in account_id order.
func (r *PgxAccountRepository) LockAccountsForShare(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	return r.findMany(ctx, tx, accountIDs, " ORDER BY account_id FOR SHARE")
}

func (r *PgxAccountRepository) findMany(ctx context.Context, tx pgx.Tx, accountIDs []string, suffix string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return accounts, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1)` + suffix + `;`
	rows, err := r.db(tx).Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListAccounts retrieves a page of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY code LIMIT $1 OFFSET $2;`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, tx pgx.Tx, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	`
	tag, err := r.db(tx).Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to deactivate account "+accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("account " + accountID + " is already inactive")
	}
	return nil
}

// SumPostedLines totals posted debits and credits on an account up to asOf.
func (r *PgxAccountRepository) SumPostedLines(ctx context.Context, tx pgx.Tx, accountID string, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.is_posted = TRUE AND e.entry_date <= $2;
	`
	return r.sumLines(ctx, tx, query, accountID, asOf)
}

// SumAllPostedLines totals every posted debit and credit on an account.
func (r *PgxAccountRepository) SumAllPostedLines(ctx context.Context, tx pgx.Tx, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1 AND e.is_posted = TRUE;
	`
	return r.sumLines(ctx, tx, query, accountID)
}

func (r *PgxAccountRepository) sumLines(ctx context.Context, tx pgx.Tx, query string, accountID string, args ...any) (decimal.Decimal, decimal.Decimal, error) {
	var debits, credits decimal.Decimal
	params := append([]any{accountID}, args...)
	if err := r.db(tx).QueryRow(ctx, query, params...).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewAppError(500, "failed to sum posted lines for account "+accountID, err)
	}
	return debits, credits, nil
}
