package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxBankRepository struct {
	BaseRepository
}

func newPgxBankRepository(pool PgxPool) *PgxBankRepository {
	return &PgxBankRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BankRepositoryFacade = (*PgxBankRepository)(nil)

const bankAccountColumns = `bank_account_id, account_id, name, account_number, currency_code, current_balance,
	last_reconciled_date, last_reconciled_balance, is_active, created_at, created_by, last_updated_at, last_updated_by`

const bankTxnColumns = `transaction_id, bank_account_id, transaction_date, transaction_type, description, reference,
	amount, is_from_statement, statement_raw, journal_entry_id, journal_line_id, is_reconciled, reconciled_date,
	reconciliation_id, created_at, created_by, last_updated_at, last_updated_by`

func scanBankAccount(row scanner) (domain.BankAccount, error) {
	var b domain.BankAccount
	err := row.Scan(
		&b.BankAccountID,
		&b.AccountID,
		&b.Name,
		&b.AccountNumber,
		&b.CurrencyCode,
		&b.CurrentBalance,
		&b.LastReconciledDate,
		&b.LastReconciledBalance,
		&b.IsActive,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	return b, err
}

func scanBankTransaction(row scanner) (domain.BankTransaction, error) {
	var t domain.BankTransaction
	err := row.Scan(
		&t.TransactionID,
		&t.BankAccountID,
		&t.TransactionDate,
		&t.TransactionType,
		&t.Description,
		&t.Reference,
		&t.Amount,
		&t.IsFromStatement,
		&t.StatementRaw,
		&t.JournalEntryID,
		&t.JournalLineID,
		&t.IsReconciled,
		&t.ReconciledDate,
		&t.ReconciliationID,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	return t, err
}

func collectBankTransactions(rows pgx.Rows, what string) ([]domain.BankTransaction, error) {
	defer rows.Close()
	txns := []domain.BankTransaction{}
	for rows.Next() {
		t, err := scanBankTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank transaction row ("+what+")", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank transaction rows ("+what+")", err)
	}
	return txns, nil
}

// SaveBankAccount inserts a new bank account.
func (r *PgxBankRepository) SaveBankAccount(ctx context.Context, tx pgx.Tx, b domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (` + bankAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db(tx).Exec(ctx, query,
		b.BankAccountID,
		b.AccountID,
		b.Name,
		b.AccountNumber,
		b.CurrencyCode,
		b.CurrentBalance,
		b.LastReconciledDate,
		b.LastReconciledBalance,
		b.IsActive,
		b.CreatedAt,
		b.CreatedBy,
		b.LastUpdatedAt,
		b.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "account "+b.AccountID+" already has a bank account", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to save bank account "+b.BankAccountID, err)
	}
	return nil
}

func (r *PgxBankRepository) FindBankAccountByID(ctx context.Context, tx pgx.Tx, bankAccountID string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE bank_account_id = $1;`
	b, err := scanBankAccount(r.db(tx).QueryRow(ctx, query, bankAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("bank account " + bankAccountID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find bank account "+bankAccountID, err)
	}
	return &b, nil
}

func (r *PgxBankRepository) FindBankAccountsByLedgerAccounts(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.BankAccount, error) {
	result := make(map[string]domain.BankAccount, len(accountIDs))
	if len(accountIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE account_id = ANY($1);`
	rows, err := r.db(tx).Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bank accounts by ledger account", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank account row", err)
		}
		result[b.AccountID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank account rows", err)
	}
	return result, nil
}

func (r *PgxBankRepository) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts ORDER BY name;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list bank accounts", err)
	}
	defer rows.Close()

	accounts := []domain.BankAccount{}
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank account row", err)
		}
		accounts = append(accounts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank account rows", err)
	}
	return accounts, nil
}

func (r *PgxBankRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, bankAccountID string, delta decimal.Decimal, userID string, at time.Time) error {
	query := `
		UPDATE bank_accounts
		SET current_balance = current_balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE bank_account_id = $1;
	`
	tag, err := r.db(tx).Exec(ctx, query, bankAccountID, delta, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to adjust balance of bank account "+bankAccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("bank account " + bankAccountID + " not found")
	}
	return nil
}

func (r *PgxBankRepository) SetLastReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, date *time.Time, balance *decimal.Decimal, userID string, at time.Time) error {
	query := `
		UPDATE bank_accounts
		SET last_reconciled_date = $2, last_reconciled_balance = $3, last_updated_at = $4, last_updated_by = $5
		WHERE bank_account_id = $1;
	`
	tag, err := r.db(tx).Exec(ctx, query, bankAccountID, date, balance, at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set last reconciled on bank account "+bankAccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("bank account " + bankAccountID + " not found")
	}
	return nil
}

// ListTransactions pages through a bank account's transactions, oldest first.
func (r *PgxBankRepository) ListTransactions(ctx context.Context, bankAccountID string, filter portsrepo.BankTransactionFilter, limit int, offset int) ([]domain.BankTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE bank_account_id = $1`
	args := []any{bankAccountID}
	if filter.Reconciled != nil {
		args = append(args, *filter.Reconciled)
		query += ` AND is_reconciled = $` + strconv.Itoa(len(args))
	}
	if filter.FromStatement != nil {
		args = append(args, *filter.FromStatement)
		query += ` AND is_from_statement = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY transaction_date, created_at LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions for bank account "+bankAccountID, err)
	}
	return collectBankTransactions(rows, "list")
}

func (r *PgxBankRepository) ListTransactionsByEntry(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.BankTransaction, error) {
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE journal_entry_id = $1 ORDER BY transaction_date;`
	rows, err := r.db(tx).Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions for entry "+entryID, err)
	}
	return collectBankTransactions(rows, "by entry")
}

// ListCandidates returns unreconciled transactions dated up to upTo plus those already owned by reconciliationID.
func (r *PgxBankRepository) ListCandidates(ctx context.Context, tx pgx.Tx, bankAccountID string, upTo time.Time, reconciliationID string) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTxnColumns + `
		FROM bank_transactions
		WHERE bank_account_id = $1
		  AND ((is_reconciled = FALSE AND transaction_date <= $2) OR reconciliation_id = $3)
		ORDER BY transaction_date, created_at;
	`
	rows, err := r.db(tx).Query(ctx, query, bankAccountID, domain.DateOnly(upTo), reconciliationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list reconciliation candidates for bank account "+bankAccountID, err)
	}
	return collectBankTransactions(rows, "candidates")
}

func (r *PgxBankRepository) FindTransactionsForUpdate(ctx context.Context, tx pgx.Tx, transactionIDs []string) ([]domain.BankTransaction, error) {
	if len(transactionIDs) == 0 {
		return []domain.BankTransaction{}, nil
	}
	query := `SELECT ` + bankTxnColumns + ` FROM bank_transactions WHERE transaction_id = ANY($1) ORDER BY transaction_id FOR UPDATE;`
	rows, err := r.db(tx).Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock bank transactions", err)
	}
	return collectBankTransactions(rows, "for update")
}

func (r *PgxBankRepository) StatementTransactionExists(ctx context.Context, tx pgx.Tx, bankAccountID string, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bank_transactions
			WHERE bank_account_id = $1 AND is_from_statement = TRUE
			  AND transaction_date = $2 AND amount = $3 AND description = $4
		);
	`
	var exists bool
	if err := r.db(tx).QueryRow(ctx, query, bankAccountID, domain.DateOnly(date), amount, description).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check for duplicate statement transaction", err)
	}
	return exists, nil
}

// InsertTransactions writes each transaction in turn.
func (r *PgxBankRepository) InsertTransactions(ctx context.Context, tx pgx.Tx, txns []domain.BankTransaction) error {
	q := r.db(tx)
	query := `
		INSERT INTO bank_transactions (` + bankTxnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	for _, t := range txns {
		_, err := q.Exec(ctx, query,
			t.TransactionID,
			t.BankAccountID,
			t.TransactionDate,
			t.TransactionType,
			t.Description,
			t.Reference,
			t.Amount,
			t.IsFromStatement,
			t.StatementRaw,
			t.JournalEntryID,
			t.JournalLineID,
			t.IsReconciled,
			t.ReconciledDate,
			t.ReconciliationID,
			t.CreatedAt,
			t.CreatedBy,
			t.LastUpdatedAt,
			t.LastUpdatedBy,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to insert bank transaction "+t.TransactionID, err)
		}
	}
	return nil
}

func (r *PgxBankRepository) MarkReconciled(ctx context.Context, tx pgx.Tx, bankAccountID string, transactionIDs []string, reconciliationID string, reconciledDate time.Time, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE bank_transactions
		SET is_reconciled = TRUE, reconciled_date = $3, reconciliation_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE bank_account_id = $1 AND transaction_id = ANY($2) AND is_reconciled = FALSE;
	`
	tag, err := r.db(tx).Exec(ctx, query, bankAccountID, transactionIDs, domain.DateOnly(reconciledDate), reconciliationID, at, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to mark transactions reconciled", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxBankRepository) ClearReconciled(ctx context.Context, tx pgx.Tx, transactionIDs []string, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE bank_transactions
		SET is_reconciled = FALSE, reconciled_date = NULL, reconciliation_id = NULL, last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = ANY($1) AND is_reconciled = TRUE;
	`
	tag, err := r.db(tx).Exec(ctx, query, transactionIDs, at, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to clear reconciled transactions", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxBankRepository) ClearReconciledByOwner(ctx context.Context, tx pgx.Tx, reconciliationID string, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE bank_transactions
		SET is_reconciled = FALSE, reconciled_date = NULL, reconciliation_id = NULL, last_updated_at = $2, last_updated_by = $3
		WHERE reconciliation_id = $1;
	`
	tag, err := r.db(tx).Exec(ctx, query, reconciliationID, at, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to release transactions of reconciliation "+reconciliationID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxBankRepository) DeleteUnreconciledTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (int64, error) {
	tag, err := r.db(tx).Exec(ctx, `DELETE FROM bank_transactions WHERE transaction_id = $1 AND is_reconciled = FALSE;`, transactionID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete bank transaction "+transactionID, err)
	}
	return tag.RowsAffected(), nil
}
