package pgsql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"account_id", "code", "name", "account_type", "is_bank_linked", "is_active",
	"opening_balance", "opening_balance_date", "created_at", "created_by", "last_updated_at", "last_updated_by"}

func TestAccountRepository_SaveAccount(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	acc := domain.Account{
		AccountID:      "acc-1",
		Code:           "1000",
		Name:           "Operating Bank",
		AccountType:    domain.Asset,
		IsBankLinked:   true,
		IsActive:       true,
		OpeningBalance: decimal.Zero,
		AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: "user-1", LastUpdatedAt: now, LastUpdatedBy: "user-1"},
	}

	t.Run("success", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectExec("INSERT INTO accounts").WithArgs(anyArgs(12)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveAccount(ctx, acc))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate code", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectExec("INSERT INTO accounts").WithArgs(anyArgs(12)...).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.SaveAccount(ctx, acc)
		assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	})
}

func TestAccountRepository_FindAccountByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		rows := pgxmock.NewRows(accountCols).
			AddRow("acc-1", "1000", "Operating Bank", domain.AccountType("ASSET"), true, true,
				decimal.NewFromInt(250), nil, now, "user-1", now, "user-1")
		mock.ExpectQuery("FROM accounts WHERE account_id").WithArgs("acc-1").WillReturnRows(rows)

		acc, err := repo.FindAccountByID(ctx, nil, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, "1000", acc.Code)
		assert.Equal(t, domain.Asset, acc.AccountType)
		assert.True(t, acc.IsBankLinked)
		assert.True(t, decimal.NewFromInt(250).Equal(acc.OpeningBalance))
		assert.Nil(t, acc.OpeningBalanceDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectQuery("FROM accounts WHERE account_id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		acc, err := repo.FindAccountByID(ctx, nil, "missing")
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("query failure", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectQuery("FROM accounts WHERE account_id").WithArgs("acc-1").WillReturnError(errors.New("conn reset"))

		_, err := repo.FindAccountByID(ctx, nil, "acc-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestAccountRepository_FindAccountsByIDs(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mock := newMockPool(t)
	repo := newPgxAccountRepository(mock)

	empty, err := repo.FindAccountsByIDs(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	rows := pgxmock.NewRows(accountCols).
		AddRow("acc-1", "1000", "Bank", domain.AccountType("ASSET"), true, true, decimal.Zero, nil, now, "u", now, "u").
		AddRow("acc-2", "4000", "Sales", domain.AccountType("REVENUE"), false, true, decimal.Zero, nil, now, "u", now, "u")
	mock.ExpectQuery("account_id = ANY").WithArgs([]string{"acc-1", "acc-2", "acc-9"}).WillReturnRows(rows)

	got, err := repo.FindAccountsByIDs(ctx, nil, []string{"acc-1", "acc-2", "acc-9"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, domain.Revenue, got["acc-2"].AccountType)
	_, ok := got["acc-9"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_LockAccountsForShare(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mock := newMockPool(t)
	repo := newPgxAccountRepository(mock)

	mock.ExpectBegin()
	rows := pgxmock.NewRows(accountCols).
		AddRow("acc-1", "1000", "Bank", domain.AccountType("ASSET"), true, false, decimal.Zero, nil, now, "u", now, "u")
	mock.ExpectQuery(`account_id = ANY\(\$1\) ORDER BY account_id FOR SHARE`).WithArgs([]string{"acc-1"}).WillReturnRows(rows)

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	got, err := repo.LockAccountsForShare(ctx, tx, []string{"acc-1"})
	require.NoError(t, err)
	assert.False(t, got["acc-1"].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_LockAccountForUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mock := newMockPool(t)
	repo := newPgxAccountRepository(mock)

	mock.ExpectBegin()
	rows := pgxmock.NewRows(accountCols).
		AddRow("acc-1", "6100", "Rent", domain.AccountType("EXPENSE"), false, true, decimal.Zero, nil, now, "u", now, "u")
	mock.ExpectQuery(`WHERE account_id = \$1 FOR UPDATE`).WithArgs("acc-1").WillReturnRows(rows)

	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	acc, err := repo.LockAccountForUpdate(ctx, tx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "6100", acc.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_DeactivateAccount(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectExec("UPDATE accounts").WithArgs("acc-1", now, "user-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.DeactivateAccount(ctx, nil, "acc-1", "user-1", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already inactive", func(t *testing.T) {
		mock := newMockPool(t)
		repo := newPgxAccountRepository(mock)
		mock.ExpectExec("UPDATE accounts").WithArgs("acc-1", now, "user-1").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.DeactivateAccount(ctx, nil, "acc-1", "user-1", now)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestAccountRepository_SumPostedLines(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := newPgxAccountRepository(mock)
	asOf := date(2024, 6, 30)

	mock.ExpectQuery("FROM journal_entry_lines").WithArgs("acc-1", asOf).
		WillReturnRows(pgxmock.NewRows([]string{"debits", "credits"}).
			AddRow(decimal.RequireFromString("1500.00"), decimal.RequireFromString("550.00")))

	debits, credits, err := repo.SumPostedLines(ctx, nil, "acc-1", asOf)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", debits.StringFixed(2))
	assert.Equal(t, "550.00", credits.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_SumAllPostedLines(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repo := newPgxAccountRepository(mock)

	mock.ExpectQuery(`WHERE l.account_id = \$1 AND e.is_posted = TRUE;`).WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"debits", "credits"}).
			AddRow(decimal.RequireFromString("40.00"), decimal.Zero))

	debits, credits, err := repo.SumAllPostedLines(ctx, nil, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "40.00", debits.StringFixed(2))
	assert.True(t, credits.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
