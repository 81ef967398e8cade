package pgsql

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		mock := newMockPool(t)
		m := newTxManager(mock)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE accounts").WithArgs("acc-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := m.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "UPDATE accounts SET is_active = FALSE WHERE account_id = $1", "acc-1")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock := newMockPool(t)
		m := newTxManager(mock)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := m.WithTx(ctx, func(tx pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and repanics", func(t *testing.T) {
		mock := newMockPool(t)
		m := newTxManager(mock)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = m.WithTx(ctx, func(tx pgx.Tx) error { panic("bad state") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock := newMockPool(t)
		m := newTxManager(mock)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := m.WithTx(ctx, func(tx pgx.Tx) error { called = true; return nil })
		assert.Error(t, err)
		assert.False(t, called)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
}
