package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is satisfied by *pgxpool.Pool and by pgxmock pools.
type PgxPool interface {
	portsrepo.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool PgxPool
}

// db returns tx when the caller supplied one and the pool otherwise.
func (r *BaseRepository) db(tx pgx.Tx) portsrepo.Querier {
	if tx != nil {
		return tx
	}
	return r.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// TxManager runs units of work in a single transaction.
type TxManager struct {
	BaseRepository
}

func newTxManager(pool PgxPool) *TxManager {
	return &TxManager{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TxRunner = (*TxManager)(nil)
var _ portsrepo.TransactionManager = (*TxManager)(nil)

// WithTx runs fn in a transaction, rolling back on error or panic.
func (m *TxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = m.Rollback(ctx, tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := m.Rollback(ctx, tx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return m.Commit(ctx, tx)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
