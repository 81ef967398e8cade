package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// PgxSequenceAllocator allocates numbers from the sequences table. The row
// lock taken by the UPDATE serialises concurrent allocators until commit.
type PgxSequenceAllocator struct {
	BaseRepository
}

func newPgxSequenceAllocator(pool PgxPool) *PgxSequenceAllocator {
	return &PgxSequenceAllocator{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceAllocator = (*PgxSequenceAllocator)(nil)

func (r *PgxSequenceAllocator) Next(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	query := `
		UPDATE sequences
		SET next_value = next_value + 1
		WHERE name = $1
		RETURNING prefix, next_value - 1, padding;
	`
	var (
		prefix  string
		value   int64
		padding int
	)
	if err := r.db(tx).QueryRow(ctx, query, name).Scan(&prefix, &value, &padding); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewAppError(500, "unknown sequence "+name, err)
		}
		return "", apperrors.NewAppError(500, "failed to allocate from sequence "+name, err)
	}
	return fmt.Sprintf("%s%0*d", prefix, padding, value), nil
}
