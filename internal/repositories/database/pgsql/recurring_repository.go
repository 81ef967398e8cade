package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxRecurringRepository struct {
	BaseRepository
}

func newPgxRecurringRepository(pool PgxPool) *PgxRecurringRepository {
	return &PgxRecurringRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecurringRepositoryFacade = (*PgxRecurringRepository)(nil)

const patternColumns = `pattern_id, name, template_entry_id, frequency, interval_count, day_of_month, day_of_week,
	start_date, end_date, last_generated_date, next_generation_date, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPattern(row scanner) (domain.RecurringPattern, error) {
	var p domain.RecurringPattern
	err := row.Scan(
		&p.PatternID,
		&p.Name,
		&p.TemplateEntryID,
		&p.Frequency,
		&p.Interval,
		&p.DayOfMonth,
		&p.DayOfWeek,
		&p.StartDate,
		&p.EndDate,
		&p.LastGeneratedDate,
		&p.NextGenerationDate,
		&p.IsActive,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

func (r *PgxRecurringRepository) listPatterns(ctx context.Context, query string, args ...any) ([]domain.RecurringPattern, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query recurring patterns", err)
	}
	defer rows.Close()

	patterns := []domain.RecurringPattern{}
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan recurring pattern row", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating recurring pattern rows", err)
	}
	return patterns, nil
}

func (r *PgxRecurringRepository) SavePattern(ctx context.Context, p domain.RecurringPattern) error {
	query := `
		INSERT INTO recurring_patterns (` + patternColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		p.PatternID,
		p.Name,
		p.TemplateEntryID,
		p.Frequency,
		p.Interval,
		p.DayOfMonth,
		p.DayOfWeek,
		p.StartDate,
		p.EndDate,
		p.LastGeneratedDate,
		p.NextGenerationDate,
		p.IsActive,
		p.CreatedAt,
		p.CreatedBy,
		p.LastUpdatedAt,
		p.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save recurring pattern "+p.PatternID, err)
	}
	return nil
}

func (r *PgxRecurringRepository) FindPatternByID(ctx context.Context, patternID string) (*domain.RecurringPattern, error) {
	return r.findPattern(ctx, r.Pool, `SELECT `+patternColumns+` FROM recurring_patterns WHERE pattern_id = $1;`, patternID)
}

func (r *PgxRecurringRepository) FindPatternForUpdate(ctx context.Context, tx pgx.Tx, patternID string) (*domain.RecurringPattern, error) {
	return r.findPattern(ctx, r.db(tx), `SELECT `+patternColumns+` FROM recurring_patterns WHERE pattern_id = $1 FOR UPDATE;`, patternID)
}

func (r *PgxRecurringRepository) findPattern(ctx context.Context, q portsrepo.Querier, query string, patternID string) (*domain.RecurringPattern, error) {
	p, err := scanPattern(q.QueryRow(ctx, query, patternID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("recurring pattern " + patternID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find recurring pattern "+patternID, err)
	}
	return &p, nil
}

func (r *PgxRecurringRepository) ListPatterns(ctx context.Context, activeOnly bool) ([]domain.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	return r.listPatterns(ctx, query+` ORDER BY next_generation_date, name;`)
}

func (r *PgxRecurringRepository) ListDuePatterns(ctx context.Context, asOf time.Time) ([]domain.RecurringPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM recurring_patterns
		WHERE is_active = TRUE AND next_generation_date <= $1
		ORDER BY next_generation_date, pattern_id;
	`
	return r.listPatterns(ctx, query, domain.DateOnly(asOf))
}

func (r *PgxRecurringRepository) UpdatePatternSchedule(ctx context.Context, tx pgx.Tx, p domain.RecurringPattern) error {
	query := `
		UPDATE recurring_patterns
		SET last_generated_date = $2, next_generation_date = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE pattern_id = $1;
	`
	tag, err := r.db(tx).Exec(ctx, query,
		p.PatternID,
		p.LastGeneratedDate,
		p.NextGenerationDate,
		p.IsActive,
		p.LastUpdatedAt,
		p.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update schedule of recurring pattern "+p.PatternID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("recurring pattern " + p.PatternID + " not found")
	}
	return nil
}
