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

type PgxFiscalCalendar struct {
	BaseRepository
}

func newPgxFiscalCalendar(pool PgxPool) *PgxFiscalCalendar {
	return &PgxFiscalCalendar{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FiscalCalendar = (*PgxFiscalCalendar)(nil)

const periodColumns = `period_id, name, start_date, end_date, status`

func scanPeriod(row scanner) (domain.FiscalPeriod, error) {
	var p domain.FiscalPeriod
	err := row.Scan(&p.PeriodID, &p.Name, &p.StartDate, &p.EndDate, &p.Status)
	return p, err
}

// PeriodFor returns the period whose range covers date. Overlapping periods
// resolve to the one that started last.
func (r *PgxFiscalCalendar) PeriodFor(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM fiscal_periods
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY start_date DESC
		LIMIT 1;
	`
	p, err := scanPeriod(r.db(tx).QueryRow(ctx, query, domain.DateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no fiscal period covers " + date.Format("2006-01-02"))
		}
		return nil, apperrors.NewAppError(500, "failed to look up fiscal period", err)
	}
	return &p, nil
}

func (r *PgxFiscalCalendar) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY start_date;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list fiscal periods", err)
	}
	defer rows.Close()

	periods := []domain.FiscalPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan fiscal period row", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating fiscal period rows", err)
	}
	return periods, nil
}

func (r *PgxFiscalCalendar) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `INSERT INTO fiscal_periods (` + periodColumns + `) VALUES ($1, $2, $3, $4, $5);`
	_, err := r.Pool.Exec(ctx, query, period.PeriodID, period.Name, period.StartDate, period.EndDate, period.Status)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save fiscal period "+period.Name, err)
	}
	return nil
}

func (r *PgxFiscalCalendar) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE fiscal_periods SET status = $2 WHERE period_id = $1;`, periodID, status)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update fiscal period "+periodID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("fiscal period " + periodID + " not found")
	}
	return nil
}
