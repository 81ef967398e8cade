package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// RecurringRepositoryFacade persists recurring patterns.
type RecurringRepositoryFacade interface {
	SavePattern(ctx context.Context, pattern domain.RecurringPattern) error
	FindPatternByID(ctx context.Context, patternID string) (*domain.RecurringPattern, error)
	ListPatterns(ctx context.Context, activeOnly bool) ([]domain.RecurringPattern, error)

	// ListDuePatterns returns active patterns whose next generation date is on or before asOf.
	ListDuePatterns(ctx context.Context, asOf time.Time) ([]domain.RecurringPattern, error)

	FindPatternForUpdate(ctx context.Context, tx pgx.Tx, patternID string) (*domain.RecurringPattern, error)

	// UpdatePatternSchedule stores last/next generation dates and the active flag.
	UpdatePatternSchedule(ctx context.Context, tx pgx.Tx, pattern domain.RecurringPattern) error
}
