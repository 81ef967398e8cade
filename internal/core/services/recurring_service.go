package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"
)

// DefaultRecurringWorkers bounds concurrent pattern processing when no size is configured.
const DefaultRecurringWorkers = 4

type recurringService struct {
	BaseService
	tx            portsrepo.TxRunner
	recurringRepo portsrepo.RecurringRepositoryFacade
	templates     portsrepo.JournalReader
	journal       portssvc.JournalWriterSvc
	workers       int
}

// NewRecurringService creates the recurring generator. Entries are created
// through journal so they pass the same validation as any other entry.
func NewRecurringService(repos portsrepo.RepositoryProvider, journal portssvc.JournalWriterSvc, workers int, options ...ServiceOption) portssvc.RecurringSvcFacade {
	if workers < 1 {
		workers = DefaultRecurringWorkers
	}
	return &recurringService{
		BaseService:   newBaseService(options...),
		tx:            repos.Tx,
		recurringRepo: repos.RecurringRepo,
		templates:     repos.JournalRepo,
		journal:       journal,
		workers:       workers,
	}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

func (s *recurringService) CreatePattern(ctx context.Context, req dto.CreateRecurringPatternRequest, userID string) (*domain.RecurringPattern, error) {
	interval := req.Interval
	if interval == 0 {
		interval = 1
	}
	frequency := domain.Frequency(strings.ToUpper(strings.TrimSpace(req.Frequency)))

	now := s.Now()
	pattern := domain.RecurringPattern{
		PatternID:       uuid.NewString(),
		Name:            req.Name,
		TemplateEntryID: req.TemplateEntryID,
		Frequency:       frequency,
		Interval:        interval,
		DayOfMonth:      req.DayOfMonth,
		DayOfWeek:       req.DayOfWeek,
		StartDate:       domain.DateOnly(req.StartDate),
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if req.EndDate != nil {
		end := domain.DateOnly(*req.EndDate)
		pattern.EndDate = &end
	}

	if err := apperrors.NewValidationErrors(pattern.Validate()); err != nil {
		return nil, err
	}
	pattern.NextGenerationDate = pattern.FirstOccurrence()
	if pattern.PastEnd(pattern.NextGenerationDate) {
		return nil, apperrors.NewValidationError("no occurrence falls between %s and the end date %s",
			pattern.StartDate.Format("2006-01-02"), pattern.EndDate.Format("2006-01-02"))
	}
	if _, err := s.templates.FindEntryByID(ctx, pattern.TemplateEntryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("template entry %s does not exist", pattern.TemplateEntryID)
		}
		return nil, err
	}

	if err := s.recurringRepo.SavePattern(ctx, pattern); err != nil {
		s.LogError(ctx, err, "Failed to save recurring pattern", slog.String("name", pattern.Name))
		return nil, err
	}
	s.LogInfo(ctx, "Recurring pattern created",
		slog.String("pattern_id", pattern.PatternID),
		slog.String("frequency", string(pattern.Frequency)))
	return &pattern, nil
}

func (s *recurringService) GetPattern(ctx context.Context, patternID string) (*domain.RecurringPattern, error) {
	return s.recurringRepo.FindPatternByID(ctx, patternID)
}

func (s *recurringService) ListPatterns(ctx context.Context, activeOnly bool) ([]domain.RecurringPattern, error) {
	return s.recurringRepo.ListPatterns(ctx, activeOnly)
}

func (s *recurringService) DeactivatePattern(ctx context.Context, patternID string, userID string) error {
	return s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		pattern, err := s.recurringRepo.FindPatternForUpdate(ctx, tx, patternID)
		if err != nil {
			return err
		}
		if !pattern.IsActive {
			return apperrors.NewConflictError("recurring pattern " + pattern.Name + " is already inactive")
		}
		pattern.IsActive = false
		pattern.LastUpdatedAt = s.Now()
		pattern.LastUpdatedBy = userID
		return s.recurringRepo.UpdatePatternSchedule(ctx, tx, *pattern)
	})
}

// patternRun is what one pattern contributed to a generation run.
type patternRun struct {
	generated   []string
	deactivated bool
}

// GenerateDueRecurring processes every due pattern on the worker pool. Each
// pattern commits or rolls back on its own; one failure never blocks the others.
func (s *recurringService) GenerateDueRecurring(ctx context.Context, asOf time.Time, userID string) (*dto.GenerateRecurringResponse, error) {
	asOf = domain.DateOnly(asOf)
	due, err := s.recurringRepo.ListDuePatterns(ctx, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to list due recurring patterns")
		return nil, err
	}

	resp := &dto.GenerateRecurringResponse{
		AsOf:        asOf,
		Processed:   len(due),
		Generated:   []string{},
		Deactivated: []string{},
	}
	if len(due) == 0 {
		return resp, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to start recurring worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, p := range due {
		patternID := p.PatternID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			run, err := s.processPattern(ctx, patternID, asOf, userID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.LogError(ctx, err, "Recurring pattern failed", slog.String("pattern_id", patternID))
				resp.Failures = append(resp.Failures, dto.PatternFailure{PatternID: patternID, Error: err.Error()})
				return
			}
			resp.Generated = append(resp.Generated, run.generated...)
			if run.deactivated {
				resp.Deactivated = append(resp.Deactivated, patternID)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			resp.Failures = append(resp.Failures, dto.PatternFailure{PatternID: patternID, Error: submitErr.Error()})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.Strings(resp.Generated)
	sort.Strings(resp.Deactivated)
	sort.Slice(resp.Failures, func(i, j int) bool { return resp.Failures[i].PatternID < resp.Failures[j].PatternID })

	s.LogInfo(ctx, "Recurring generation finished",
		slog.Time("as_of", asOf),
		slog.Int("processed", resp.Processed),
		slog.Int("generated", len(resp.Generated)),
		slog.Int("deactivated", len(resp.Deactivated)),
		slog.Int("failed", len(resp.Failures)))
	return resp, nil
}

// processPattern generates every occurrence of one pattern due by asOf in a single transaction.
func (s *recurringService) processPattern(ctx context.Context, patternID string, asOf time.Time, userID string) (patternRun, error) {
	var run patternRun
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		run = patternRun{}
		pattern, err := s.recurringRepo.FindPatternForUpdate(ctx, tx, patternID)
		if err != nil {
			return err
		}
		if !pattern.IsDue(asOf) {
			return nil
		}

		if _, err := domain.ParseFrequency(string(pattern.Frequency)); err != nil {
			s.LogInfo(ctx, "Deactivating recurring pattern with unsupported frequency",
				slog.String("pattern_id", patternID),
				slog.String("frequency", string(pattern.Frequency)))
			pattern.IsActive = false
		} else {
			template, err := s.templates.FindEntryByID(ctx, pattern.TemplateEntryID)
			if err != nil {
				return err
			}
			for pattern.IsDue(asOf) {
				due := pattern.NextGenerationDate
				if pattern.PastEnd(due) {
					pattern.IsActive = false
					break
				}

				entry, err := s.journal.CreateEntryInTx(ctx, tx, occurrence(template, pattern, due), false, userID)
				if err != nil {
					return fmt.Errorf("generating occurrence of %s: %w", due.Format("2006-01-02"), err)
				}
				run.generated = append(run.generated, entry.EntryID)

				generated := domain.DateOnly(due)
				pattern.LastGeneratedDate = &generated
				next, err := pattern.NextOccurrence(due)
				if err != nil || pattern.PastEnd(next) {
					// the schedule stays on the last generated date
					pattern.IsActive = false
					break
				}
				pattern.NextGenerationDate = next
			}
		}

		run.deactivated = !pattern.IsActive
		pattern.LastUpdatedAt = s.Now()
		pattern.LastUpdatedBy = userID
		return s.recurringRepo.UpdatePatternSchedule(ctx, tx, *pattern)
	})
	return run, err
}

// occurrence clones the template lines into a draft dated at due.
func occurrence(template *domain.JournalEntry, pattern *domain.RecurringPattern, due time.Time) domain.JournalEntry {
	lines := make([]domain.JournalEntryLine, len(template.Lines))
	for i, l := range template.Lines {
		l.LineID = ""
		l.EntryID = ""
		if l.Dimensions != nil {
			dims := make(map[string]string, len(l.Dimensions))
			for k, v := range l.Dimensions {
				dims[k] = v
			}
			l.Dimensions = dims
		}
		lines[i] = l
	}
	source := domain.SourceRecurringPattern
	patternID := pattern.PatternID
	description := template.Description
	if description == "" {
		description = pattern.Name
	}
	return domain.JournalEntry{
		EntryDate:          due,
		JournalType:        domain.RecurringJournal,
		Description:        description,
		Reference:          template.Reference,
		SourceDocumentType: &source,
		SourceDocumentID:   &patternID,
		Lines:              lines,
	}
}
