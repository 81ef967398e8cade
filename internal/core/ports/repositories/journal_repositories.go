package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// EntryFilter narrows ListEntries.
type EntryFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Posted   *bool
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entry headers, newest first, using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, filter EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal data. Every method joins tx.
type JournalWriter interface {
	// FindEntryForUpdate loads an entry and its lines and locks the header row.
	FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error)

	// InsertEntry persists a header and all of its lines.
	InsertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error

	// UpdateEntryHeader rewrites the header of an unposted entry and reports the rows affected.
	UpdateEntryHeader(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) (int64, error)

	// ReplaceLines deletes the entry's current line set and inserts lines in its place.
	ReplaceLines(ctx context.Context, tx pgx.Tx, entryID string, lines []domain.JournalEntryLine) error

	// MarkPosted flips is_posted for an unposted entry and reports the rows affected.
	MarkPosted(ctx context.Context, tx pgx.Tx, entryID string, userID string, at time.Time) (int64, error)

	// MarkReversed flips is_reversed for a posted, unreversed entry and records the mirror.
	MarkReversed(ctx context.Context, tx pgx.Tx, entryID string, reversingEntryID string, userID string, at time.Time) (int64, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}

// SequenceAllocator hands out human-readable document numbers.
type SequenceAllocator interface {
	// Next allocates the next number of the named sequence, e.g. "JE-000123".
	Next(ctx context.Context, tx pgx.Tx, name string) (string, error)
}

// FiscalCalendar resolves the accounting period enclosing a date.
type FiscalCalendar interface {
	// PeriodFor returns the period containing date, or a not-found error.
	PeriodFor(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.FiscalPeriod, error)

	ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error)
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error
	UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus) error
}
