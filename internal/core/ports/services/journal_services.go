package services

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/jackc/pgx/v5"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntry retrieves an entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalWriterSvc defines write operations for journal data.
//
// Each operation has a form that opens its own transaction and an InTx form
// that joins one supplied by the caller, so composed workflows stay atomic.
type JournalWriterSvc interface {
	// CreateEntry validates and persists a new unposted entry.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error)
	CreateEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, autoPost bool, userID string) (*domain.JournalEntry, error)

	// UpdateEntry replaces the header and line set of an unposted entry.
	UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)
	UpdateEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntry posts an entry and derives bank transactions for bank-linked lines.
	PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	PostEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error)

	// ReverseEntry creates the mirror of a posted entry and returns it.
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)
	ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}

// RecurringSvcFacade manages recurring patterns and generates due entries.
type RecurringSvcFacade interface {
	CreatePattern(ctx context.Context, req dto.CreateRecurringPatternRequest, userID string) (*domain.RecurringPattern, error)
	GetPattern(ctx context.Context, patternID string) (*domain.RecurringPattern, error)
	ListPatterns(ctx context.Context, activeOnly bool) ([]domain.RecurringPattern, error)
	DeactivatePattern(ctx context.Context, patternID string, userID string) error

	// GenerateDueRecurring creates a draft entry for every occurrence due on or
	// before asOf. Patterns are processed independently.
	GenerateDueRecurring(ctx context.Context, asOf time.Time, userID string) (*dto.GenerateRecurringResponse, error)
}
