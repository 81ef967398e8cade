package pgsql

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool PgxPool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, entry_number, entry_date, journal_type, fiscal_period_id, description, reference,
	is_posted, posted_at, posted_by, is_reversed, reversing_entry_id, reversed_entry_id,
	source_document_type, source_document_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, line_number, account_id, description, debit_amount, credit_amount,
	currency_code, exchange_rate, tax_code, tax_amount, dimensions`

func scanEntry(row scanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.EntryID,
		&e.EntryNumber,
		&e.EntryDate,
		&e.JournalType,
		&e.FiscalPeriodID,
		&e.Description,
		&e.Reference,
		&e.IsPosted,
		&e.PostedAt,
		&e.PostedBy,
		&e.IsReversed,
		&e.ReversingEntryID,
		&e.ReversedEntryID,
		&e.SourceDocumentType,
		&e.SourceDocumentID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	return e, err
}

func scanLine(row scanner) (domain.JournalEntryLine, error) {
	var l domain.JournalEntryLine
	err := row.Scan(
		&l.LineID,
		&l.EntryID,
		&l.LineNumber,
		&l.AccountID,
		&l.Description,
		&l.DebitAmount,
		&l.CreditAmount,
		&l.CurrencyCode,
		&l.ExchangeRate,
		&l.TaxCode,
		&l.TaxAmount,
		&l.Dimensions,
	)
	return l, err
}

// FindEntryByID retrieves an entry and its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, r.Pool, entryID, false)
}

// FindEntryForUpdate loads the entry through tx and locks its header row.
func (r *PgxJournalRepository) FindEntryForUpdate(ctx context.Context, tx pgx.Tx, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, r.db(tx), entryID, true)
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, q portsrepo.Querier, entryID string, lock bool) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	entry, err := scanEntry(q.QueryRow(ctx, query+";", entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal entry " + entryID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+entryID, err)
	}

	lines, err := r.findLines(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return &entry, nil
}

func (r *PgxJournalRepository) findLines(ctx context.Context, q portsrepo.Querier, entryID string) ([]domain.JournalEntryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_entry_lines WHERE entry_id = $1 ORDER BY line_number;`
	rows, err := q.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	lines := []domain.JournalEntryLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line for entry "+entryID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating lines for entry "+entryID, err)
	}
	return lines, nil
}

// ListEntries retrieves a page of entry headers ordered by entry date then creation time, newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter portsrepo.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// one extra row tells us whether another page exists
	fetchLimit := limit + 1

	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1)
		}
		conds = append(conds, cond)
	}

	if filter.FromDate != nil {
		add("entry_date >= ?", domain.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		add("entry_date <= ?", domain.DateOnly(*filter.ToDate))
	}
	if filter.Posted != nil {
		add("is_posted = ?", *filter.Posted)
	}
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		add("(entry_date, created_at) < (?, ?)", lastDate, lastCreatedAt)
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, fetchLimit)
	query += ` ORDER BY entry_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries", err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}

	var next *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		next = &token
		entries = entries[:limit]
	}
	return entries, next, nil
}

// InsertEntry writes the header and then each line.
func (r *PgxJournalRepository) InsertEntry(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	q := r.db(tx)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := q.Exec(ctx, query,
		entry.EntryID,
		entry.EntryNumber,
		entry.EntryDate,
		entry.JournalType,
		entry.FiscalPeriodID,
		entry.Description,
		entry.Reference,
		entry.IsPosted,
		entry.PostedAt,
		entry.PostedBy,
		entry.IsReversed,
		entry.ReversingEntryID,
		entry.ReversedEntryID,
		entry.SourceDocumentType,
		entry.SourceDocumentID,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewAppError(409, "journal entry "+entry.EntryNumber+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert journal entry "+entry.EntryID, err)
	}
	return r.insertLines(ctx, q, entry.EntryID, entry.Lines)
}

func (r *PgxJournalRepository) insertLines(ctx context.Context, q portsrepo.Querier, entryID string, lines []domain.JournalEntryLine) error {
	query := `
		INSERT INTO journal_entry_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, l := range lines {
		if l.LineID == "" {
			l.LineID = uuid.NewString()
		}
		var dims any
		if len(l.Dimensions) > 0 {
			dims = l.Dimensions
		}
		_, err := q.Exec(ctx, query,
			l.LineID,
			entryID,
			l.LineNumber,
			l.AccountID,
			l.Description,
			l.DebitAmount,
			l.CreditAmount,
			l.CurrencyCode,
			l.ExchangeRate,
			l.TaxCode,
			l.TaxAmount,
			dims,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to insert line "+strconv.Itoa(l.LineNumber)+" for entry "+entryID, err)
		}
	}
	return nil
}

// UpdateEntryHeader rewrites the editable header fields of an unposted entry.
func (r *PgxJournalRepository) UpdateEntryHeader(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) (int64, error) {
	query := `
		UPDATE journal_entries
		SET entry_date = $2, journal_type = $3, fiscal_period_id = $4, description = $5, reference = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE entry_id = $1 AND is_posted = FALSE;
	`
	tag, err := r.db(tx).Exec(ctx, query,
		entry.EntryID,
		entry.EntryDate,
		entry.JournalType,
		entry.FiscalPeriodID,
		entry.Description,
		entry.Reference,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to update journal entry "+entry.EntryID, err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceLines deletes the entry's lines and inserts the new set.
func (r *PgxJournalRepository) ReplaceLines(ctx context.Context, tx pgx.Tx, entryID string, lines []domain.JournalEntryLine) error {
	q := r.db(tx)
	if _, err := q.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1;`, entryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines for entry "+entryID, err)
	}
	return r.insertLines(ctx, q, entryID, lines)
}

// MarkPosted posts an unposted entry.
func (r *PgxJournalRepository) MarkPosted(ctx context.Context, tx pgx.Tx, entryID string, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE journal_entries
		SET is_posted = TRUE, posted_at = $2, posted_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = $1 AND is_posted = FALSE;
	`
	tag, err := r.db(tx).Exec(ctx, query, entryID, at, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to post journal entry "+entryID, err)
	}
	return tag.RowsAffected(), nil
}

// MarkReversed links a posted entry to its mirror.
func (r *PgxJournalRepository) MarkReversed(ctx context.Context, tx pgx.Tx, entryID string, reversingEntryID string, userID string, at time.Time) (int64, error) {
	query := `
		UPDATE journal_entries
		SET is_reversed = TRUE, reversing_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND is_posted = TRUE AND is_reversed = FALSE;
	`
	tag, err := r.db(tx).Exec(ctx, query, entryID, reversingEntryID, at, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to mark journal entry "+entryID+" reversed", err)
	}
	return tag.RowsAffected(), nil
}
