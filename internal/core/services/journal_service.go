package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalEntrySequence is the sequence that numbers journal entries.
const JournalEntrySequence = "journal_entry"

// DefaultCurrency is applied to lines that do not name a currency.
const DefaultCurrency = "SGD"

type journalService struct {
	BaseService
	tx          portsrepo.TxRunner
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountReader
	bankRepo    portsrepo.BankRepositoryFacade
	calendar    portsrepo.FiscalCalendar
	sequences   portsrepo.SequenceAllocator
}

// NewJournalService creates the posting engine.
func NewJournalService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(options...),
		tx:          repos.Tx,
		journalRepo: repos.JournalRepo,
		accountRepo: repos.AccountRepo,
		bankRepo:    repos.BankRepo,
		calendar:    repos.FiscalCalendar,
		sequences:   repos.Sequences,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return s.journalRepo.FindEntryByID(ctx, entryID)
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	filter := portsrepo.EntryFilter{FromDate: params.FromDate, ToDate: params.ToDate, Posted: params.Posted}
	entries, nextToken, err := s.journalRepo.ListEntries(ctx, filter, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries")
		return nil, err
	}
	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	entry := domain.JournalEntry{
		EntryDate:        req.EntryDate,
		JournalType:      req.JournalType,
		Description:      req.Description,
		Reference:        req.Reference,
		SourceDocumentID: req.SourceDocumentID,
		Lines:            dto.ToLines(req.Lines),
	}
	if req.SourceDocumentType != nil {
		t := domain.SourceDocumentType(*req.SourceDocumentType)
		entry.SourceDocumentType = &t
	}

	var created *domain.JournalEntry
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = s.CreateEntryInTx(ctx, tx, entry, req.AutoPost, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create journal entry")
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry created",
		slog.String("entry_id", created.EntryID),
		slog.String("entry_number", created.EntryNumber),
		slog.Bool("posted", created.IsPosted))
	if created.IsPosted {
		s.publishPosted(ctx, created, userID)
	}
	return created, nil
}

// CreateEntryInTx validates entry and persists it inside tx. The entry is
// posted in the same transaction when autoPost is set.
func (s *journalService) CreateEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, autoPost bool, userID string) (*domain.JournalEntry, error) {
	entry.EntryDate = domain.DateOnly(entry.EntryDate)
	if entry.JournalType == "" {
		entry.JournalType = domain.GeneralJournal
	}

	period, err := s.validateEntry(ctx, tx, entry.EntryDate, entry.JournalType, entry.Lines)
	if err != nil {
		return nil, err
	}

	number, err := s.sequences.Next(ctx, tx, JournalEntrySequence)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entry.EntryID = uuid.NewString()
	entry.EntryNumber = number
	entry.FiscalPeriodID = period.PeriodID
	entry.IsPosted = false
	entry.PostedAt = nil
	entry.PostedBy = nil
	entry.IsReversed = false
	entry.ReversingEntryID = nil
	entry.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	entry.Lines = prepareLines(entry.EntryID, entry.Lines)

	if err := s.journalRepo.InsertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	if autoPost {
		return s.PostEntryInTx(ctx, tx, entry.EntryID, userID)
	}
	return &entry, nil
}

func (s *journalService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	var updated *domain.JournalEntry
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = s.UpdateEntryInTx(ctx, tx, entryID, req, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry updated", slog.String("entry_id", entryID))
	return updated, nil
}

// UpdateEntryInTx replaces the header fields and the whole line set of an unposted entry.
func (s *journalService) UpdateEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.CanModify() {
		return nil, apperrors.NewConflictError("journal entry " + entry.EntryNumber + " is posted and cannot be modified")
	}

	entryDate := domain.DateOnly(req.EntryDate)
	lines := dto.ToLines(req.Lines)
	period, err := s.validateEntry(ctx, tx, entryDate, req.JournalType, lines)
	if err != nil {
		return nil, err
	}

	entry.EntryDate = entryDate
	entry.JournalType = req.JournalType
	entry.Description = req.Description
	entry.Reference = req.Reference
	entry.FiscalPeriodID = period.PeriodID
	entry.LastUpdatedAt = s.Now()
	entry.LastUpdatedBy = userID
	entry.Lines = prepareLines(entry.EntryID, lines)

	n, err := s.journalRepo.UpdateEntryHeader(ctx, tx, *entry)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.NewConflictError("journal entry " + entry.EntryNumber + " was posted concurrently")
	}
	if err := s.journalRepo.ReplaceLines(ctx, tx, entry.EntryID, entry.Lines); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	var posted *domain.JournalEntry
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		posted, err = s.PostEntryInTx(ctx, tx, entryID, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post journal entry", slog.String("entry_id", entryID))
		return nil, err
	}
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.String("entry_number", posted.EntryNumber))
	s.publishPosted(ctx, posted, userID)
	return posted, nil
}

// PostEntryInTx posts an entry and writes one bank transaction for every line
// on a bank-linked account with a non-zero net.
func (s *journalService) PostEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, userID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsPosted {
		return nil, apperrors.NewConflictError("journal entry " + entry.EntryNumber + " is already posted")
	}
	if _, err := s.openPeriod(ctx, tx, entry.EntryDate); err != nil {
		return nil, err
	}

	accounts, err := s.lockLineAccounts(ctx, tx, entry.Lines)
	if err != nil {
		return nil, err
	}
	if err := apperrors.NewValidationErrors(lineAccountProblems(entry.Lines, accounts)); err != nil {
		return nil, err
	}

	bankTxns, deltas, err := s.deriveBankTransactions(ctx, tx, entry, accounts, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	n, err := s.journalRepo.MarkPosted(ctx, tx, entry.EntryID, userID, now)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.NewConflictError("journal entry " + entry.EntryNumber + " was posted concurrently")
	}

	if len(bankTxns) > 0 {
		if err := s.bankRepo.InsertTransactions(ctx, tx, bankTxns); err != nil {
			return nil, err
		}
		for _, bankAccountID := range sortedKeys(deltas) {
			if err := s.bankRepo.AdjustBalance(ctx, tx, bankAccountID, deltas[bankAccountID], userID, now); err != nil {
				return nil, err
			}
		}
	}

	entry.IsPosted = true
	entry.PostedAt = &now
	entry.PostedBy = &userID
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID
	return entry, nil
}

func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	var mirror *domain.JournalEntry
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		mirror, err = s.ReverseEntryInTx(ctx, tx, entryID, req, userID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversing_entry_id", mirror.EntryID))
	s.publish(ctx, domain.EventEntryReversed, entryID, userID, map[string]any{
		"reversingEntryID":     mirror.EntryID,
		"reversingEntryNumber": mirror.EntryNumber,
		"reversalDate":         mirror.EntryDate.Format("2006-01-02"),
	})
	if mirror.IsPosted {
		s.publishPosted(ctx, mirror, userID)
	}
	return mirror, nil
}

// ReverseEntryInTx creates the mirror of a posted entry through the normal
// create path and links the two.
func (s *journalService) ReverseEntryInTx(ctx context.Context, tx pgx.Tx, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	original, err := s.journalRepo.FindEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if !original.IsPosted {
		return nil, apperrors.NewConflictError("journal entry " + original.EntryNumber + " is not posted; edit it instead of reversing")
	}
	if original.IsReversed {
		return nil, apperrors.NewConflictError("journal entry " + original.EntryNumber + " is already reversed")
	}

	lines := make([]domain.JournalEntryLine, len(original.Lines))
	for i, l := range original.Lines {
		lines[i] = l.Mirror()
	}
	description := "Reversal of " + original.EntryNumber
	if req.Note != "" {
		description += ": " + req.Note
	}
	reversedID := original.EntryID
	mirror := domain.JournalEntry{
		EntryDate:          req.ReversalDate,
		JournalType:        domain.ReversalJournal,
		Description:        description,
		Reference:          original.EntryNumber,
		ReversedEntryID:    &reversedID,
		SourceDocumentType: original.SourceDocumentType,
		SourceDocumentID:   original.SourceDocumentID,
		Lines:              lines,
	}

	created, err := s.CreateEntryInTx(ctx, tx, mirror, req.AutoPost, userID)
	if err != nil {
		return nil, err
	}

	n, err := s.journalRepo.MarkReversed(ctx, tx, original.EntryID, created.EntryID, userID, s.Now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.NewConflictError("journal entry " + original.EntryNumber + " was reversed concurrently")
	}
	return created, nil
}

// validateEntry collects every structural and reference problem of a proposed
// entry and returns the fiscal period it falls in.
func (s *journalService) validateEntry(ctx context.Context, tx pgx.Tx, entryDate time.Time, journalType domain.JournalType, lines []domain.JournalEntryLine) (*domain.FiscalPeriod, error) {
	msgs := domain.ValidateLines(lines)
	if !journalType.IsValid() {
		msgs = append(msgs, fmt.Sprintf("unknown journal type %q", journalType))
	}

	accounts, err := s.lockLineAccounts(ctx, tx, lines)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, lineAccountProblems(lines, accounts)...)

	period, err := s.openPeriod(ctx, tx, entryDate)
	if err != nil {
		var ve *apperrors.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, err
		}
		msgs = append(msgs, ve.Messages...)
	}

	if err := apperrors.NewValidationErrors(msgs); err != nil {
		return nil, err
	}
	return period, nil
}

// lockLineAccounts share-locks the accounts referenced by lines so their
// active and bank-linked flags hold until tx ends.
func (s *journalService) lockLineAccounts(ctx context.Context, tx pgx.Tx, lines []domain.JournalEntryLine) (map[string]domain.Account, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.AccountID != "" {
			ids = append(ids, l.AccountID)
		}
	}
	if len(ids) == 0 {
		return map[string]domain.Account{}, nil
	}
	return s.accountRepo.LockAccountsForShare(ctx, tx, ids)
}

func lineAccountProblems(lines []domain.JournalEntryLine, accounts map[string]domain.Account) []string {
	var msgs []string
	for i, l := range lines {
		if l.AccountID == "" {
			continue
		}
		account, ok := accounts[l.AccountID]
		switch {
		case !ok:
			msgs = append(msgs, fmt.Sprintf("line %d: account %s does not exist", i+1, l.AccountID))
		case !account.IsActive:
			msgs = append(msgs, fmt.Sprintf("line %d: account %s is inactive", i+1, account.Code))
		}
	}
	return msgs
}

// openPeriod returns the period containing date, rejecting dates outside the
// calendar and periods that are not open.
func (s *journalService) openPeriod(ctx context.Context, tx pgx.Tx, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.calendar.PeriodFor(ctx, tx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("no fiscal period covers %s", date.Format("2006-01-02"))
		}
		return nil, err
	}
	if !period.IsOpen() {
		return nil, apperrors.NewValidationError("fiscal period %s is %s; posting not allowed", period.Name, period.Status)
	}
	return period, nil
}

// deriveBankTransactions builds the bank movements of a posting and the net
// change per bank account.
func (s *journalService) deriveBankTransactions(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry, accounts map[string]domain.Account, userID string) ([]domain.BankTransaction, map[string]decimal.Decimal, error) {
	var linked []string
	for _, l := range entry.Lines {
		if !l.Net().IsZero() && accounts[l.AccountID].IsBankLinked {
			linked = append(linked, l.AccountID)
		}
	}
	if len(linked) == 0 {
		return nil, nil, nil
	}

	banks, err := s.bankRepo.FindBankAccountsByLedgerAccounts(ctx, tx, linked)
	if err != nil {
		return nil, nil, err
	}

	var msgs []string
	var txns []domain.BankTransaction
	deltas := make(map[string]decimal.Decimal)
	now := s.Now()
	for _, l := range entry.Lines {
		net := l.Net()
		if net.IsZero() || !accounts[l.AccountID].IsBankLinked {
			continue
		}
		bank, ok := banks[l.AccountID]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("account %s is bank-linked but has no bank account", accounts[l.AccountID].Code))
			continue
		}

		description := l.Description
		if description == "" {
			description = entry.Description
		}
		entryID, lineID := entry.EntryID, l.LineID
		txns = append(txns, domain.BankTransaction{
			TransactionID:   uuid.NewString(),
			BankAccountID:   bank.BankAccountID,
			TransactionDate: entry.EntryDate,
			TransactionType: domain.TransactionTypeFor(net),
			Description:     description,
			Reference:       entry.EntryNumber,
			Amount:          net,
			JournalEntryID:  &entryID,
			JournalLineID:   &lineID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
		deltas[bank.BankAccountID] = deltas[bank.BankAccountID].Add(net)
	}
	if err := apperrors.NewValidationErrors(msgs); err != nil {
		return nil, nil, err
	}
	return txns, deltas, nil
}

func (s *journalService) publishPosted(ctx context.Context, entry *domain.JournalEntry, userID string) {
	s.publish(ctx, domain.EventEntryPosted, entry.EntryID, userID, map[string]any{
		"entryNumber": entry.EntryNumber,
		"entryDate":   entry.EntryDate.Format("2006-01-02"),
		"journalType": string(entry.JournalType),
		"totalDebit":  entry.TotalDebit().StringFixed(2),
		"totalCredit": entry.TotalCredit().StringFixed(2),
	})
}

// prepareLines numbers lines from 1, assigns IDs and fills currency defaults.
func prepareLines(entryID string, lines []domain.JournalEntryLine) []domain.JournalEntryLine {
	out := make([]domain.JournalEntryLine, len(lines))
	for i, l := range lines {
		l.LineID = uuid.NewString()
		l.EntryID = entryID
		l.LineNumber = i + 1
		if l.CurrencyCode == "" {
			l.CurrencyCode = DefaultCurrency
		}
		if l.ExchangeRate.IsZero() {
			l.ExchangeRate = decimal.NewFromInt(1)
		}
		out[i] = l
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
