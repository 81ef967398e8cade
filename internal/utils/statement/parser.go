package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Parse reads a CSV statement with a header row. Problems confined to a row
// are reported on that row's ParseError; only an unreadable file or a header
// missing a mapped column fails the whole parse. Row numbers count the header
// as row 1.
func Parse(r io.Reader, m ColumnMapping) ([]domain.StatementRow, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if m.Delimiter != "" {
		reader.Comma = []rune(m.Delimiter)[0]
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("statement is empty")
		}
		return nil, fmt.Errorf("failed to read statement header: %w", err)
	}
	cols, err := locateColumns(header, m)
	if err != nil {
		return nil, err
	}

	var rows []domain.StatementRow
	rowNumber := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNumber++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rows = append(rows, domain.StatementRow{RowNumber: rowNumber, ParseError: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read statement row %d: %w", rowNumber, err)
		}
		if blank(record) {
			rowNumber--
			continue
		}
		rows = append(rows, parseRow(rowNumber, header, record, cols, m))
	}
	return rows, nil
}

type columns struct {
	date, description, reference, amount, debit, credit int
}

func locateColumns(header []string, m ColumnMapping) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	find := func(name string, required bool) int {
		if name == "" {
			return -1
		}
		i, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			if required {
				missing = append(missing, name)
			}
			return -1
		}
		return i
	}

	cols := columns{
		date:        find(m.Date, true),
		description: find(m.Description, false),
		reference:   find(m.Reference, false),
		amount:      find(m.Amount, true),
		debit:       find(m.Debit, true),
		credit:      find(m.Credit, true),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("statement header is missing column(s): %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(rowNumber int, header, record []string, cols columns, m ColumnMapping) domain.StatementRow {
	row := domain.StatementRow{
		RowNumber:   rowNumber,
		Description: cell(record, cols.description),
		Reference:   cell(record, cols.reference),
		Raw:         make(map[string]string, len(header)),
	}
	for i, h := range header {
		row.Raw[strings.TrimPrefix(h, "\ufeff")] = cell(record, i)
	}

	date, err := parseDate(cell(record, cols.date), m.layouts())
	if err != nil {
		row.ParseError = err.Error()
		return row
	}
	row.Date = date

	amount, err := rowAmount(record, cols)
	if err != nil {
		row.ParseError = err.Error()
		return row
	}
	if m.Negate {
		amount = amount.Neg()
	}
	row.Amount = amount
	return row
}

func rowAmount(record []string, cols columns) (decimal.Decimal, error) {
	if cols.amount >= 0 {
		return ParseAmount(cell(record, cols.amount))
	}

	debitCell, creditCell := cell(record, cols.debit), cell(record, cols.credit)
	if debitCell == "" && creditCell == "" {
		return decimal.Zero, errors.New("both debit and credit are empty")
	}
	debit, credit := decimal.Zero, decimal.Zero
	var err error
	if debitCell != "" {
		if debit, err = ParseAmount(debitCell); err != nil {
			return decimal.Zero, err
		}
	}
	if creditCell != "" {
		if credit, err = ParseAmount(creditCell); err != nil {
			return decimal.Zero, err
		}
	}
	return credit.Abs().Sub(debit.Abs()), nil
}

func parseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is empty")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
