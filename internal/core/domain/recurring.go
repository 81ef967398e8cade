package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frequency is the cadence of a recurring pattern.
type Frequency string

const (
	Daily     Frequency = "DAILY"
	Weekly    Frequency = "WEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Yearly    Frequency = "YEARLY"
)

// ErrUnsupportedFrequency is returned when a pattern's frequency cannot resolve a next date.
var ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")

// ParseFrequency converts user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToUpper(strings.TrimSpace(s))); f {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, s)
	}
}

// RecurringPattern schedules copies of a template journal entry.
type RecurringPattern struct {
	PatternID          string     `json:"patternID"`
	Name               string     `json:"name"`
	TemplateEntryID    string     `json:"templateEntryID"`
	Frequency          Frequency  `json:"frequency"`
	Interval           int        `json:"interval"`
	DayOfMonth         *int       `json:"dayOfMonth,omitempty"` // 1-31
	DayOfWeek          *int       `json:"dayOfWeek,omitempty"`  // 0=Sunday
	StartDate          time.Time  `json:"startDate"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	LastGeneratedDate  *time.Time `json:"lastGeneratedDate,omitempty"`
	NextGenerationDate time.Time  `json:"nextGenerationDate"`
	IsActive           bool       `json:"isActive"`
	AuditFields
}

// IsDue reports whether the pattern should produce an entry on or before asOf.
func (p RecurringPattern) IsDue(asOf time.Time) bool {
	return p.IsActive && !DateOnly(p.NextGenerationDate).After(DateOnly(asOf))
}

// PastEnd reports whether date falls after the pattern's end date.
func (p RecurringPattern) PastEnd(date time.Time) bool {
	return p.EndDate != nil && DateOnly(date).After(DateOnly(*p.EndDate))
}

// Validate returns the problems with a pattern definition.
func (p RecurringPattern) Validate() []string {
	var msgs []string
	if p.TemplateEntryID == "" {
		msgs = append(msgs, "template entry is required")
	}
	if _, err := ParseFrequency(string(p.Frequency)); err != nil {
		msgs = append(msgs, err.Error())
	}
	if p.Interval < 1 {
		msgs = append(msgs, "interval must be at least 1")
	}
	if p.DayOfMonth != nil && (*p.DayOfMonth < 1 || *p.DayOfMonth > 31) {
		msgs = append(msgs, "day of month must be between 1 and 31")
	}
	if p.DayOfWeek != nil && (*p.DayOfWeek < 0 || *p.DayOfWeek > 6) {
		msgs = append(msgs, "day of week must be between 0 and 6")
	}
	if p.StartDate.IsZero() {
		msgs = append(msgs, "start date is required")
	}
	if p.EndDate != nil && DateOnly(*p.EndDate).Before(DateOnly(p.StartDate)) {
		msgs = append(msgs, "end date cannot be before start date")
	}
	return msgs
}

// FirstOccurrence is the first date on or after the start date that matches
// the pattern's anchor: the DayOfWeek for weekly patterns and the DayOfMonth
// (clamped to month end) for month-based ones.
func (p RecurringPattern) FirstOccurrence() time.Time {
	start := DateOnly(p.StartDate)
	switch p.Frequency {
	case Weekly:
		if p.DayOfWeek != nil {
			return start.AddDate(0, 0, (*p.DayOfWeek-int(start.Weekday())+7)%7)
		}
	case Monthly, Quarterly, Yearly:
		if p.DayOfMonth != nil {
			first := addMonthsClamped(start, 0, *p.DayOfMonth)
			if first.Before(start) {
				first = addMonthsClamped(start, 1, *p.DayOfMonth)
			}
			return first
		}
	}
	return start
}

// NextOccurrence returns the occurrence one interval after from.
// Month-based frequencies keep the anchor day and clamp it to the last day of
// shorter months, so an anchor of 31 yields Apr 30 and Feb 28/29.
func (p RecurringPattern) NextOccurrence(from time.Time) (time.Time, error) {
	n := p.Interval
	if n < 1 {
		n = 1
	}
	from = DateOnly(from)

	switch p.Frequency {
	case Daily:
		return from.AddDate(0, 0, n), nil
	case Weekly:
		next := from.AddDate(0, 0, 7*n)
		if p.DayOfWeek != nil {
			shift := (*p.DayOfWeek - int(next.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, shift)
		}
		return next, nil
	case Monthly:
		return addMonthsClamped(from, n, p.anchorDay()), nil
	case Quarterly:
		return addMonthsClamped(from, 3*n, p.anchorDay()), nil
	case Yearly:
		return addMonthsClamped(from, 12*n, p.anchorDay()), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, p.Frequency)
	}
}

func (p RecurringPattern) anchorDay() int {
	if p.DayOfMonth != nil {
		return *p.DayOfMonth
	}
	if !p.StartDate.IsZero() {
		return p.StartDate.Day()
	}
	return 0
}

// addMonthsClamped moves from by months calendar months and places the result on
// anchor (or from's day when anchor is 0), clamped to the month's last day.
func addMonthsClamped(from time.Time, months, anchor int) time.Time {
	if anchor <= 0 {
		anchor = from.Day()
	}
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := DaysInMonth(first.Year(), first.Month())
	if anchor > last {
		anchor = last
	}
	return time.Date(first.Year(), first.Month(), anchor, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
