package domain

import "time"

// PeriodStatus gates whether postings are allowed into a fiscal period.
type PeriodStatus string

const (
	PeriodOpen     PeriodStatus = "OPEN"
	PeriodClosed   PeriodStatus = "CLOSED"
	PeriodArchived PeriodStatus = "ARCHIVED"
)

// FiscalPeriod is a date range of the accounting calendar.
type FiscalPeriod struct {
	PeriodID  string       `json:"periodID"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Status    PeriodStatus `json:"status"`
}

// IsOpen reports whether entries may be created or posted into the period.
func (p FiscalPeriod) IsOpen() bool {
	return p.Status == PeriodOpen
}

// Contains reports whether date falls inside the period, bounds inclusive.
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}
