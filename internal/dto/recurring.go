package dto

import "time"

// CreateRecurringPatternRequest defines a schedule for a template entry.
type CreateRecurringPatternRequest struct {
	Name            string     `json:"name" binding:"required"`
	TemplateEntryID string     `json:"templateEntryID" binding:"required"`
	Frequency       string     `json:"frequency" binding:"required"`
	Interval        int        `json:"interval"` // defaults to 1
	DayOfMonth      *int       `json:"dayOfMonth"`
	DayOfWeek       *int       `json:"dayOfWeek"`
	StartDate       time.Time  `json:"startDate" binding:"required"`
	EndDate         *time.Time `json:"endDate"`
}

// GenerateRecurringRequest triggers generation for every pattern due by AsOf.
type GenerateRecurringRequest struct {
	AsOf time.Time `json:"asOf" binding:"required"`
}

// PatternFailure records one pattern that could not be processed.
type PatternFailure struct {
	PatternID string `json:"patternID"`
	Error     string `json:"error"`
}

// GenerateRecurringResponse summarises a generation run.
type GenerateRecurringResponse struct {
	AsOf        time.Time        `json:"asOf"`
	Processed   int              `json:"processed"`
	Generated   []string         `json:"generated"`   // entry IDs
	Deactivated []string         `json:"deactivated"` // pattern IDs
	Failures    []PatternFailure `json:"failures,omitempty"`
}
