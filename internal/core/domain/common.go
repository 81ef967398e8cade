package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// BalanceTolerance is the largest debit/credit or reconciliation difference treated as zero.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// WithinTolerance reports whether |d| <= BalanceTolerance.
func WithinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(BalanceTolerance)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
