package services

import (
	"context"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
)

// LedgerEventPublisher publishes committed ledger changes.
type LedgerEventPublisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}

// AuditTrail stores reconciliation and import actions outside the ledger database.
type AuditTrail interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
	ListByEntity(ctx context.Context, entityType string, entityID string) ([]domain.AuditRecord, error)
}
