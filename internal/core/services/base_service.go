package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/audit"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/messaging"
	"github.com/google/uuid"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Events portssvc.LedgerEventPublisher
	Audit  portssvc.AuditTrail
	Now    func() time.Time
}

// ServiceOption configures the shared parts of a service.
type ServiceOption func(*BaseService)

// WithEventPublisher sets where committed ledger events go.
func WithEventPublisher(p portssvc.LedgerEventPublisher) ServiceOption {
	return func(s *BaseService) {
		s.Events = p
	}
}

// WithAuditTrail sets where reconciliation and import actions are recorded.
func WithAuditTrail(a portssvc.AuditTrail) ServiceOption {
	return func(s *BaseService) {
		s.Audit = a
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.Now = now
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	b := BaseService{
		Events: messaging.NoopPublisher{},
		Audit:  audit.NoopTrail{},
		Now:    time.Now,
	}
	for _, option := range options {
		option(&b)
	}
	return b
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// publish emits an event for a change that has already committed. Delivery
// failures are logged and never undo the change.
func (s *BaseService) publish(ctx context.Context, eventType domain.LedgerEventType, aggregateID, actorID string, payload map[string]any) {
	event := domain.LedgerEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		OccurredAt:  s.Now().UTC(),
		Payload:     payload,
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish ledger event",
			slog.String("event_type", string(eventType)),
			slog.String("aggregate_id", aggregateID))
	}
}

// record appends to the audit trail. Like publish, it runs after commit and only logs failures.
func (s *BaseService) record(ctx context.Context, action domain.AuditAction, entityType, entityID, actorID string, details map[string]any) {
	rec := domain.AuditRecord{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		At:         s.Now().UTC(),
		Details:    details,
	}
	if err := s.Audit.Record(ctx, rec); err != nil {
		s.LogError(ctx, err, "Failed to write audit record",
			slog.String("action", string(action)),
			slog.String("entity_id", entityID))
	}
}
