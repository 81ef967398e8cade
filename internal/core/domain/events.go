package domain

import "time"

// LedgerEventType names an event published after a ledger state change commits.
type LedgerEventType string

const (
	EventEntryPosted             LedgerEventType = "entry.posted"
	EventEntryReversed           LedgerEventType = "entry.reversed"
	EventReconciliationFinalized LedgerEventType = "reconciliation.finalized"
	EventReconciliationDeleted   LedgerEventType = "reconciliation.deleted"
	EventStatementImported       LedgerEventType = "statement.imported"
)

// LedgerEvent is the message body published to the event stream.
type LedgerEvent struct {
	EventID     string          `json:"eventID"`
	Type        LedgerEventType `json:"type"`
	AggregateID string          `json:"aggregateID"`
	ActorID     string          `json:"actorID"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     map[string]any  `json:"payload,omitempty"`
}

// AuditAction names a recorded reconciliation or import step.
type AuditAction string

const (
	AuditDraftOpened        AuditAction = "DRAFT_OPENED"
	AuditMatched            AuditAction = "MATCHED"
	AuditUnreconciled       AuditAction = "UNRECONCILED"
	AuditFinalized          AuditAction = "FINALIZED"
	AuditDeleted            AuditAction = "DELETED"
	AuditStatementImported  AuditAction = "STATEMENT_IMPORTED"
	AuditTransactionDeleted AuditAction = "TRANSACTION_DELETED"
)

// AuditRecord is one entry of the reconciliation audit trail.
type AuditRecord struct {
	RecordID   string         `json:"recordID" bson:"record_id"`
	Action     AuditAction    `json:"action" bson:"action"`
	EntityType string         `json:"entityType" bson:"entity_type"`
	EntityID   string         `json:"entityID" bson:"entity_id"`
	ActorID    string         `json:"actorID" bson:"actor_id"`
	At         time.Time      `json:"at" bson:"at"`
	Details    map[string]any `json:"details,omitempty" bson:"details,omitempty"`
}
