package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the mongo collection holding audit records.
const CollectionName = "reconciliation_audit"

// Collection is the subset of *mongo.Collection the trail needs.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// MongoTrail appends audit records to a mongo collection.
type MongoTrail struct {
	logger *slog.Logger
	coll   Collection
}

// NewMongoTrail wraps an existing collection.
func NewMongoTrail(logger *slog.Logger, coll Collection) *MongoTrail {
	return &MongoTrail{logger: logger, coll: coll}
}

// Connect opens a client, pings it and returns the trail plus a close function.
func Connect(ctx context.Context, logger *slog.Logger, uri, database string, timeout time.Duration) (*MongoTrail, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(CollectionName)
	closeFn := func(ctx context.Context) error {
		if err := client.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
		}
		logger.Info("Closed MongoDB connection")
		return nil
	}
	return NewMongoTrail(logger, coll), closeFn, nil
}

// Record stores rec, filling in the ID and timestamp when absent.
func (t *MongoTrail) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	if _, err := t.coll.InsertOne(ctx, rec); err != nil {
		t.logger.Error("Failed to write audit record",
			"action", rec.Action,
			"entity_id", rec.EntityID,
			"error", err)
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// ListByEntity returns the records of one entity, oldest first.
func (t *MongoTrail) ListByEntity(ctx context.Context, entityType string, entityID string) ([]domain.AuditRecord, error) {
	filter := bson.M{"entity_type": entityType, "entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})

	cursor, err := t.coll.Find(ctx, filter, opts)
	if err != nil {
		t.logger.Error("Failed to query audit records", "entity_id", entityID, "error", err)
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []domain.AuditRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}
	return records, nil
}

// NoopTrail discards records. Used when no MongoDB URI is configured.
type NoopTrail struct{}

func (NoopTrail) Record(context.Context, domain.AuditRecord) error { return nil }

func (NoopTrail) ListByEntity(context.Context, string, string) ([]domain.AuditRecord, error) {
	return []domain.AuditRecord{}, nil
}
