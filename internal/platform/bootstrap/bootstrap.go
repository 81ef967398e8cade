// Package bootstrap opens the infrastructure shared by the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/audit"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/messaging"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/bookkeeping_engine/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the opened connections and the wired services.
type App struct {
	Pool     *pgxpool.Pool
	Events   portssvc.LedgerEventPublisher
	Audit    portssvc.AuditTrail
	Services *portssvc.ServiceContainer

	closeAudit func(context.Context) error
	logger     *slog.Logger
}

// Open connects to PostgreSQL and, when configured, Kafka and MongoDB.
// Without brokers or a Mongo URI the no-op publisher and trail are used.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*App, error) {
	pool, err := database.NewPgxPool(ctx, logger, database.PoolSettings{
		URL:          cfg.DatabaseURL,
		MaxConns:     cfg.DBMaxConns,
		MinConns:     cfg.DBMinConns,
		ConnLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	app := &App{Pool: pool, logger: logger}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := messaging.NewKafkaPublisher(logger, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaWriteTimeout)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize ledger event publisher: %w", err)
		}
		app.Events = publisher
		logger.Info("Ledger events enabled", slog.String("topic", cfg.KafkaTopic))
	} else {
		app.Events = messaging.NoopPublisher{}
		logger.Warn("KAFKA_BROKERS not set; ledger events are discarded")
	}

	if cfg.MongoURI != "" {
		trail, closeFn, err := audit.Connect(ctx, logger, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
		}
		app.Audit = trail
		app.closeAudit = closeFn
	} else {
		app.Audit = audit.NoopTrail{}
		logger.Warn("MONGO_URI not set; reconciliation audit trail is discarded")
	}

	repos := pgsql.NewRepositoryProvider(pool)
	app.Services = services.NewServiceContainer(cfg, repos, app.Events, app.Audit)
	return app, nil
}

// Close releases everything Open acquired, logging failures.
func (a *App) Close(ctx context.Context) {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.logger.Error("Error closing ledger event publisher", "error", err)
		}
	}
	if a.closeAudit != nil {
		if err := a.closeAudit(ctx); err != nil {
			a.logger.Error("Error closing audit trail", "error", err)
		}
	}
	database.ClosePgxPool(a.logger, a.Pool)
}
