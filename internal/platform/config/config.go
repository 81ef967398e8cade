package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	DBMaxConns     int32
	DBMinConns     int32
	DBConnLifetime time.Duration
	Port           string
	IsProduction   bool
	LogLevel       string
	JWTSecret      string
	JWTIssuer      string
	RateLimit      string // ulule/limiter format, e.g. "100-M"
	AllowedOrigins []string

	// Ledger events
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaWriteTimeout time.Duration

	// Reconciliation audit trail
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	RecurringWorkers      int
	StatementProfilesPath string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("MIGRATIONS_PATH", "./migrations")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIN_CONNS", 1)
	viper.SetDefault("DB_CONN_LIFETIME", "30m")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "bookkeeping-engine")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "ledger-events")
	viper.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")
	viper.SetDefault("MONGO_URI", "")
	viper.SetDefault("MONGO_DATABASE", "bookkeeping")
	viper.SetDefault("MONGO_TIMEOUT", "5s")
	viper.SetDefault("RECURRING_WORKERS", 4)
	viper.SetDefault("STATEMENT_PROFILES_PATH", "./statement_profiles.yaml")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:           viper.GetString("PGSQL_URL"),
		MigrationsPath:        viper.GetString("MIGRATIONS_PATH"),
		DBMaxConns:            viper.GetInt32("DB_MAX_CONNS"),
		DBMinConns:            viper.GetInt32("DB_MIN_CONNS"),
		DBConnLifetime:        viper.GetDuration("DB_CONN_LIFETIME"),
		Port:                  viper.GetString("PORT"),
		IsProduction:          viper.GetBool("IS_PRODUCTION"),
		LogLevel:              viper.GetString("LOG_LEVEL"),
		JWTSecret:             viper.GetString("JWT_SECRET"),
		JWTIssuer:             viper.GetString("JWT_ISSUER"),
		RateLimit:             viper.GetString("RATE_LIMIT"),
		AllowedOrigins:        splitList(viper.GetString("ALLOWED_ORIGINS")),
		KafkaBrokers:          splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaTopic:            viper.GetString("KAFKA_TOPIC"),
		KafkaWriteTimeout:     viper.GetDuration("KAFKA_WRITE_TIMEOUT"),
		MongoURI:              viper.GetString("MONGO_URI"),
		MongoDatabase:         viper.GetString("MONGO_DATABASE"),
		MongoTimeout:          viper.GetDuration("MONGO_TIMEOUT"),
		RecurringWorkers:      viper.GetInt("RECURRING_WORKERS"),
		StatementProfilesPath: viper.GetString("STATEMENT_PROFILES_PATH"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" && cfg.IsProduction {
		log.Println("Warning: JWT_SECRET is the default insecure key.")
	}
	if cfg.RecurringWorkers < 1 {
		log.Printf("Warning: Invalid value for RECURRING_WORKERS (%d). Defaulting to 1.\n", cfg.RecurringWorkers)
		cfg.RecurringWorkers = 1
	}
	// every recurring worker holds a connection for its transaction
	if cfg.DBMaxConns < int32(cfg.RecurringWorkers)+1 {
		log.Printf("Warning: DB_MAX_CONNS (%d) is below RECURRING_WORKERS+1. Raising to %d.\n", cfg.DBMaxConns, cfg.RecurringWorkers+1)
		cfg.DBMaxConns = int32(cfg.RecurringWorkers) + 1
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		cfg.DBMinConns = 0
	}
	if cfg.KafkaWriteTimeout <= 0 {
		cfg.KafkaWriteTimeout = 5 * time.Second
	}
	if cfg.MongoTimeout <= 0 {
		cfg.MongoTimeout = 5 * time.Second
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
