// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// ErrNotInitialized is returned by every store function before InitDB succeeded.
var ErrNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the config as a lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	return Open(cfg.DSN())
}

// Open connects to the database behind dsn and installs it as DB.
func Open(dsn string) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return ErrNotInitialized
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS pool_parameters (
			params_id SERIAL PRIMARY KEY,
			pool_name VARCHAR(255) NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			kind VARCHAR(16) NOT NULL,
			params JSONB NOT NULL,
			CONSTRAINT uq_pool_parameters_name_version UNIQUE (pool_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_pool_parameters_name_active ON pool_parameters(pool_name, is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS pool_events (
			event_id UUID PRIMARY KEY,
			pool_name VARCHAR(255) NOT NULL,
			kind VARCHAR(64) NOT NULL,
			event_timestamp BIGINT NOT NULL,
			attributes JSONB NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_pool_events_pool_timestamp ON pool_events(pool_name, event_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_pool_events_kind ON pool_events(kind);

		CREATE TABLE IF NOT EXISTS pool_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			cycle_number INTEGER NOT NULL,
			cycle_id UUID NOT NULL,
			pool_name VARCHAR(255) NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_size NUMERIC(78, 0) NOT NULL,
			total_penalty_fee NUMERIC(78, 0) NOT NULL,
			strategy_balance NUMERIC(78, 0) NOT NULL,
			owners TEXT[],
			info JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pool_snapshots_pool_timestamp ON pool_snapshots(pool_name, snapshot_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_pool_snapshots_cycle ON pool_snapshots(cycle_number DESC);

		-- Cycle counter table for persistent monitor cycle tracking
		CREATE TABLE IF NOT EXISTS cycle_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_cycle INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		INSERT INTO cycle_counter (id, current_cycle)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	if _, err := DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// DropSchema removes every table EnsureSchema creates.
func DropSchema() error {
	if DB == nil {
		return ErrNotInitialized
	}
	_, err := DB.Exec(`
		DROP TABLE IF EXISTS pool_snapshots CASCADE;
		DROP TABLE IF EXISTS pool_events CASCADE;
		DROP TABLE IF EXISTS pool_parameters CASCADE;
		DROP TABLE IF EXISTS cycle_counter CASCADE;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	log.Warn().Msg("Database schema dropped")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
