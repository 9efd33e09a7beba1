package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	_ "github.com/lib/pq"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS account_profiles (
			account TEXT PRIMARY KEY,
			transaction_frequency TEXT NOT NULL DEFAULT 'medium',
			per_transaction_limit_wei NUMERIC(78, 0),
			balance_wei NUMERIC(78, 0),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_locks (
			account TEXT PRIMARY KEY,
			locked BOOLEAN NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS strategies (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			asset TEXT NOT NULL,
			enabled BOOLEAN NOT NULL,
			parameters JSONB NOT NULL DEFAULT '{}',
			risk_level TEXT NOT NULL,
			max_allocation_percent DOUBLE PRECISION NOT NULL,
			last_executed_at TIMESTAMP,
			total_trades INTEGER NOT NULL DEFAULT 0,
			successful_trades INTEGER NOT NULL DEFAULT 0,
			total_return DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS learning_state (
			id INTEGER PRIMARY KEY,
			total_transactions INTEGER NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL,
			success_rate DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS assessment_audit (
			id TEXT PRIMARY KEY,
			account TEXT NOT NULL,
			recipient TEXT NOT NULL,
			amount_wei NUMERIC(78, 0),
			risk_level TEXT,
			factors JSONB NOT NULL DEFAULT '[]',
			confidence DOUBLE PRECISION,
			status TEXT NOT NULL,
			tx_hash TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// weiValue renders a wei amount for a NUMERIC column
func weiValue(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

// parseWei reads a NUMERIC column back into wei
func parseWei(v sql.NullString) (*big.Int, error) {
	if !v.Valid {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(v.String, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei value %q", v.String)
	}
	return n, nil
}
