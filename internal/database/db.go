package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/medflow/auth-starter/internal/config"
)

// DBTX is an interface that both *sqlx.DB and *sqlx.Tx satisfy.
// This allows repositories to work with either a direct connection or a transaction.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Ensure *sqlx.DB and *sqlx.Tx implement DBTX
var _ DBTX = (*sqlx.DB)(nil)
var _ DBTX = (*sqlx.Tx)(nil)

// DB is the process-wide connection handle. One instance is created at
// startup and shared by constructor injection; it is never rebuilt per
// request.
type DB struct {
	*sqlx.DB
}

// Connect builds the shared pool. The environment decides the transport:
// production requires SSL, everything else runs plaintext. A malformed URL
// is the one fatal path; callers are expected to abort startup on error.
func Connect(databaseURL, environment string) (*DB, error) {
	dsn, err := applySSLMode(databaseURL, environment)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(config.DBConnMaxLifetime)

	return &DB{db}, nil
}

// applySSLMode forces sslmode=require when environment is "production" and
// sslmode=disable otherwise, overriding whatever the URL carried.
func applySSLMode(databaseURL, environment string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	q := u.Query()
	if environment == "production" {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// WarmUp races one connection probe against the configured timeout. The
// outcome is advisory: a failure means the first real query pays the
// connect cost lazily, so callers log the error and keep going.
func (db *DB) WarmUp(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, config.DBWarmUpTimeout)
	defer cancel()

	// Buffered so the probe goroutine can finish after the timeout wins
	// without leaking or panicking.
	done := make(chan error, 1)
	go func() {
		done <- db.PingContext(probeCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("warm-up probe: %w", err)
		}
		return nil
	case <-probeCtx.Done():
		return fmt.Errorf("warm-up probe: %w", probeCtx.Err())
	}
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// TxFunc is a function that runs within a transaction.
type TxFunc func(tx *sqlx.Tx) error

// WithTx executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back and the error
// propagates unchanged. Otherwise, the transaction is committed.
func (db *DB) WithTx(ctx context.Context, fn TxFunc) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
