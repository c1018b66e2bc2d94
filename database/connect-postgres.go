// Package database stores published posts and publish failures in Postgres.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

const (
	connectTimeout = 10 * time.Second
	pingAttempts   = 3
	pingPause      = 2 * time.Second
)

// Postgres is the post store and failure journal backed by Postgres.
type Postgres struct {
	connections *sqlx.DB
	logger      *logging.Logger
}

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPostgres connects to dbURL, waits for the server to answer and applies
// the embedded migrations.
func NewPostgres(ctx context.Context, dbURL string, logger *logging.Logger) (*Postgres, error) {
	if logger == nil {
		logger = logging.Default()
	}

	dbx, err := sqlx.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres: %w", err)
	}
	if err := waitForPing(ctx, dbx, pingAttempts, pingPause, logger); err != nil {
		dbx.Close()
		return nil, err
	}

	version, err := migrate(dbx)
	if err != nil {
		dbx.Close()
		return nil, err
	}
	logger.Info("postgres ready", "schema_version", version)

	return &Postgres{
		connections: dbx,
		logger:      logger,
	}, nil
}

// waitForPing pings until the server answers, at most attempts times. Each
// ping is bounded by connectTimeout.
func waitForPing(ctx context.Context, db *sqlx.DB, attempts int, pause time.Duration, logger *logging.Logger) error {
	pause = max(pause, time.Millisecond)
	tries := 0
	backoff := retry.WithMaxRetries(uint64(max(attempts-1, 0)), retry.NewConstant(pause))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tries++
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("postgres not answering", "attempt", tries, "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error pinging postgres after %d attempt(s): %w", tries, err)
	}
	return nil
}

// migrate applies the embedded migrations and returns the schema version.
func migrate(db *sqlx.DB) (int64, error) {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("error setting dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return 0, fmt.Errorf("error running migrations: %w", err)
	}
	version, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, fmt.Errorf("error reading schema version: %w", err)
	}
	return version, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.logger.Info("closing postgres connection")
	return p.connections.Close()
}
