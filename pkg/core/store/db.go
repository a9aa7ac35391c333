package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// schema creates the tables used by the snapshot store and the request log.
const schema = `
CREATE TABLE IF NOT EXISTS registry_snapshots (
	name        TEXT PRIMARY KEY,
	data        BYTEA NOT NULL,
	sha256      TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS filing_requests (
	id          UUID PRIMARY KEY,
	ticker      TEXT NOT NULL,
	cik         TEXT,
	kind        TEXT NOT NULL,
	year        INTEGER,
	quarter     INTEGER,
	accession   TEXT,
	outcome     TEXT NOT NULL,
	error       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// InitDB initializes the connection pool. An empty dsn falls back to the
// DATABASE_URL environment variable.
func InitDB(ctx context.Context, dsn string) error {
	var err error
	once.Do(func() {
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dsn)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			err = fmt.Errorf("database unreachable: %w", err)
			return
		}
		if _, execErr := pool.Exec(ctx, schema); execErr != nil {
			err = fmt.Errorf("failed to apply schema: %w", execErr)
		}
	})
	return err
}

// GetPool returns the database connection pool, or nil when InitDB failed
// or was never called.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
