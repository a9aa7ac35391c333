package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"filing_insight/pkg/core/ingest"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestLog audits filing lookups to the filing_requests table, or to a
// JSON-lines file when no database is configured.
type RequestLog struct {
	pool *pgxpool.Pool
	path string
	mu   sync.Mutex
}

// NewRequestLog creates a request log. With a nil pool and an empty path
// entries are discarded.
func NewRequestLog(pool *pgxpool.Pool, path string) *RequestLog {
	return &RequestLog{pool: pool, path: path}
}

var _ ingest.RequestLog = (*RequestLog)(nil)

// RecordRequest stores one entry.
func (l *RequestLog) RecordRequest(ctx context.Context, e ingest.RequestLogEntry) error {
	if l.pool != nil {
		query := `
			INSERT INTO filing_requests (
				id, ticker, cik, kind, year, quarter, accession, outcome, error, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := l.pool.Exec(ctx, query,
			e.ID, e.Ticker, nullable(e.CIK), e.Kind, e.Year, e.Quarter,
			nullable(e.Accession), e.Outcome, nullable(e.Error), e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert filing request: %w", err)
		}
		return nil
	}

	if l.path == "" {
		return nil
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal filing request: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create request log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
