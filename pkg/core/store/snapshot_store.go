package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filing_insight/pkg/core/edgar"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore keeps named registry snapshots.
// Hybrid: DB (primary) when a pool is configured, file system otherwise.
type SnapshotStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewSnapshotStore creates a snapshot store. With a nil pool, snapshots are
// files under dir (default "data").
func NewSnapshotStore(pool *pgxpool.Pool, dir string) *SnapshotStore {
	if pool == nil && dir == "" {
		dir = "data"
	}
	return &SnapshotStore{pool: pool, fileDir: dir}
}

// Backend names where snapshots are kept, for logs.
func (s *SnapshotStore) Backend() string {
	if s.pool != nil {
		return "postgres"
	}
	return "file:" + s.fileDir
}

// SaveSnapshot stores data under name, replacing any previous version.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}

	if s.pool != nil {
		sum := sha256.Sum256(data)
		query := `
			INSERT INTO registry_snapshots (name, data, sha256, size_bytes)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name)
			DO UPDATE SET
				data = EXCLUDED.data,
				sha256 = EXCLUDED.sha256,
				size_bytes = EXCLUDED.size_bytes,
				updated_at = NOW()
		`
		if _, err := s.pool.Exec(ctx, query, name, data, hex.EncodeToString(sum[:]), len(data)); err != nil {
			return fmt.Errorf("failed to save snapshot %s to db: %w", name, err)
		}
		return nil
	}

	if err := os.MkdirAll(s.fileDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	// Write then rename so readers never see a partial file.
	path := filepath.Join(s.fileDir, name)
	tmp, err := os.CreateTemp(s.fileDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot. A missing snapshot matches
// edgar.ErrNotFound.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	if s.pool != nil {
		var data []byte
		err := s.pool.QueryRow(ctx, `SELECT data FROM registry_snapshots WHERE name = $1`, name).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s: %w", name, edgar.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot %s from db: %w", name, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(s.fileDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("snapshot %s: %w", name, edgar.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return data, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}
