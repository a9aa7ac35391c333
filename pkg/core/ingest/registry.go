package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"filing_insight/pkg/core/edgar"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistrySnapshotName is the key the ticker registry is stored under.
const RegistrySnapshotName = "company_tickers.json"

// RegistryEntry is one value of company_tickers.json:
// { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ... }
type RegistryEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ParseRegistry decodes a registry document into identities ordered by their
// numeric key. Entries that do not decode are skipped and counted.
func ParseRegistry(raw []byte) ([]edgar.CompanyIdentity, int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to parse ticker registry: %w", err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return registryKeyLess(keys[i], keys[j]) })

	entries := make([]edgar.CompanyIdentity, 0, len(keys))
	malformed := 0
	for _, k := range keys {
		var e RegistryEntry
		if err := json.Unmarshal(doc[k], &e); err != nil {
			malformed++
			continue
		}
		entries = append(entries, edgar.CompanyIdentity{CIK: e.CIK, Name: e.Title, Ticker: e.Ticker})
	}
	return entries, malformed, nil
}

// registryKeyLess orders numeric keys numerically, ahead of any other keys.
func registryKeyLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// =============================================================================
// REGISTRY SOURCES
// =============================================================================

// RegistrySource supplies the raw registry document.
type RegistrySource interface {
	Load(ctx context.Context) ([]byte, error)
}

// RegistryFetcher downloads the registry from SEC. *EDGARClient implements it.
type RegistryFetcher interface {
	FetchRegistry(ctx context.Context) ([]byte, error)
}

// SnapshotStore persists named registry snapshots. Load returns an error
// matching edgar.ErrNotFound when no snapshot exists.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, name string, data []byte) error
	LoadSnapshot(ctx context.Context, name string) ([]byte, error)
}

// HTTPRegistrySource reads the registry straight from SEC.
type HTTPRegistrySource struct {
	Fetcher RegistryFetcher
}

func (s HTTPRegistrySource) Load(ctx context.Context) ([]byte, error) {
	return s.Fetcher.FetchRegistry(ctx)
}

// SnapshotRegistrySource reads the stored snapshot, falling back to SEC when
// none has been synced yet.
type SnapshotRegistrySource struct {
	Store    SnapshotStore
	Fallback RegistryFetcher
	Logger   *zap.Logger
}

func (s SnapshotRegistrySource) Load(ctx context.Context) ([]byte, error) {
	data, err := s.Store.LoadSnapshot(ctx, RegistrySnapshotName)
	if err == nil {
		return data, nil
	}
	if s.Fallback == nil || !errors.Is(err, edgar.ErrNotFound) {
		return nil, fmt.Errorf("load registry snapshot: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("no registry snapshot stored, reading from SEC")
	}
	return s.Fallback.FetchRegistry(ctx)
}

// LoadDirectory builds the company directory from a registry source.
func LoadDirectory(ctx context.Context, src RegistrySource, logger *zap.Logger) (*edgar.CompanyDirectory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries, malformed, err := ParseRegistry(raw)
	if err != nil {
		return nil, err
	}
	if malformed > 0 {
		logger.Warn("registry entries failed to decode", zap.Int("malformed", malformed))
	}
	dir := edgar.NewCompanyDirectory(entries, logger)
	logger.Info("company directory loaded", zap.Int("companies", dir.Len()))
	return dir, nil
}

// =============================================================================
// REGISTRY SYNC
// =============================================================================

// SyncResult describes one registry sync run.
type SyncResult struct {
	RunID     string        `json:"run_id"`
	Entries   int           `json:"entries"`
	Bytes     int           `json:"bytes"`
	Duration  time.Duration `json:"duration"`
	StoredAs  string        `json:"stored_as"`
	Malformed int           `json:"malformed"`
}

// SyncRegistry copies SEC's company_tickers.json into the snapshot store.
// A document that does not parse, or holds no entries, is not stored.
func SyncRegistry(ctx context.Context, fetcher RegistryFetcher, store SnapshotStore, logger *zap.Logger) (SyncResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	result := SyncResult{RunID: uuid.NewString(), StoredAs: RegistrySnapshotName}
	log := logger.With(zap.String("run_id", result.RunID))

	raw, err := fetcher.FetchRegistry(ctx)
	if err != nil {
		log.Error("registry download failed", zap.Error(err))
		return result, err
	}

	entries, malformed, err := ParseRegistry(raw)
	if err != nil {
		return result, err
	}
	if len(entries) == 0 {
		return result, fmt.Errorf("ticker registry is empty, refusing to overwrite snapshot")
	}

	if err := store.SaveSnapshot(ctx, RegistrySnapshotName, raw); err != nil {
		log.Error("registry snapshot save failed", zap.Error(err))
		return result, fmt.Errorf("save registry snapshot: %w", err)
	}

	result.Entries = len(entries)
	result.Malformed = malformed
	result.Bytes = len(raw)
	result.Duration = time.Since(start)
	log.Info("registry synced",
		zap.Int("entries", result.Entries),
		zap.Int("bytes", result.Bytes),
		zap.Duration("duration", result.Duration))
	return result, nil
}
