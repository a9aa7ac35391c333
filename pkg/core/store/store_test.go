package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_FileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewSnapshotStore(nil, dir)
	assert.Equal(t, "file:"+dir, s.Backend())

	_, err := s.LoadSnapshot(ctx, ingest.RegistrySnapshotName)
	require.ErrorIs(t, err, edgar.ErrNotFound)

	first := []byte(`{"0":{"cik_str":1045810,"title":"NVIDIA CORP","ticker":"NVDA"}}`)
	require.NoError(t, s.SaveSnapshot(ctx, ingest.RegistrySnapshotName, first))

	got, err := s.LoadSnapshot(ctx, ingest.RegistrySnapshotName)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []byte(`{"0":{"cik_str":320193,"title":"Apple Inc.","ticker":"AAPL"}}`)
	require.NoError(t, s.SaveSnapshot(ctx, ingest.RegistrySnapshotName, second))
	got, err = s.LoadSnapshot(ctx, ingest.RegistrySnapshotName)
	require.NoError(t, err)
	assert.Equal(t, second, got, "save replaces the previous snapshot")

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")
}

func TestSnapshotStore_RejectsPathNames(t *testing.T) {
	s := NewSnapshotStore(nil, t.TempDir())
	for _, name := range []string{"", "../escape.json", "a/b.json", ".hidden"} {
		err := s.SaveSnapshot(context.Background(), name, []byte("{}"))
		assert.Error(t, err, "name %q", name)
	}
}

func TestSnapshotStore_DefaultDir(t *testing.T) {
	s := NewSnapshotStore(nil, "")
	assert.Equal(t, "file:data", s.Backend())
}

func TestRequestLog_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "requests.jsonl")
	log := NewRequestLog(nil, path)

	entries := []ingest.RequestLogEntry{
		{ID: "a", Ticker: "NVDA", Kind: "Quarter", Year: 2021, Quarter: 1, Outcome: "found", CreatedAt: time.Now()},
		{ID: "b", Ticker: "NVDA", Kind: "Annual", Year: 2019, Outcome: "not_found", Error: "no 10-K", CreatedAt: time.Now()},
	}
	for _, e := range entries {
		require.NoError(t, log.RecordRequest(ctx, e))
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e ingest.RequestLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		ids = append(ids, e.ID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRequestLog_Discard(t *testing.T) {
	assert.NoError(t, NewRequestLog(nil, "").RecordRequest(context.Background(), ingest.RequestLogEntry{ID: "x"}))
}
