package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filing_insight/pkg/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeSEC(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"0": {"cik_str": 1045810, "ticker": "NVDA", "title": "NVIDIA CORP"}}`)
	})
	mux.HandleFunc("/submissions/CIK0001045810.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cik": "1045810", "name": "NVIDIA CORP", "filings": {"recent": {
			"accessionNumber": ["0001045810-21-000010", "0001045810-20-000065"],
			"reportDate":      ["2021-01-31", "2020-04-26"],
			"form":            ["10-K", "10-Q"],
			"primaryDocument": ["nvda-20210131.htm", "nvda-20200426.htm"]
		}}}`)
	})
	mux.HandleFunc("/Archives/edgar/data/1045810/000104581020000065/nvda-20200426.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>FORM 10-Q</p><p>Three Months Ended April 26, 2020</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, secURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.SEC.UserAgent = "FilingInsightTest/1.0 (test@example.com)"
	cfg.SEC.RequestsPerSecond = 1000
	cfg.SEC.SubmissionsURL = secURL + "/submissions"
	cfg.SEC.ArchivesURL = secURL + "/Archives/edgar/data"
	cfg.SEC.RegistryURL = secURL + "/files/company_tickers.json"
	cfg.Store.DataDir = dir
	cfg.Store.RequestLogFile = filepath.Join(dir, "requests.jsonl")
	return cfg
}

func TestApp_SyncThenServe(t *testing.T) {
	sec := newFakeSEC(t)
	cfg := testConfig(t, sec.URL)
	ctx := context.Background()

	a := New(ctx, cfg, nil)
	defer a.Close()

	res, err := a.SyncRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)
	assert.Equal(t, "file:"+cfg.Store.DataDir+"/company_tickers.json", res.StoredAs)
	assert.FileExists(t, filepath.Join(cfg.Store.DataDir, "company_tickers.json"))

	require.NoError(t, a.LoadServices(ctx))
	assert.Equal(t, 1, a.Directory.Len())

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/filing", "application/json",
		strings.NewReader(`{"request_type": "Quarter", "ticker": "nvda", "year": 2021, "quarter": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, sec.URL+"/Archives/edgar/data/1045810/000104581020000065/nvda-20200426.htm", doc.URL)
	assert.Contains(t, doc.Text, "Three Months Ended April 26, 2020")

	log, err := os.ReadFile(cfg.Store.RequestLogFile)
	require.NoError(t, err)
	assert.Contains(t, string(log), `"found"`)

	resp, err = http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_LoadServicesFallsBackToSEC(t *testing.T) {
	sec := newFakeSEC(t)
	cfg := testConfig(t, sec.URL)

	a := New(context.Background(), cfg, nil)
	require.NoError(t, a.LoadServices(context.Background()))
	assert.Equal(t, 1, a.Directory.Len())
	assert.NoFileExists(t, filepath.Join(cfg.Store.DataDir, "company_tickers.json"))
}
