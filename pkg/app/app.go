// Package app wires configuration into the running services shared by the
// HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	apiconfig "filing_insight/pkg/api/config"
	apifiling "filing_insight/pkg/api/filing"
	"filing_insight/pkg/core/agent"
	"filing_insight/pkg/core/config"
	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"
	"filing_insight/pkg/core/qa"
	"filing_insight/pkg/core/store"

	"go.uber.org/zap"
)

type App struct {
	Config    config.Config
	Client    *ingest.EDGARClient
	Snapshots *store.SnapshotStore
	Requests  *store.RequestLog
	Agents    *agent.Manager
	Logger    *zap.Logger

	// Set by LoadServices.
	Directory *edgar.CompanyDirectory
	Filings   *ingest.FilingService
	Assistant *qa.Assistant
}

// New connects storage and builds the SEC client and agent manager. Postgres
// is used when a database URL is configured and reachable; otherwise snapshots
// and request logs go to files under the data directory.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Store.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Store.DatabaseURL); err != nil {
			logger.Warn("database unavailable, using file storage", zap.Error(err))
		} else {
			logger.Info("connected to database")
		}
	}
	pool := store.GetPool()

	requestLogPath := ""
	if pool == nil {
		requestLogPath = cfg.Store.RequestLogFile
	}

	opts := []ingest.Option{
		ingest.WithUserAgent(cfg.SEC.UserAgent),
		ingest.WithRateLimit(cfg.SEC.RequestsPerSecond),
		ingest.WithBaseURLs(cfg.SEC.SubmissionsURL, cfg.SEC.ArchivesURL, cfg.SEC.RegistryURL),
		ingest.WithLogger(logger.Named("edgar")),
	}
	if cfg.SEC.TimeoutSeconds > 0 {
		opts = append(opts, ingest.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.SEC.TimeoutSeconds) * time.Second}))
	}
	client := ingest.NewEDGARClient(opts...)

	return &App{
		Config:    cfg,
		Client:    client,
		Snapshots: store.NewSnapshotStore(pool, cfg.Store.DataDir),
		Requests:  store.NewRequestLog(pool, requestLogPath),
		Agents:    agent.NewManager(cfg.LLM, logger.Named("agent")),
		Logger:    logger,
	}
}

// LoadServices loads the company directory and builds the filing service and
// the assistant on top of it.
func (a *App) LoadServices(ctx context.Context) error {
	src := ingest.SnapshotRegistrySource{Store: a.Snapshots, Fallback: a.Client, Logger: a.Logger}
	dir, err := ingest.LoadDirectory(ctx, src, a.Logger.Named("registry"))
	if err != nil {
		return err
	}
	// Format was checked by config.Validate.
	format, _ := edgar.ParseTextFormat(a.Config.SEC.TextFormat)

	opts := []ingest.ServiceOption{
		ingest.WithTextFormat(format),
		ingest.WithRequestLog(a.Requests),
		ingest.WithServiceLogger(a.Logger.Named("filings")),
	}

	a.Directory = dir
	a.Filings = ingest.NewFilingService(a.Client, dir, opts...)
	a.Assistant = qa.NewAssistant(a.Filings, a.Agents, qa.Options{
		MaxTokens:       a.Config.QA.MaxTokens,
		Temperature:     a.Config.QA.Temperature,
		MaxContextChars: a.Config.QA.MaxContextChars,
		SystemPrompt:    a.Config.QA.SystemPrompt,
	}, a.Logger.Named("qa"))
	return nil
}

// SyncRegistry copies SEC's ticker registry into the snapshot store.
func (a *App) SyncRegistry(ctx context.Context) (ingest.SyncResult, error) {
	res, err := ingest.SyncRegistry(ctx, a.Client, a.Snapshots, a.Logger.Named("registry"))
	if err != nil {
		return res, err
	}
	res.StoredAs = a.Snapshots.Backend() + "/" + res.StoredAs
	return res, nil
}

// Handler returns the HTTP routes. LoadServices must have succeeded.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	apiconfig.NewHandler(a.Agents, a.Logger.Named("api")).Register(mux)
	apifiling.NewHandler(a.Directory, a.Filings, a.Assistant, a.Logger.Named("api")).Register(mux)
	return mux
}

// Close releases the database pool.
func (a *App) Close() {
	store.Close()
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("API server starting",
			zap.String("addr", srv.Addr),
			zap.String("provider", a.Agents.GetActiveProvider()),
			zap.Int("companies", a.Directory.Len()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("API server shutting down")
	return srv.Shutdown(shutdownCtx)
}
