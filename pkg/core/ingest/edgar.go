// Package ingest talks to SEC EDGAR: the ticker registry, company submission
// histories and filing documents.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"filing_insight/pkg/core/edgar"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// SEC EDGAR API endpoints
	SECSubmissionsURL = "https://data.sec.gov/submissions"
	SECRegistryURL    = "https://www.sec.gov/files/company_tickers.json"

	// SEC rejects requests without a descriptive User-Agent.
	DefaultUserAgent = "FilingInsight/1.0 (contact@example.com)"

	// SEC fair-access limit is 10 requests per second.
	DefaultRequestsPerSecond = 10
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SubmissionsResponse is the top-level company submissions document.
type SubmissionsResponse struct {
	CIK           string     `json:"cik"`
	EntityType    string     `json:"entityType"`
	Name          string     `json:"name"`
	Tickers       []string   `json:"tickers"`
	FiscalYearEnd string     `json:"fiscalYearEnd"` // MMDD, e.g. "0128"
	Filings       SECFilings `json:"filings"`
}

// SECFilings wraps the recent-filings window.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds filing attributes as parallel arrays.
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0001045810-21-000010"
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"` // period of report
	Form            []string `json:"form"`       // "10-K", "10-Q", "8-K"
	PrimaryDocument []string `json:"primaryDocument"`
}

// StatusError is a non-200 response from SEC.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("SEC returned status %d for %s", e.StatusCode, e.URL)
}

// Is lets a 404 match edgar.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == edgar.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// EDGARClient handles SEC EDGAR requests. All requests share one rate limiter.
type EDGARClient struct {
	httpClient     *http.Client
	userAgent      string
	limiter        *rate.Limiter
	submissionsURL string
	archivesURL    string
	registryURL    string
	logger         *zap.Logger
}

// Option configures an EDGARClient.
type Option func(*EDGARClient)

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *EDGARClient) { e.httpClient = c }
}

// WithUserAgent sets the User-Agent sent to SEC.
func WithUserAgent(ua string) Option {
	return func(e *EDGARClient) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables the limiter.
func WithRateLimit(perSecond float64) Option {
	return func(e *EDGARClient) {
		if perSecond <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBaseURLs points the client at other hosts (mirrors, test servers).
// Empty values keep the defaults.
func WithBaseURLs(submissions, archives, registry string) Option {
	return func(e *EDGARClient) {
		if submissions != "" {
			e.submissionsURL = strings.TrimRight(submissions, "/")
		}
		if archives != "" {
			e.archivesURL = strings.TrimRight(archives, "/")
		}
		if registry != "" {
			e.registryURL = registry
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *EDGARClient) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEDGARClient creates a new SEC EDGAR client.
func NewEDGARClient(opts ...Option) *EDGARClient {
	c := &EDGARClient{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		userAgent:      DefaultUserAgent,
		limiter:        rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		submissionsURL: SECSubmissionsURL,
		archivesURL:    edgar.ArchivesBaseURL,
		registryURL:    SECRegistryURL,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DocumentURL is the archive URL of a referenced filing on this client's host.
func (c *EDGARClient) DocumentURL(ref edgar.FilingReference) string {
	return ref.URLWithBase(c.archivesURL)
}

// get performs a rate-limited GET and returns the body of a 200 response.
func (c *EDGARClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("sec request",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// FetchRegistry downloads company_tickers.json as raw bytes.
func (c *EDGARClient) FetchRegistry(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, c.registryURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch ticker registry: %w", err)
	}
	return body, nil
}

// FetchSubmissions retrieves the submission history of a company.
// paddedCIK must be the 10-digit form (see edgar.PadCIK).
func (c *EDGARClient) FetchSubmissions(ctx context.Context, paddedCIK string) (*SubmissionsResponse, error) {
	if len(paddedCIK) != edgar.CIKWidth {
		return nil, fmt.Errorf("%w: %q is not a padded CIK", edgar.ErrInvalidIdentifier, paddedCIK)
	}
	url := fmt.Sprintf("%s/CIK%s.json", c.submissionsURL, paddedCIK)

	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetch submissions for CIK %s: %w", paddedCIK, err)
	}

	var resp SubmissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse submissions for CIK %s: %w", paddedCIK, err)
	}
	return &resp, nil
}

// FetchDocument downloads a filing document.
func (c *EDGARClient) FetchDocument(ctx context.Context, ref edgar.FilingReference) ([]byte, error) {
	url := c.DocumentURL(ref)
	body, err := c.get(ctx, url, "text/html,application/xhtml+xml,*/*")
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", ref.Document, err)
	}
	return body, nil
}

// FilingRecords denormalizes the parallel arrays of the recent-filings window.
// Rows missing an accession number, a document or a parseable report date
// are skipped.
func (r *SubmissionsResponse) FilingRecords(logger *zap.Logger) []edgar.FilingRecord {
	if logger == nil {
		logger = zap.NewNop()
	}
	recent := r.Filings.Recent
	records := make([]edgar.FilingRecord, 0, len(recent.AccessionNumber))

	skipped := 0
	for i, acc := range recent.AccessionNumber {
		form := at(recent.Form, i)
		doc := at(recent.PrimaryDocument, i)
		date, err := edgar.ParseReportDate(at(recent.ReportDate, i))
		if acc == "" || doc == "" || err != nil {
			skipped++
			continue
		}
		records = append(records, edgar.FilingRecord{
			Form:            edgar.ParseFormType(form),
			ReportDate:      date,
			AccessionNumber: acc,
			PrimaryDocument: doc,
		})
	}

	if skipped > 0 {
		logger.Debug("skipped filing rows without report date or document",
			zap.String("cik", r.CIK), zap.Int("skipped", skipped), zap.Int("kept", len(records)))
	}
	return records
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
