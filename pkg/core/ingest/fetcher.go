package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"filing_insight/pkg/core/edgar"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FilingKind is the request_type of a filing request.
type FilingKind string

const (
	KindAnnual  FilingKind = "Annual"
	KindQuarter FilingKind = "Quarter"
)

// FilingRequest asks for one company filing:
// {"request_type": "Quarter", "ticker": "NVDA", "year": 2025, "quarter": 1}
type FilingRequest struct {
	Kind    FilingKind `json:"request_type"`
	Ticker  string     `json:"ticker"`
	Year    int        `json:"year"`
	Quarter int        `json:"quarter,omitempty"`
	Section string     `json:"section,omitempty"` // optional item, e.g. "7" or "1A"
}

// ErrInvalidRequest marks a malformed filing request.
var ErrInvalidRequest = errors.New("invalid filing request")

// Validate checks the request shape. Quarter requests must name quarter 1..3.
func (r FilingRequest) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}
	if r.Year <= 0 {
		return fmt.Errorf("%w: year is required", ErrInvalidRequest)
	}
	if r.Section != "" && !sectionItem.MatchString(NormalizeItem(r.Section)) {
		return fmt.Errorf("%w: section must be an item number like 7 or 1A, got %q", ErrInvalidRequest, r.Section)
	}
	switch r.Kind {
	case KindAnnual:
		return nil
	case KindQuarter:
		return edgar.ValidateQuarter(r.Quarter)
	default:
		return fmt.Errorf("%w: request_type must be %q or %q, got %q", ErrInvalidRequest, KindAnnual, KindQuarter, r.Kind)
	}
}

// Period is the requested report period.
func (r FilingRequest) Period() edgar.Period {
	if r.Kind == KindAnnual {
		return edgar.Period{Year: r.Year}
	}
	return edgar.Period{Year: r.Year, Quarter: r.Quarter}
}

// Document is a located filing with its extracted text.
type Document struct {
	Company   edgar.CompanyIdentity `json:"company"`
	Reference edgar.FilingReference `json:"reference"`
	Period    edgar.Period          `json:"period"`
	Form      string                `json:"form"`
	URL       string                `json:"url"`
	Section   string                `json:"section,omitempty"`
	Text      string                `json:"text"`
}

// =============================================================================
// FILING SERVICE
// =============================================================================

// EDGARAPI is the part of *EDGARClient the filing service needs.
type EDGARAPI interface {
	FetchSubmissions(ctx context.Context, paddedCIK string) (*SubmissionsResponse, error)
	FetchDocument(ctx context.Context, ref edgar.FilingReference) ([]byte, error)
	DocumentURL(ref edgar.FilingReference) string
}

// RequestLogEntry is one audited filing lookup.
type RequestLogEntry struct {
	ID        string
	Ticker    string
	CIK       string
	Kind      string
	Year      int
	Quarter   int
	Accession string
	Outcome   string // "found", "not_found", "error"
	Error     string
	CreatedAt time.Time
}

// RequestLog records filing lookups.
type RequestLog interface {
	RecordRequest(ctx context.Context, entry RequestLogEntry) error
}

// FilingService resolves tickers to filings and returns their text.
// Submission histories are fetched on every call.
type FilingService struct {
	client    EDGARAPI
	directory *edgar.CompanyDirectory
	format    edgar.TextFormat
	requests  RequestLog
	logger    *zap.Logger
}

// ServiceOption configures a FilingService.
type ServiceOption func(*FilingService)

// WithTextFormat selects plain text or markdown extraction.
func WithTextFormat(f edgar.TextFormat) ServiceOption {
	return func(s *FilingService) { s.format = f }
}

// WithRequestLog audits every lookup.
func WithRequestLog(l RequestLog) ServiceOption {
	return func(s *FilingService) { s.requests = l }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *FilingService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFilingService creates a filing service over a loaded directory.
func NewFilingService(client EDGARAPI, directory *edgar.CompanyDirectory, opts ...ServiceOption) *FilingService {
	s := &FilingService{
		client:    client,
		directory: directory,
		format:    edgar.FormatText,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Company finds a company by ticker, then by name.
func (s *FilingService) Company(query string) (edgar.CompanyIdentity, error) {
	return s.directory.Lookup(query)
}

// Locator fetches the company's filing history and indexes it.
func (s *FilingService) Locator(ctx context.Context, company edgar.CompanyIdentity) (*edgar.Locator, error) {
	cik, err := company.PaddedCIK()
	if err != nil {
		return nil, err
	}
	subs, err := s.client.FetchSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	records := subs.FilingRecords(s.logger)
	s.logger.Debug("filing history loaded",
		zap.String("ticker", company.Ticker), zap.String("cik", cik), zap.Int("records", len(records)))
	return edgar.NewLocator(cik, edgar.NewFilingIndex(records)), nil
}

// Get locates the requested filing and returns its text.
func (s *FilingService) Get(ctx context.Context, req FilingRequest) (*Document, error) {
	entry := RequestLogEntry{
		ID:      uuid.NewString(),
		Ticker:  strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Kind:    string(req.Kind),
		Year:    req.Year,
		Quarter: req.Quarter,
	}
	doc, err := s.get(ctx, req, &entry)
	s.record(ctx, entry, err)
	return doc, err
}

func (s *FilingService) get(ctx context.Context, req FilingRequest, entry *RequestLogEntry) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	company, err := s.Company(req.Ticker)
	if err != nil {
		return nil, err
	}
	entry.CIK, _ = company.PaddedCIK()

	loc, err := s.Locator(ctx, company)
	if err != nil {
		return nil, err
	}

	period := req.Period()
	ref, err := loc.Locate(period)
	if err != nil {
		if errors.Is(err, edgar.ErrNotFound) {
			return nil, fmt.Errorf("no %s filing found for %s %s: %w", formFor(period), company.Ticker, period, err)
		}
		return nil, err
	}
	entry.Accession = ref.Accession
	doc, err := s.fetch(ctx, company, ref, period)
	if err != nil || req.Section == "" {
		return doc, err
	}

	sec, err := FindSection(doc.Text, req.Section)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", company.Ticker, period, err)
	}
	doc.Section = sec.Item
	doc.Text = sec.Text
	return doc, nil
}

// Latest returns the most recent annual or quarterly filing of a company.
func (s *FilingService) Latest(ctx context.Context, ticker string) (*Document, error) {
	entry := RequestLogEntry{ID: uuid.NewString(), Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Kind: "Latest"}
	doc, err := s.latest(ctx, ticker, &entry)
	s.record(ctx, entry, err)
	return doc, err
}

func (s *FilingService) latest(ctx context.Context, ticker string, entry *RequestLogEntry) (*Document, error) {
	company, err := s.Company(ticker)
	if err != nil {
		return nil, err
	}
	entry.CIK, _ = company.PaddedCIK()

	loc, err := s.Locator(ctx, company)
	if err != nil {
		return nil, err
	}
	ref, period, err := loc.Latest()
	if err != nil {
		if errors.Is(err, edgar.ErrNotFound) {
			return nil, fmt.Errorf("no recent filing found for %s: %w", company.Ticker, err)
		}
		return nil, err
	}
	entry.Accession = ref.Accession
	entry.Year, entry.Quarter = period.Year, period.Quarter
	return s.fetch(ctx, company, ref, period)
}

func (s *FilingService) fetch(ctx context.Context, company edgar.CompanyIdentity, ref edgar.FilingReference, period edgar.Period) (*Document, error) {
	text, err := s.text(ctx, ref)
	if err != nil {
		return nil, err
	}

	s.logger.Info("filing retrieved",
		zap.String("ticker", company.Ticker),
		zap.String("period", period.String()),
		zap.String("accession", ref.Accession),
		zap.Int("chars", len(text)))

	return &Document{
		Company:   company,
		Reference: ref,
		Period:    period,
		Form:      ref.Form.String(),
		URL:       s.client.DocumentURL(ref),
		Text:      text,
	}, nil
}

func (s *FilingService) text(ctx context.Context, ref edgar.FilingReference) (string, error) {
	raw, err := s.client.FetchDocument(ctx, ref)
	if err != nil {
		return "", err
	}
	text, err := edgar.Extract(string(raw), s.format)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", ref.Document, err)
	}
	return text, nil
}

func (s *FilingService) record(ctx context.Context, entry RequestLogEntry, err error) {
	if s.requests == nil {
		return
	}
	entry.CreatedAt = time.Now().UTC()
	switch {
	case err == nil:
		entry.Outcome = "found"
	case errors.Is(err, edgar.ErrNotFound):
		entry.Outcome = "not_found"
		entry.Error = err.Error()
	default:
		entry.Outcome = "error"
		entry.Error = err.Error()
	}
	if logErr := s.requests.RecordRequest(ctx, entry); logErr != nil {
		s.logger.Warn("failed to record filing request", zap.String("id", entry.ID), zap.Error(logErr))
	}
}

func formFor(p edgar.Period) string {
	if p.IsAnnual() {
		return edgar.FormAnnual.String()
	}
	return edgar.FormQuarterly.String()
}
