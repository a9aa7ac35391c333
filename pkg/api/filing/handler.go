// Package filing provides HTTP handlers for company lookup, filing retrieval
// and filing question answering.
package filing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"
	"filing_insight/pkg/core/qa"
	"filing_insight/pkg/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory resolves companies. *edgar.CompanyDirectory implements it.
type Directory interface {
	LookupByTicker(ticker string) (edgar.CompanyIdentity, error)
	LookupByName(name string) (edgar.CompanyIdentity, error)
	Len() int
}

// Filings returns filing documents. *ingest.FilingService implements it.
type Filings interface {
	Get(ctx context.Context, req ingest.FilingRequest) (*ingest.Document, error)
}

// Asker answers questions. *qa.Assistant implements it.
type Asker interface {
	Ask(ctx context.Context, req qa.AskRequest) (*qa.Answer, error)
}

// Handler holds dependencies for filing endpoints
type Handler struct {
	Directory Directory
	Filings   Filings
	Assistant Asker
	Logger    *zap.Logger
}

func NewHandler(dir Directory, filings Filings, assistant Asker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Directory: dir, Filings: filings, Assistant: assistant, Logger: logger}
}

// Register mounts the filing endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/cik", h.HandleCIK)
	mux.HandleFunc("/api/filing", h.HandleFiling)
	mux.HandleFunc("/api/ask", h.HandleAsk)
	mux.HandleFunc("/healthz", h.HandleHealth)
}

// =============================================================================
// RESPONSES
// =============================================================================

type CIKResponse struct {
	CIK       int    `json:"cik"`
	PaddedCIK string `json:"padded_cik"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
}

// AskRequest is the POST /api/ask body. request_type is optional; without it
// the latest filing is used and section is ignored.
type AskRequest struct {
	Ticker     string            `json:"ticker"`
	Question   string            `json:"question"`
	Kind       ingest.FilingKind `json:"request_type,omitempty"`
	Year       int               `json:"year,omitempty"`
	Quarter    int               `json:"quarter,omitempty"`
	Section    string            `json:"section,omitempty"`
	Structured bool              `json:"structured,omitempty"`
}

type AskResponse struct {
	Answer     string                `json:"answer"`
	AnswerHTML string                `json:"answer_html"`
	Citations  []string              `json:"citations"`
	Reference  edgar.FilingReference `json:"reference"`
	Period     string                `json:"period"`
	URL        string                `json:"url"`
	Truncated  bool                  `json:"truncated,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// HandleCIK handles GET /api/cik?ticker=NVDA or ?name=NVIDIA%20CORP
func (h *Handler) HandleCIK(w http.ResponseWriter, r *http.Request) {
	log, ok := h.begin(w, r, http.MethodGet)
	if !ok {
		return
	}

	var (
		company edgar.CompanyIdentity
		err     error
	)
	q := r.URL.Query()
	switch {
	case q.Get("ticker") != "":
		company, err = h.Directory.LookupByTicker(q.Get("ticker"))
	case q.Get("name") != "":
		company, err = h.Directory.LookupByName(q.Get("name"))
	default:
		h.fail(w, log, http.StatusBadRequest, errors.New("ticker or name query parameter is required"))
		return
	}
	if err != nil {
		h.fail(w, log, statusFor(err), err)
		return
	}

	padded, err := company.PaddedCIK()
	if err != nil {
		h.fail(w, log, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, CIKResponse{CIK: company.CIK, PaddedCIK: padded, Name: company.Name, Ticker: company.Ticker})
}

// HandleFiling handles POST /api/filing
// {"request_type": "Quarter", "ticker": "NVDA", "year": 2025, "quarter": 1}
func (h *Handler) HandleFiling(w http.ResponseWriter, r *http.Request) {
	log, ok := h.begin(w, r, http.MethodPost)
	if !ok {
		return
	}

	var req ingest.FilingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, log, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	log = log.With(zap.String("ticker", req.Ticker), zap.Int("year", req.Year), zap.Int("quarter", req.Quarter))

	start := time.Now()
	doc, err := h.Filings.Get(r.Context(), req)
	if err != nil {
		h.fail(w, log, statusFor(err), err)
		return
	}

	log.Info("filing served",
		zap.String("accession", doc.Reference.Accession),
		zap.Int("text_chars", len(doc.Text)),
		zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, doc)
}

// HandleAsk handles POST /api/ask
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	log, ok := h.begin(w, r, http.MethodPost)
	if !ok {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, log, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	log = log.With(zap.String("ticker", req.Ticker))

	ask := qa.AskRequest{Ticker: req.Ticker, Question: req.Question, Structured: req.Structured}
	if req.Kind != "" {
		ask.Request = &ingest.FilingRequest{Kind: req.Kind, Ticker: req.Ticker, Year: req.Year, Quarter: req.Quarter, Section: req.Section}
	}

	ans, err := h.Assistant.Ask(r.Context(), ask)
	if err != nil {
		h.fail(w, log, statusFor(err), err)
		return
	}

	html, err := utils.RenderMarkdownHTML(ans.Answer)
	if err != nil {
		log.Warn("answer markdown render failed", zap.Error(err))
	}
	citations := ans.Citations
	if citations == nil {
		citations = []string{}
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:     ans.Answer,
		AnswerHTML: html,
		Citations:  citations,
		Reference:  ans.Reference,
		Period:     ans.Period.String(),
		URL:        ans.URL,
		Truncated:  ans.Truncated,
	})
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"companies": h.Directory.Len(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// begin sets CORS headers, answers preflight and enforces the method. It
// returns a request-scoped logger.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request, method string) (*zap.Logger, bool) {
	// Add CORS headers for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", method+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	log := h.Logger.With(zap.String("request_id", requestID), zap.String("path", r.URL.Path))

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return log, false
	}
	if r.Method != method {
		h.fail(w, log, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return log, false
	}
	return log, true
}

func (h *Handler) fail(w http.ResponseWriter, log *zap.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: w.Header().Get("X-Request-ID")})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var upstream *ingest.StatusError
	switch {
	case errors.Is(err, edgar.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, edgar.ErrInvalidQuarter),
		errors.Is(err, edgar.ErrInvalidIdentifier),
		errors.Is(err, ingest.ErrInvalidRequest),
		errors.Is(err, qa.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, edgar.ErrNoAnchorAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, qa.ErrModel), errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
