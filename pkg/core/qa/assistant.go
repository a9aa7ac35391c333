// Package qa answers questions about a single SEC filing with an LLM.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"filing_insight/pkg/core/agent"
	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"
	"filing_insight/pkg/core/llm"
	"filing_insight/pkg/core/utils"

	"go.uber.org/zap"
)

var (
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question is required")
	// ErrModel wraps failures from the language model.
	ErrModel = errors.New("model call failed")
)

const structuredInstructions = `Answer strictly from the filing text provided.
Respond with a single JSON object and nothing else:
{"answer": "<answer in Markdown>", "citations": ["<short quote or section heading from the filing>", ...]}`

// FilingSource supplies filing text. *ingest.FilingService implements it.
type FilingSource interface {
	Get(ctx context.Context, req ingest.FilingRequest) (*ingest.Document, error)
	Latest(ctx context.Context, ticker string) (*ingest.Document, error)
}

// PromptRunner sends a prompt to the model behind an agent type.
// *agent.Manager implements it.
type PromptRunner interface {
	ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// Options tune the model call.
type Options struct {
	MaxTokens       int
	Temperature     float64
	MaxContextChars int // 0 means no limit
	SystemPrompt    string
}

// DefaultOptions matches the generation settings the service shipped with.
func DefaultOptions() Options {
	return Options{MaxTokens: 500, Temperature: 0.7}
}

// AskRequest is one question. A nil Request means the latest filing for Ticker.
type AskRequest struct {
	Ticker     string
	Question   string
	Request    *ingest.FilingRequest
	Structured bool
}

// Answer is the model's reply and the filing it was grounded on.
type Answer struct {
	Answer    string                `json:"answer"`
	Citations []string              `json:"citations,omitempty"`
	Reference edgar.FilingReference `json:"reference"`
	Period    edgar.Period          `json:"period"`
	URL       string                `json:"url"`
	Truncated bool                  `json:"truncated,omitempty"`
}

type Assistant struct {
	filings FilingSource
	runner  PromptRunner
	opts    Options
	logger  *zap.Logger
}

func NewAssistant(filings FilingSource, runner PromptRunner, opts Options, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultOptions().MaxTokens
	}
	return &Assistant{filings: filings, runner: runner, opts: opts, logger: logger}
}

// BuildPrompt places the question ahead of the filing text.
func BuildPrompt(question, filingText string) string {
	return fmt.Sprintf("Using the information below. %s\n\n%s", question, filingText)
}

// Ask resolves the filing, prompts the model and returns its answer.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	doc, err := a.document(ctx, req)
	if err != nil {
		return nil, err
	}

	filingText, truncated := truncate(doc.Text, a.opts.MaxContextChars)
	if truncated {
		a.logger.Info("filing text truncated for prompt",
			zap.String("accession", doc.Reference.Accession),
			zap.Int("chars", len(doc.Text)),
			zap.Int("limit", a.opts.MaxContextChars))
	}

	system := a.opts.SystemPrompt
	options := map[string]interface{}{
		llm.OptMaxTokens:   a.opts.MaxTokens,
		llm.OptTemperature: a.opts.Temperature,
	}
	if req.Structured {
		system = strings.TrimSpace(system + "\n\n" + structuredInstructions)
		options[llm.OptJSON] = true
	}

	raw, err := a.runner.ExecutePrompt(ctx, agent.AgentQA, BuildPrompt(question, filingText), system, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModel, err)
	}

	ans := &Answer{
		Reference: doc.Reference,
		Period:    doc.Period,
		URL:       doc.URL,
		Truncated: truncated,
	}
	if req.Structured {
		ans.Answer, ans.Citations = a.parseStructured(raw)
	} else {
		ans.Answer = utils.CleanMarkdown(raw)
	}

	a.logger.Info("question answered",
		zap.String("ticker", doc.Company.Ticker),
		zap.String("period", doc.Period.String()),
		zap.Int("answer_chars", len(ans.Answer)))
	return ans, nil
}

func (a *Assistant) document(ctx context.Context, req AskRequest) (*ingest.Document, error) {
	if req.Request == nil {
		if strings.TrimSpace(req.Ticker) == "" {
			return nil, fmt.Errorf("%w: ticker is required", ingest.ErrInvalidRequest)
		}
		return a.filings.Latest(ctx, req.Ticker)
	}
	fr := *req.Request
	if fr.Ticker == "" {
		fr.Ticker = req.Ticker
	}
	return a.filings.Get(ctx, fr)
}

// parseStructured falls back to the raw reply when it is not the requested JSON.
func (a *Assistant) parseStructured(raw string) (string, []string) {
	var parsed struct {
		Answer    string   `json:"answer"`
		Citations []string `json:"citations"`
	}
	if _, err := utils.SmartParse(utils.StripCodeFence(raw), &parsed); err != nil || parsed.Answer == "" {
		a.logger.Warn("structured answer not parseable, returning raw text", zap.Error(err))
		return utils.CleanMarkdown(raw), nil
	}
	return parsed.Answer, parsed.Citations
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n], true
}
