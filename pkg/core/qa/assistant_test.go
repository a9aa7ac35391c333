package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"filing_insight/pkg/core/agent"
	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"
	"filing_insight/pkg/core/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFilings struct {
	doc       *ingest.Document
	err       error
	gotReq    *ingest.FilingRequest
	gotLatest string
}

func (f *fakeFilings) Get(ctx context.Context, req ingest.FilingRequest) (*ingest.Document, error) {
	f.gotReq = &req
	return f.doc, f.err
}

func (f *fakeFilings) Latest(ctx context.Context, ticker string) (*ingest.Document, error) {
	f.gotLatest = ticker
	return f.doc, f.err
}

type fakeRunner struct {
	reply   string
	err     error
	agent   string
	prompt  string
	system  string
	options map[string]interface{}
}

func (r *fakeRunner) ExecutePrompt(ctx context.Context, agentType, prompt, system string, options map[string]interface{}) (string, error) {
	r.agent, r.prompt, r.system, r.options = agentType, prompt, system, options
	return r.reply, r.err
}

func nvdaDoc(text string) *ingest.Document {
	ref := edgar.FilingReference{CIK: "0001045810", Accession: "000104581025000116", Document: "nvda-20250427.htm"}
	return &ingest.Document{
		Company:   edgar.CompanyIdentity{CIK: 1045810, Name: "NVIDIA CORP", Ticker: "NVDA"},
		Reference: ref,
		Period:    edgar.Period{Year: 2026, Quarter: 1},
		Form:      "10-Q",
		URL:       ref.URL(),
		Text:      text,
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("When did Q1 end?", "Quarter ended April 27, 2025")
	assert.Equal(t, "Using the information below. When did Q1 end?\n\nQuarter ended April 27, 2025", got)
}

func TestAsk_ExplicitRequest(t *testing.T) {
	filings := &fakeFilings{doc: nvdaDoc("For the quarter ended April 27, 2025")}
	runner := &fakeRunner{reply: "The quarter ended **April 27, 2025**."}
	a := NewAssistant(filings, runner, DefaultOptions(), nil)

	ans, err := a.Ask(context.Background(), AskRequest{
		Ticker:   "NVDA",
		Question: "  When did the quarter end?  ",
		Request:  &ingest.FilingRequest{Kind: ingest.KindQuarter, Year: 2026, Quarter: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, filings.gotReq)
	assert.Equal(t, "NVDA", filings.gotReq.Ticker, "ticker is filled from the ask request")
	assert.Empty(t, filings.gotLatest)

	assert.Equal(t, agent.AgentQA, runner.agent)
	assert.Equal(t, "Using the information below. When did the quarter end?\n\nFor the quarter ended April 27, 2025", runner.prompt)
	assert.Equal(t, 500, runner.options[llm.OptMaxTokens])
	assert.Equal(t, 0.7, runner.options[llm.OptTemperature])
	assert.NotContains(t, runner.options, llm.OptJSON)

	assert.Equal(t, "The quarter ended **April 27, 2025**.", ans.Answer)
	assert.Equal(t, "000104581025000116", ans.Reference.Accession)
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/1045810/000104581025000116/nvda-20250427.htm", ans.URL)
	assert.False(t, ans.Truncated)
}

func TestAsk_LatestWhenNoRequest(t *testing.T) {
	filings := &fakeFilings{doc: nvdaDoc("text")}
	a := NewAssistant(filings, &fakeRunner{reply: "ok"}, DefaultOptions(), nil)

	_, err := a.Ask(context.Background(), AskRequest{Ticker: "NVDA", Question: "Summarize."})
	require.NoError(t, err)
	assert.Equal(t, "NVDA", filings.gotLatest)
	assert.Nil(t, filings.gotReq)
}

func TestAsk_Structured(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		wantAnswer    string
		wantCitations []string
	}{
		{
			name:          "json",
			reply:         `{"answer": "Revenue was $44.1 billion.", "citations": ["Item 2"]}`,
			wantAnswer:    "Revenue was $44.1 billion.",
			wantCitations: []string{"Item 2"},
		},
		{
			name:          "fenced json with trailing comma",
			reply:         "```json\n{\"answer\": \"Revenue grew.\", \"citations\": [\"Note 2\",]}\n```",
			wantAnswer:    "Revenue grew.",
			wantCitations: []string{"Note 2"},
		},
		{
			name:       "plain text fallback",
			reply:      "Revenue grew strongly.",
			wantAnswer: "Revenue grew strongly.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{reply: tt.reply}
			a := NewAssistant(&fakeFilings{doc: nvdaDoc("text")}, runner, Options{MaxTokens: 500, Temperature: 0.7, SystemPrompt: "You are a filings analyst."}, nil)

			ans, err := a.Ask(context.Background(), AskRequest{Ticker: "NVDA", Question: "Revenue?", Structured: true})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswer, ans.Answer)
			assert.Equal(t, tt.wantCitations, ans.Citations)
			assert.Equal(t, true, runner.options[llm.OptJSON])
			assert.True(t, strings.HasPrefix(runner.system, "You are a filings analyst."))
			assert.Contains(t, runner.system, `"citations"`)
		})
	}
}

func TestAsk_Truncation(t *testing.T) {
	runner := &fakeRunner{reply: "ok"}
	a := NewAssistant(&fakeFilings{doc: nvdaDoc("héllo world")}, runner, Options{MaxTokens: 100, MaxContextChars: 2}, nil)

	ans, err := a.Ask(context.Background(), AskRequest{Ticker: "NVDA", Question: "q"})
	require.NoError(t, err)
	assert.True(t, ans.Truncated)
	// "é" spans bytes 1-2, so a 2-byte cut backs off to "h".
	assert.Equal(t, "Using the information below. q\n\nh", runner.prompt)
}

func TestAsk_Errors(t *testing.T) {
	notFound := errors.Join(errors.New("no recent filing found for ZZZZ"), edgar.ErrNotFound)

	tests := []struct {
		name    string
		req     AskRequest
		filings *fakeFilings
		runner  *fakeRunner
		want    error
	}{
		{"blank question", AskRequest{Ticker: "NVDA", Question: " "}, &fakeFilings{}, &fakeRunner{}, ErrEmptyQuestion},
		{"no ticker", AskRequest{Question: "q"}, &fakeFilings{}, &fakeRunner{}, ingest.ErrInvalidRequest},
		{"filing not found", AskRequest{Ticker: "ZZZZ", Question: "q"}, &fakeFilings{err: notFound}, &fakeRunner{}, edgar.ErrNotFound},
		{"model failure", AskRequest{Ticker: "NVDA", Question: "q"}, &fakeFilings{doc: nvdaDoc("t")}, &fakeRunner{err: errors.New("overloaded")}, ErrModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(tt.filings, tt.runner, DefaultOptions(), nil)
			_, err := a.Ask(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		limit    int
		want     string
		wantTrim bool
	}{
		{"abcdef", 0, "abcdef", false},
		{"abcdef", 10, "abcdef", false},
		{"abcdef", 3, "abc", true},
		{"日本語", 4, "日", true},
	}
	for _, tt := range tests {
		got, trimmed := truncate(tt.in, tt.limit)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantTrim, trimmed)
	}
}
