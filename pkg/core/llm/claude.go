package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider implements the Provider interface for Anthropic's Claude models.
type ClaudeProvider struct {
	Model   string // e.g. "claude-sonnet-4-20250514"
	APIKey  string // falls back to ANTHROPIC_API_KEY
	BaseURL string // optional, for proxies
}

var _ Provider = (*ClaudeProvider)(nil)

// GenerateResponse sends a single-turn Messages request.
func (p *ClaudeProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := stringOption(options, OptAPIKey, p.APIKey)
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("claude: %w (set ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}

	model := p.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	model = stringOption(options, OptModel, model)

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if p.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(intOption(options, OptMaxTokens, 500)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(floatOption(options, OptTemperature, 0.7)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return response.String(), nil
}

func (p *ClaudeProvider) AdaptInstructions(raw string) string {
	return raw
}
