package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct {
	name       string
	lastSystem string
}

func (p *echoProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	p.lastSystem = systemPrompt
	return p.name + ":" + prompt, nil
}

func (p *echoProvider) AdaptInstructions(raw string) string { return "[" + p.name + "] " + raw }

func TestManager_GetProvider(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "alpha",
		Agents: map[string]AgentConfig{
			AgentQA:   {Provider: "beta"},
			"summary": {Provider: "missing"},
		},
	}, nil)
	m.Register("alpha", &echoProvider{name: "alpha"})
	m.Register("beta", &echoProvider{name: "beta"})

	tests := []struct {
		agent string
		want  string
	}{
		{AgentQA, "beta"},
		{"summary", "alpha"},
		{"unknown", "alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.agent, func(t *testing.T) {
			_, name, err := m.GetProvider(tt.agent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestManager_ExecutePrompt(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "alpha"}, nil)
	alpha := &echoProvider{name: "alpha"}
	m.Register("alpha", alpha)

	out, err := m.ExecutePrompt(context.Background(), AgentQA, "question", "be brief", nil)
	require.NoError(t, err)
	assert.Equal(t, "alpha:question", out)
	assert.Equal(t, "[alpha] be brief", alpha.lastSystem)
}

func TestManager_SetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "claude"}, nil)
	assert.Equal(t, []string{"claude", "deepseek", "gemini"}, m.Available())

	require.NoError(t, m.SetGlobalProvider("gemini"))
	assert.Equal(t, "gemini", m.GetActiveProvider())

	assert.Error(t, m.SetGlobalProvider("qwen"))
	assert.Equal(t, "gemini", m.GetActiveProvider())
}

func TestManager_NoActiveProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "nope"}, nil)
	_, _, err := m.GetProvider(AgentQA)
	assert.Error(t, err)
	assert.Nil(t, m.GetProviderByName("nope"))
	assert.NotNil(t, m.GetProviderByName("claude"))
}
