package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SEC_USER_AGENT", "SEC_REQUESTS_PER_SECOND", "DATABASE_URL", "FILING_INSIGHT_ADDR", "LLM_PROVIDER", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filing_insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 500, cfg.QA.MaxTokens)
	assert.InDelta(t, 0.7, cfg.QA.Temperature, 1e-9)
	assert.Equal(t, "claude", cfg.LLM.ActiveProvider)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
sec:
  user_agent: "Acme Research ops@acme.test"
qa:
  max_tokens: 800
llm:
  active_provider: gemini
  providers:
    gemini:
      model: gemini-2.5-pro
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme Research ops@acme.test", cfg.SEC.UserAgent)
	assert.Equal(t, 800, cfg.QA.MaxTokens)
	assert.InDelta(t, 0.7, cfg.QA.Temperature, 1e-9, "unset keys keep defaults")
	assert.Equal(t, float64(10), cfg.SEC.RequestsPerSecond)
	assert.Equal(t, "gemini", cfg.LLM.ActiveProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Providers["gemini"].Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEC_USER_AGENT", "Env Agent env@example.com")
	t.Setenv("DATABASE_URL", "postgres://localhost/fi")
	t.Setenv("FILING_INSIGHT_ADDR", ":9090")
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEC_REQUESTS_PER_SECOND", "5")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":7070\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Env Agent env@example.com", cfg.SEC.UserAgent)
	assert.Equal(t, "postgres://localhost/fi", cfg.Store.DatabaseURL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "deepseek", cfg.LLM.ActiveProvider)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, float64(5), cfg.SEC.RequestsPerSecond)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"bad yaml", "sec: [unclosed", nil},
		{"bad rate env", "", map[string]string{"SEC_REQUESTS_PER_SECOND": "fast"}},
		{"unknown provider", "llm:\n  active_provider: qwen\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty user agent", func(c *Config) { c.SEC.UserAgent = "  " }, "user_agent"},
		{"zero rate", func(c *Config) { c.SEC.RequestsPerSecond = 0 }, "requests_per_second"},
		{"bad format", func(c *Config) { c.SEC.TextFormat = "pdf" }, "text_format"},
		{"unknown active provider", func(c *Config) { c.LLM.ActiveProvider = "openai" }, "active_provider"},
		{"unknown agent override", func(c *Config) {
			a := c.LLM.Agents["qa"]
			a.Provider = "kimi"
			c.LLM.Agents["qa"] = a
		}, "llm.agents.qa.provider"},
		{"zero max tokens", func(c *Config) { c.QA.MaxTokens = 0 }, "max_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
