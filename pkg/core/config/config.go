// Package config loads filing_insight settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"filing_insight/pkg/core/agent"
	"filing_insight/pkg/core/edgar"
	"filing_insight/pkg/core/ingest"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "config/filing_insight.yaml"

type Config struct {
	SEC     SECConfig     `yaml:"sec"`
	Store   StoreConfig   `yaml:"store"`
	LLM     agent.Config  `yaml:"llm"`
	QA      QAConfig      `yaml:"qa"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type SECConfig struct {
	UserAgent         string  `yaml:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	SubmissionsURL    string  `yaml:"submissions_url"`
	ArchivesURL       string  `yaml:"archives_url"`
	RegistryURL       string  `yaml:"registry_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	TextFormat        string  `yaml:"text_format"` // "text" or "markdown"
}

// StoreConfig selects Postgres when DatabaseURL is set, files otherwise.
type StoreConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	DataDir        string `yaml:"data_dir"`
	RequestLogFile string `yaml:"request_log_file"`
}

type QAConfig struct {
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
	MaxContextChars int     `yaml:"max_context_chars"`
	SystemPrompt    string  `yaml:"system_prompt"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Defaults returns a configuration that works against live SEC endpoints.
func Defaults() Config {
	return Config{
		SEC: SECConfig{
			UserAgent:         ingest.DefaultUserAgent,
			RequestsPerSecond: ingest.DefaultRequestsPerSecond,
			SubmissionsURL:    ingest.SECSubmissionsURL,
			ArchivesURL:       edgar.ArchivesBaseURL,
			RegistryURL:       ingest.SECRegistryURL,
			TimeoutSeconds:    30,
			TextFormat:        "text",
		},
		Store: StoreConfig{
			DataDir:        "data",
			RequestLogFile: "data/filing_requests.jsonl",
		},
		LLM: agent.Config{
			ActiveProvider: "claude",
			Agents: map[string]agent.AgentConfig{
				agent.AgentQA: {Description: "Answers questions about one filing"},
			},
		},
		QA: QAConfig{
			MaxTokens:       500,
			Temperature:     0.7,
			MaxContextChars: 400000,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads .env, then the YAML file at path over Defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SEC_USER_AGENT"); v != "" {
		c.SEC.UserAgent = v
	}
	if v := os.Getenv("SEC_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SEC_REQUESTS_PER_SECOND: %w", err)
		}
		c.SEC.RequestsPerSecond = rps
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("FILING_INSIGHT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.ActiveProvider = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		return errors.New("sec.user_agent is required")
	}
	if c.SEC.RequestsPerSecond <= 0 {
		return fmt.Errorf("sec.requests_per_second must be positive, got %v", c.SEC.RequestsPerSecond)
	}
	if _, err := edgar.ParseTextFormat(c.SEC.TextFormat); err != nil {
		return fmt.Errorf("sec.text_format: %w", err)
	}
	if !isBuiltinProvider(c.LLM.ActiveProvider) {
		return fmt.Errorf("llm.active_provider %q is not one of %v", c.LLM.ActiveProvider, agent.BuiltinProviders)
	}
	for name, a := range c.LLM.Agents {
		if a.Provider != "" && !isBuiltinProvider(a.Provider) {
			return fmt.Errorf("llm.agents.%s.provider %q is not one of %v", name, a.Provider, agent.BuiltinProviders)
		}
	}
	if c.QA.MaxTokens <= 0 {
		return fmt.Errorf("qa.max_tokens must be positive, got %d", c.QA.MaxTokens)
	}
	return nil
}

func isBuiltinProvider(name string) bool {
	for _, p := range agent.BuiltinProviders {
		if p == name {
			return true
		}
	}
	return false
}
