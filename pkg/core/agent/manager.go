package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"filing_insight/pkg/core/llm"

	"go.uber.org/zap"
)

// AgentQA is the agent type used for filing question answering.
const AgentQA = "qa"

type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Agents         map[string]AgentConfig    `yaml:"agents"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

// ProviderConfig tunes one built-in provider.
type ProviderConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// BuiltinProviders lists the providers NewManager registers.
var BuiltinProviders = []string{"claude", "deepseek", "gemini"}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	logger    *zap.Logger
}

func NewManager(config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	pc := func(name string) ProviderConfig { return config.Providers[name] }
	return &Manager{
		config: config,
		logger: logger,
		providers: map[string]llm.Provider{
			"claude":   &llm.ClaudeProvider{Model: pc("claude").Model, BaseURL: pc("claude").BaseURL},
			"gemini":   &llm.GeminiProvider{Model: pc("gemini").Model},
			"deepseek": &llm.DeepSeekProvider{Model: pc("deepseek").Model, BaseURL: pc("deepseek").BaseURL},
		},
	}
}

// Register adds or replaces a provider under name.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// GetProvider resolves the provider for an agent type: the agent's own
// override first, then the global active provider.
func (m *Manager) GetProvider(agentType string) (llm.Provider, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, agentConfig.Provider, nil
		}
		m.logger.Warn("agent provider override not registered, using active provider",
			zap.String("agent", agentType), zap.String("provider", agentConfig.Provider))
	}

	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p, m.config.ActiveProvider, nil
	}
	return nil, "", fmt.Errorf("no provider registered as %q", m.config.ActiveProvider)
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider, name, err := m.GetProvider(agentType)
	if err != nil {
		return "", err
	}

	m.logger.Debug("executing prompt",
		zap.String("agent", agentType),
		zap.String("provider", name),
		zap.Int("prompt_chars", len(rawPrompt)))

	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)
	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider switched", zap.String("provider", newProvider))
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Available lists registered provider names, sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
