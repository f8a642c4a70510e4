package engine

import (
	"fmt"
	"os"

	"github.com/germanamz/nbask/pkg/render"
	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	AskDir      string           `yaml:"-"` // Set by CLI, not from YAML.
	Providers   []ProviderConfig `yaml:"providers"`
	Defaults    DefaultsConfig   `yaml:"defaults"`
	SecretsFile string           `yaml:"secrets_file"`
	Context     ContextConfig    `yaml:"context"`
	Render      RenderConfig     `yaml:"render"`
}

// ProviderConfig describes an LLM provider endpoint. Models are chosen per
// session, so the provider itself carries no model name.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultsConfig seeds new sessions when the environment does not.
type DefaultsConfig struct {
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

// ContextConfig controls notebook context assembly.
type ContextConfig struct {
	StrictCellID          bool `yaml:"strict_cell_id"`
	IncludeExecuteResults bool `yaml:"include_execute_results"`
}

// RenderConfig controls answer rendering.
type RenderConfig struct {
	Highlight string `yaml:"highlight"` // "prism" (default) or "chroma".
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can stay in the environment (e.g. loaded from a
// .env file) rather than in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent. An empty
// provider list is valid: the built-in kinds are then used with their default
// endpoints.
func (c Config) Validate() error {
	providerNames := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("engine: config: provider name is required")
		}
		if p.Kind == "" {
			return fmt.Errorf("engine: config: provider %q: kind is required", p.Name)
		}
		if _, ok := getFactory(p.Kind); !ok {
			return fmt.Errorf("engine: config: provider %q: %w %q", p.Name, ErrUnknownProvider, p.Kind)
		}
		if _, dup := providerNames[p.Name]; dup {
			return fmt.Errorf("engine: config: duplicate provider name %q", p.Name)
		}
		if p.MaxTokens < 0 {
			return fmt.Errorf("engine: config: provider %q: max_tokens must not be negative", p.Name)
		}
		providerNames[p.Name] = struct{}{}
	}

	if _, err := render.ParseHighlight(c.Render.Highlight); err != nil {
		return fmt.Errorf("engine: config: %w", err)
	}

	return nil
}
