package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/germanamz/nbask/pkg/modeladapter"
	"github.com/germanamz/nbask/pkg/providers/anthropic"
	"github.com/germanamz/nbask/pkg/providers/gemini"
	"github.com/germanamz/nbask/pkg/providers/grok"
	"github.com/germanamz/nbask/pkg/providers/openai"
)

// ErrUnknownProvider is returned when a model cannot be routed to a provider.
var ErrUnknownProvider = errors.New("unknown provider")

// Built-in provider kinds.
const (
	KindAnthropic = "anthropic"
	KindOpenAI    = "openai"
	KindGemini    = "gemini"
	KindGrok      = "grok"
)

// APIKeyEnv maps each built-in kind to the environment variable holding its
// API key when the provider config sets none.
var APIKeyEnv = map[string]string{
	KindAnthropic: "ANTHROPIC_API_KEY",
	KindOpenAI:    "OPENAI_API_KEY",
	KindGemini:    "GEMINI_API_KEY",
	KindGrok:      "XAI_API_KEY",
}

// ProviderFactory creates a Streamer for model from a ProviderConfig.
type ProviderFactory func(cfg ProviderConfig, model string) (modeladapter.Streamer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factoryMu.Lock()
		defer factoryMu.Unlock()

		factories[KindAnthropic] = newAnthropic
		factories[KindOpenAI] = newOpenAI
		factories[KindGemini] = newGemini
		factories[KindGrok] = newGrok
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func applyTuning(a *modeladapter.ModelAdapter, cfg ProviderConfig) {
	if cfg.MaxTokens > 0 {
		a.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature != 0 {
		a.Temperature = cfg.Temperature
	}
}

func newAnthropic(cfg ProviderConfig, model string) (modeladapter.Streamer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	a := anthropic.New(baseURL, cfg.APIKey, model)
	applyTuning(&a.ModelAdapter, cfg)

	return a, nil
}

func newOpenAI(cfg ProviderConfig, model string) (modeladapter.Streamer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	a := openai.New(baseURL, cfg.APIKey, model)
	applyTuning(&a.ModelAdapter, cfg)

	return a, nil
}

func newGemini(cfg ProviderConfig, model string) (modeladapter.Streamer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	a := gemini.New(baseURL, cfg.APIKey, model)
	applyTuning(&a.ModelAdapter, cfg)

	return a, nil
}

func newGrok(cfg ProviderConfig, model string) (modeladapter.Streamer, error) {
	a := grok.New(cfg.BaseURL, cfg.APIKey, model)
	applyTuning(&a.ModelAdapter, cfg)

	return a, nil
}

// Route is a resolved model: the provider to call and the model name to send.
type Route struct {
	Provider ProviderConfig
	Model    string
}

// InferKind guesses the provider kind from a model name. It returns "" when
// the name matches no known family.
func InferKind(model string) string {
	m := strings.ToLower(model)

	switch {
	case strings.HasPrefix(m, "claude"):
		return KindAnthropic
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "chatgpt"),
		strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return KindOpenAI
	case strings.HasPrefix(m, "gemini"):
		return KindGemini
	case strings.HasPrefix(m, "grok"):
		return KindGrok
	default:
		return ""
	}
}

// ResolveModel routes a model identifier to a provider. "<name>/<model>"
// selects a configured provider by name, "<kind>/<model>" a provider kind;
// otherwise the kind is inferred from the model name. For a kind, the first
// configured provider of that kind is used, or a default one.
func (c Config) ResolveModel(model string) (Route, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Route{}, fmt.Errorf("engine: %w: empty model", ErrUnknownProvider)
	}

	if prefix, rest, ok := strings.Cut(model, "/"); ok && rest != "" {
		for _, p := range c.Providers {
			if p.Name == prefix {
				return Route{Provider: p, Model: rest}, nil
			}
		}
		if _, known := getFactory(prefix); known {
			return Route{Provider: c.providerForKind(prefix), Model: rest}, nil
		}
	}

	kind := InferKind(model)
	if kind == "" {
		return Route{}, fmt.Errorf("engine: %w for model %q (use <provider>/<model>)", ErrUnknownProvider, model)
	}

	return Route{Provider: c.providerForKind(kind), Model: model}, nil
}

func (c Config) providerForKind(kind string) ProviderConfig {
	for _, p := range c.Providers {
		if p.Kind == kind {
			return p
		}
	}
	return ProviderConfig{Name: kind, Kind: kind}
}

// buildStreamer creates a Streamer for the route, filling a missing API key
// from the kind's environment variable via getenv.
func buildStreamer(r Route, getenv func(string) string) (modeladapter.Streamer, error) {
	factory, ok := getFactory(r.Provider.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: %w kind %q", ErrUnknownProvider, r.Provider.Kind)
	}

	cfg := r.Provider
	if cfg.APIKey == "" {
		if env, ok := APIKeyEnv[cfg.Kind]; ok {
			cfg.APIKey = getenv(env)
		}
	}

	s, err := factory(cfg, r.Model)
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: %w", cfg.Name, err)
	}

	return s, nil
}
