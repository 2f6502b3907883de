// Package llm provides the generative-capability clients used by the curator pipeline.
// Every pipeline stage depends on the Client interface only; the concrete
// provider is chosen once at process start.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short, high-volume calls: query lists, URL suggestions.
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: resource metadata, categorization.
	TierStandard ModelTier = "standard"
)

// Provider represents an LLM provider
type Provider string

// Supported providers.
const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderVertex Provider = "vertex"
)

// DefaultCallTimeout bounds every generative call.
const DefaultCallTimeout = 30 * time.Second

// Config holds provider selection and per-tier model names.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	// Temperature applied to every call. Low values keep structured output stable.
	Temperature float32
	// Timeout bounds a single call; a timeout is reported like any other failure.
	Timeout time.Duration

	// BaseURL overrides the OpenAI endpoint (OpenAI-compatible gateways).
	BaseURL string
	// ProjectID and Region select the Vertex AI deployment.
	ProjectID string
	Region    string
}

// DefaultConfig returns the default configuration (Gemini).
func DefaultConfig() *Config {
	return ConfigFor(ProviderGemini)
}

// ConfigFor returns the default model set for a provider.
func ConfigFor(p Provider) *Config {
	cfg := &Config{
		Provider:    p,
		Temperature: 0.1,
		Timeout:     DefaultCallTimeout,
	}
	switch p {
	case ProviderOpenAI:
		cfg.Models = map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
		}
	case ProviderVertex:
		cfg.Region = "us-central1"
		cfg.Models = map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		}
	default:
		cfg.Provider = ProviderGemini
		cfg.Models = map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		}
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with model set for every tier.
// Used when a single model name is configured explicitly.
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Models = map[ModelTier]string{
		TierLite:     model,
		TierStandard: model,
	}
	return &out
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultCallTimeout
	}
	return c.Timeout
}
