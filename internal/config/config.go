// Package config provides configuration loading and validation for the
// curator CLI and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override: CURATOR_SEARCH_BACKEND etc.
const EnvPrefix = "CURATOR"

// Supported backends.
const (
	SearchHTML         = "html"
	SearchCustomSearch = "customsearch"
	SearchLLM          = "llm"

	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

// Config represents the full runtime configuration.
// Values come from defaults, then an optional YAML/JSON file, then the environment.
type Config struct {
	LogMode string `mapstructure:"log_mode"` // "dev" or "prod"

	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`

	RedisURL string `mapstructure:"redis_url"` // enables the shared run lock

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// LLMConfig selects the generative provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // gemini, openai, vertex
	Model       string        `mapstructure:"model"`    // overrides every tier when set
	Temperature float32       `mapstructure:"temperature"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	BaseURL     string        `mapstructure:"base_url"` // OpenAI-compatible gateway
	ProjectID   string        `mapstructure:"project_id"`
	Region      string        `mapstructure:"region"`
}

// SearchConfig selects the tier-1 search backend.
type SearchConfig struct {
	Backend      string   `mapstructure:"backend"`
	HTMLEndpoint string   `mapstructure:"html_endpoint"`
	UseBrowser   bool     `mapstructure:"use_browser"` // render JS-heavy result pages with Chrome
	GoogleAPIKey string   `mapstructure:"google_api_key"`
	EngineID     string   `mapstructure:"engine_id"` // Programmable Search "cx"
	Domains      []string `mapstructure:"domains"`   // empty means the built-in allow-list
}

// PipelineConfig bounds one pipeline run.
type PipelineConfig struct {
	MaxQueries         int           `mapstructure:"max_queries"`
	MaxResultsPerQuery int           `mapstructure:"max_results_per_query"`
	Pacing             time.Duration `mapstructure:"pacing"`
	StageTimeout       time.Duration `mapstructure:"stage_timeout"`
	FetchPageContext   bool          `mapstructure:"fetch_page_context"` // fetch pages before metadata synthesis
}

// StoreConfig selects persistence.
type StoreConfig struct {
	Backend          string `mapstructure:"backend"`
	DatabaseURL      string `mapstructure:"database_url"`
	FirestoreProject string `mapstructure:"firestore_project"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	PortRetries   int           `mapstructure:"port_retries"`
	RateLimit     int           `mapstructure:"rate_limit"` // requests per minute per client, 0 disables
	RateBurst     int           `mapstructure:"rate_burst"`
	GenerateLimit int           `mapstructure:"generate_limit"` // pipeline runs per hour per client
	GenerateBurst int           `mapstructure:"generate_burst"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_mode", "dev")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.call_timeout", 30*time.Second)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.project_id", "")
	v.SetDefault("llm.region", "us-central1")

	v.SetDefault("search.backend", SearchHTML)
	v.SetDefault("search.html_endpoint", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.use_browser", false)
	v.SetDefault("search.google_api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.domains", []string{})

	v.SetDefault("pipeline.max_queries", 15)
	v.SetDefault("pipeline.max_results_per_query", 3)
	v.SetDefault("pipeline.pacing", 500*time.Millisecond)
	v.SetDefault("pipeline.stage_timeout", 2*time.Minute)
	v.SetDefault("pipeline.fetch_page_context", false)

	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.firestore_project", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.port_retries", 5)
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.generate_limit", 10)
	v.SetDefault("server.generate_burst", 2)
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("redis_url", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
}

// bareEnv lists well-known variables read without the CURATOR_ prefix.
var bareEnv = map[string]string{
	"gemini_api_key":          "GEMINI_API_KEY",
	"openai_api_key":          "OPENAI_API_KEY",
	"store.database_url":      "DATABASE_URL",
	"redis_url":               "REDIS_URL",
	"server.port":             "PORT",
	"search.google_api_key":   "GOOGLE_SEARCH_API_KEY",
	"search.engine_id":        "GOOGLE_SEARCH_ENGINE_ID",
	"store.firestore_project": "GOOGLE_CLOUD_PROJECT",
	"llm.project_id":          "GOOGLE_CLOUD_PROJECT",
}

// Load reads configuration. path may be empty, in which case ./curator.yaml
// is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("curator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, bare := range bareEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, bare); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", bare, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// APIKey returns the key for the configured provider. Vertex uses
// application default credentials and has none.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case "openai":
		return c.OpenAIAPIKey
	case "vertex":
		return ""
	default:
		return c.GeminiAPIKey
	}
}

// Validate checks that the configuration has valid values.
// Credentials are checked where they are used so offline commands still work.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "vertex":
	default:
		return fmt.Errorf("config error: unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "vertex" && c.LLM.ProjectID == "" {
		return fmt.Errorf("config error: 'llm.project_id' is required for vertex")
	}
	if c.LLM.CallTimeout < 0 {
		return fmt.Errorf("config error: 'llm.call_timeout' must be non-negative")
	}

	switch c.Search.Backend {
	case SearchHTML, SearchLLM:
	case SearchCustomSearch:
		if c.Search.GoogleAPIKey == "" || c.Search.EngineID == "" {
			return fmt.Errorf("config error: 'search.google_api_key' and 'search.engine_id' are required for customsearch")
		}
	default:
		return fmt.Errorf("config error: unknown search.backend %q", c.Search.Backend)
	}

	if c.Pipeline.MaxQueries <= 0 {
		return fmt.Errorf("config error: 'pipeline.max_queries' must be positive")
	}
	if c.Pipeline.MaxResultsPerQuery <= 0 {
		return fmt.Errorf("config error: 'pipeline.max_results_per_query' must be positive")
	}
	if c.Pipeline.Pacing < 0 {
		return fmt.Errorf("config error: 'pipeline.pacing' must be non-negative")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' is required for postgres")
		}
	case StoreFirestore:
		if c.Store.FirestoreProject == "" {
			return fmt.Errorf("config error: 'store.firestore_project' is required for firestore")
		}
	default:
		return fmt.Errorf("config error: unknown store.backend %q", c.Store.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if c.Server.PortRetries < 0 {
		return fmt.Errorf("config error: 'server.port_retries' must be non-negative")
	}
	if c.Server.RateLimit < 0 || c.Server.GenerateLimit < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}

	return nil
}
