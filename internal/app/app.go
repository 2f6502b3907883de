// Package app wires the curator's components from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/resource-curator/internal/categorize"
	"github.com/jonathan/resource-curator/internal/config"
	"github.com/jonathan/resource-curator/internal/db"
	"github.com/jonathan/resource-curator/internal/discovery"
	"github.com/jonathan/resource-curator/internal/docstore"
	"github.com/jonathan/resource-curator/internal/fetch"
	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/metadata"
	"github.com/jonathan/resource-curator/internal/pipeline"
	"github.com/jonathan/resource-curator/internal/prompts"
	"github.com/jonathan/resource-curator/internal/queries"
	"github.com/jonathan/resource-curator/internal/runlock"
	"github.com/jonathan/resource-curator/internal/server"
	"github.com/jonathan/resource-curator/internal/server/ratelimit"
	"github.com/jonathan/resource-curator/internal/store"
)

// App holds the process-wide components. Build it once at startup and
// Close it on exit.
type App struct {
	Config *config.Config
	Log    *logging.Logger

	LLM         llm.Client
	Queries     *queries.Generator
	Discoverer  *discovery.Discoverer
	Categorizer *categorize.Categorizer
	Pipeline    *pipeline.Orchestrator

	closers []func() error
}

// New builds the generative client and every pipeline stage.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if err := prompts.Verify(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: logging.OrNop(log)}

	client, err := NewLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.LLM = client
	a.closers = append(a.closers, client.Close)

	searcher, err := NewSearcher(ctx, cfg, client, a.Log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var synthOpts []metadata.Option
	if cfg.Pipeline.FetchPageContext {
		synthOpts = append(synthOpts, metadata.WithPageContext(fetch.DefaultOptions()))
	}
	synth := metadata.NewSynthesizer(client, a.Log, synthOpts...)

	a.Queries = queries.NewGenerator(client, a.Log, cfg.Pipeline.MaxQueries)
	a.Discoverer = discovery.NewDiscoverer(searcher, synth, discovery.NewAllowList(cfg.Search.Domains), a.Log)
	a.Categorizer = categorize.NewCategorizer(client, a.Log)
	a.Pipeline = pipeline.New(a.Queries, a.Discoverer, a.Categorizer, pipeline.Options{
		MaxResultsPerQuery: cfg.Pipeline.MaxResultsPerQuery,
		Pacing:             cfg.Pipeline.Pacing,
		StageTimeout:       cfg.Pipeline.StageTimeout,
	}, a.Log)

	return a, nil
}

// NewLLMClient creates the client for cfg.LLM.Provider.
func NewLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	llmCfg := LLMConfig(cfg)
	apiKey := cfg.APIKey()
	if llmCfg.Provider != llm.ProviderVertex && apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is required", apiKeyVar(llmCfg.Provider))
	}

	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// LLMConfig translates the llm section into an llm.Config.
func LLMConfig(cfg *config.Config) *llm.Config {
	out := llm.ConfigFor(llm.Provider(cfg.LLM.Provider))
	if cfg.LLM.Model != "" {
		out = out.WithModel(cfg.LLM.Model)
	}
	if cfg.LLM.Temperature > 0 {
		out.Temperature = cfg.LLM.Temperature
	}
	if cfg.LLM.CallTimeout > 0 {
		out.Timeout = cfg.LLM.CallTimeout
	}
	out.BaseURL = cfg.LLM.BaseURL
	out.ProjectID = cfg.LLM.ProjectID
	if cfg.LLM.Region != "" {
		out.Region = cfg.LLM.Region
	}
	return out
}

func apiKeyVar(p llm.Provider) string {
	if p == llm.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// NewSearcher creates the tier-1 search backend.
func NewSearcher(ctx context.Context, cfg *config.Config, client llm.Client, log *logging.Logger) (discovery.Searcher, error) {
	domains := cfg.Search.Domains
	if len(domains) == 0 {
		domains = discovery.DefaultDomains
	}

	switch cfg.Search.Backend {
	case config.SearchCustomSearch:
		s, err := discovery.NewCustomSearcher(ctx, cfg.Search.GoogleAPIKey, cfg.Search.EngineID, domains)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SearchLLM:
		return discovery.NewLLMSearcher(client, domains), nil
	case config.SearchHTML, "":
		var renderer fetch.Renderer
		if cfg.Search.UseBrowser {
			renderer = fetch.NewBrowser(log)
		}
		s := discovery.NewHTMLSearcher(domains, renderer, log)
		if cfg.Search.HTMLEndpoint != "" {
			s.Endpoint = cfg.Search.HTMLEndpoint
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// OpenStore connects the configured persistence backend. Postgres is
// migrated before use.
func (a *App) OpenStore(ctx context.Context) (store.Store, error) {
	var s store.Store
	switch a.Config.Store.Backend {
	case config.StorePostgres:
		database, err := db.Connect(ctx, a.Config.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		s = database
	case config.StoreFirestore:
		fs, err := docstore.New(ctx, a.Config.Store.FirestoreProject)
		if err != nil {
			return nil, err
		}
		s = fs
	case config.StoreMemory, "":
		s = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
	}

	a.closers = append(a.closers, s.Close)
	a.Log.Info("[STORE] Opened store", "backend", a.Config.Store.Backend)
	return s, nil
}

// OpenLocker returns the shared Redis lock when a Redis URL is configured,
// the in-process lock otherwise.
func (a *App) OpenLocker(ctx context.Context) (runlock.Locker, error) {
	if a.Config.RedisURL == "" {
		return runlock.NewLocal(), nil
	}
	client, err := runlock.Dial(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return runlock.NewRedis(client, "", 0, a.Log), nil
}

// Limiter returns the request limiter, or nil when rate limiting is disabled.
func (a *App) Limiter() *ratelimit.Limiter {
	sc := a.Config.Server
	if sc.RateLimit <= 0 {
		return nil
	}
	return ratelimit.NewLimiter(ratelimit.NewConfig(sc.RateLimit, sc.RateBurst, sc.GenerateLimit, sc.GenerateBurst))
}

// Server assembles the HTTP API on top of the pipeline.
func (a *App) Server(ctx context.Context) (*server.Server, error) {
	st, err := a.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	locker, err := a.OpenLocker(ctx)
	if err != nil {
		return nil, err
	}

	sc := a.Config.Server
	return server.New(server.Config{
		Host:          sc.Host,
		Port:          sc.Port,
		PortRetries:   sc.PortRetries,
		ShutdownGrace: sc.ShutdownGrace,
		Database:      a.Config.Store.Backend,
	}, server.Deps{
		Store:   st,
		Runner:  a.Pipeline,
		Locker:  locker,
		Limiter: a.Limiter(),
		Log:     a.Log,
	})
}

// Close releases everything the App opened, most recent first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
