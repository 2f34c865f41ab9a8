package app

import (
	"context"
	"fmt"

	"github.com/raysh454/linkscout/internal/analyzer"
	"github.com/raysh454/linkscout/internal/competitor"
	"github.com/raysh454/linkscout/internal/enumerator"
	"github.com/raysh454/linkscout/internal/fetcher"
	"github.com/raysh454/linkscout/internal/finder"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/session"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/webclient"
)

// Providers are the external data sources the analyzers read from.
type Providers struct {
	Search    provider.SearchProvider
	Backlinks provider.BacklinkProvider
	Contacts  provider.ContactProvider
	Links     provider.LinkChecker
	Rater     provider.DomainRater
}

// Components are the long-lived services behind the orchestrator.
type Components struct {
	Store       store.Store
	WebClient   webclient.WebClient
	Sessions    *session.Manager
	SERP        *analyzer.Analyzer
	Competitors *competitor.Analyzer
	BrokenLinks *finder.BrokenLinkFinder
	Resources   *finder.ResourcePageFinder
}

// NewComponents opens the configured store, builds the web client and
// providers, and wires the analyzers on top.
func NewComponents(ctx context.Context, cfg *Config, logger logging.Logger) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	st, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	wc, err := webclient.NewWebClient(cfg.webClientConfig(), logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("new webclient: %w", err)
	}

	providers, err := buildProviders(cfg, wc, logger)
	if err != nil {
		st.Close()
		_ = wc.Close()
		return nil, err
	}

	comps, err := NewComponentsWith(cfg, st, providers, logger)
	if err != nil {
		st.Close()
		_ = wc.Close()
		return nil, err
	}
	comps.WebClient = wc
	return comps, nil
}

// NewComponentsWith wires the analyzers over an existing store and providers.
func NewComponentsWith(cfg *Config, st store.Store, p Providers, logger logging.Logger) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	scan := cfg.Scan

	serp, err := analyzer.New(analyzer.Config{
		CallTimeout: scan.CallTimeout.Duration,
		MaxWorkers:  scan.MaxWorkers,
		Scoring:     analyzer.Scoring{Jitter: scan.ScoreJitter, Seed: scan.ScoreSeed},
	}, p.Search, p.Contacts, st, logger)
	if err != nil {
		return nil, fmt.Errorf("new serp analyzer: %w", err)
	}

	comp, err := competitor.New(competitor.Config{
		CallTimeout: scan.CallTimeout.Duration,
		MaxWorkers:  scan.MaxWorkers,
	}, p.Backlinks, st, logger)
	if err != nil {
		return nil, fmt.Errorf("new competitor analyzer: %w", err)
	}

	finderCfg := finder.Config{
		CallTimeout: scan.CallTimeout.Duration,
		MaxQueries:  scan.ResourceMaxQueries,
		MaxWorkers:  scan.MaxWorkers,
	}
	broken, err := finder.NewBrokenLinkFinder(finderCfg, p.Links, p.Rater, logger)
	if err != nil {
		return nil, fmt.Errorf("new broken link finder: %w", err)
	}
	resources, err := finder.NewResourcePageFinder(finderCfg, p.Search, logger)
	if err != nil {
		return nil, fmt.Errorf("new resource page finder: %w", err)
	}

	return &Components{
		Store:       st,
		Sessions:    session.NewManager(st, logger),
		SERP:        serp,
		Competitors: comp,
		BrokenLinks: broken,
		Resources:   resources,
	}, nil
}

// OpenStore opens the store named by cfg.Driver.
func OpenStore(ctx context.Context, cfg StorageConfig, logger logging.Logger) (store.Store, error) {
	switch cfg.Driver {
	case StorageMemory:
		return store.NewMemory(), nil
	case StorageRedis:
		st, err := store.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return st, nil
	case StorageSQLite, "":
		path, err := expandPath(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding storage path: %w", err)
		}
		st, err := store.NewSQLite(path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func buildProviders(cfg *Config, wc webclient.WebClient, logger logging.Logger) (Providers, error) {
	fixture := provider.NewFixture()
	p := Providers{
		Search:    fixture,
		Backlinks: fixture,
		Contacts:  fixture,
		Links:     fixture,
		Rater:     fixture,
	}

	if cfg.Providers.Search == "api" {
		api, err := provider.NewSearchAPI(cfg.Providers.SearchAPI, wc, logger)
		if err != nil {
			return Providers{}, err
		}
		p.Search = api
	}

	if cfg.Providers.Contact != "html" && cfg.Providers.Links != "html" {
		return p, nil
	}
	f, err := fetcher.New(fetcher.Config{
		MaxConcurrency: cfg.WebClient.MaxConcurrency,
		CheckTimeout:   cfg.WebClient.Timeout.Duration,
	}, wc, logger)
	if err != nil {
		return Providers{}, fmt.Errorf("new fetcher: %w", err)
	}
	if cfg.Providers.Contact == "html" {
		contacts := provider.NewHTMLContactFinder(f, logger)
		contacts.Scheme = cfg.Providers.Scheme
		p.Contacts = contacts
	}
	if cfg.Providers.Links == "html" {
		links := provider.NewHTMLLinkChecker(f, logger)
		links.Scheme = cfg.Providers.Scheme
		if cfg.Providers.CrawlDepth > 0 {
			links.Crawler = enumerator.NewSpider(cfg.Providers.CrawlDepth, wc, logger)
		}
		p.Links = links
	}
	return p, nil
}

// Close releases the web client and the store.
func (c *Components) Close() error {
	var firstErr error
	if c.WebClient != nil {
		if err := c.WebClient.Close(); err != nil {
			firstErr = fmt.Errorf("close webclient: %w", err)
		}
	}
	if err := c.Store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}
	return firstErr
}
