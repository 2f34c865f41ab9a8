// Package competitor analyzes competitor backlink profiles and derives the
// gap opportunities they expose.
package competitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/utils"
)

type Config struct {
	// CallTimeout bounds each profile lookup. Zero means 15s.
	CallTimeout time.Duration
	// MaxWorkers bounds how many domains are analyzed at once. Zero means 4.
	MaxWorkers int
}

func (c Config) callTimeout() time.Duration {
	if c.CallTimeout <= 0 {
		return 15 * time.Second
	}
	return c.CallTimeout
}

func (c Config) workers() int {
	if c.MaxWorkers <= 0 {
		return 4
	}
	return c.MaxWorkers
}

// DomainFailure records why one domain produced no (or an unsaved) analysis.
type DomainFailure struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the outcome of one Analyze call. Analyses follow the order of
// the requested domains. Opportunities is the union of every analysis' gap
// opportunities, deduplicated by domain.
type Result struct {
	Analyses        []model.CompetitorAnalysis `json:"analyses"`
	Opportunities   []model.LinkOpportunity    `json:"opportunities"`
	Failures        []DomainFailure            `json:"failures"`
	PersistFailures []DomainFailure            `json:"persist_failures"`
}

// Analyzer fetches competitor profiles and stores one analysis per domain.
type Analyzer struct {
	cfg       Config
	backlinks provider.BacklinkProvider
	store     store.Store
	logger    logging.Logger
	now       func() time.Time
}

func New(cfg Config, backlinks provider.BacklinkProvider, st store.Store, logger logging.Logger) (*Analyzer, error) {
	if backlinks == nil {
		return nil, fmt.Errorf("competitor: backlink provider is nil")
	}
	if st == nil {
		return nil, fmt.Errorf("competitor: store is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Analyzer{
		cfg:       cfg,
		backlinks: backlinks,
		store:     st,
		logger:    logger.With(logging.Field{Key: "component", Value: "competitor"}),
		now:       time.Now,
	}, nil
}

type outcome struct {
	analysis   *model.CompetitorAnalysis
	failure    *DomainFailure
	persistErr *DomainFailure
}

// Analyze profiles each domain concurrently. A failing domain never blocks
// the others; only when every domain fails is an error returned, alongside
// the Result describing the failures.
func (a *Analyzer) Analyze(ctx context.Context, domains, keywords []string) (*Result, error) {
	domains = uniqueDomains(domains)
	outcomes := make([]outcome, len(domains))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.cfg.workers())
	for i, d := range domains {
		wg.Add(1)
		go func(i int, domain string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = outcome{failure: &DomainFailure{Domain: domain, Reason: ctx.Err().Error(), Err: ctx.Err()}}
				return
			}
			defer func() { <-sem }()
			outcomes[i] = a.analyzeOne(ctx, domain, keywords)
		}(i, d)
	}
	wg.Wait()

	res := &Result{
		Analyses:        []model.CompetitorAnalysis{},
		Failures:        []DomainFailure{},
		PersistFailures: []DomainFailure{},
	}
	var gapSets [][]model.LinkOpportunity
	var errs []error
	for _, o := range outcomes {
		if o.failure != nil {
			res.Failures = append(res.Failures, *o.failure)
			errs = append(errs, o.failure.Err)
			continue
		}
		if o.persistErr != nil {
			res.PersistFailures = append(res.PersistFailures, *o.persistErr)
		}
		res.Analyses = append(res.Analyses, *o.analysis)
		gapSets = append(gapSets, o.analysis.GapOpportunities)
	}
	res.Opportunities = model.Union(gapSets...)

	if len(domains) > 0 && len(res.Failures) == len(domains) {
		return res, model.NewBacklinkProviderError(strings.Join(domains, ","), errors.Join(errs...))
	}
	return res, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, domain string, keywords []string) outcome {
	logger := a.logger.With(logging.Field{Key: "domain", Value: domain})

	profile, err := a.profile(ctx, domain)
	if err != nil {
		logger.Warn("backlink profile failed", logging.Err(err))
		perr := model.NewBacklinkProviderError(domain, err)
		return outcome{failure: &DomainFailure{Domain: domain, Reason: err.Error(), Err: perr}}
	}

	sources := make([]model.BacklinkSource, 0, len(profile.Sources))
	for _, s := range profile.Sources {
		if err := s.Validate(); err != nil {
			logger.Warn("dropping invalid backlink source", logging.Err(err))
			continue
		}
		sources = append(sources, s)
	}

	id := "comp_" + uuid.NewString()
	analysis := &model.CompetitorAnalysis{
		ID:               id,
		CompetitorDomain: domain,
		DomainRating:     profile.DomainRating,
		BacklinkCount:    profile.BacklinkCount,
		ReferringDomains: profile.ReferringDomains,
		TopKeywords:      TopKeywords(keywords, profile.TopKeywords),
		BacklinkSources:  sources,
		GapOpportunities: GapOpportunities(id, domain, sources),
		AnalysisDate:     a.now().UTC(),
	}

	if err := a.persist(ctx, analysis); err != nil {
		logger.Error("competitor analysis not persisted", logging.Err(err))
		return outcome{analysis: analysis, persistErr: &DomainFailure{Domain: domain, Reason: err.Error(), Err: err}}
	}
	logger.Info("competitor analyzed",
		logging.Field{Key: "sources", Value: len(sources)},
		logging.Field{Key: "gaps", Value: len(analysis.GapOpportunities)})
	return outcome{analysis: analysis}
}

func (a *Analyzer) profile(ctx context.Context, domain string) (*provider.BacklinkProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.callTimeout())
	defer cancel()
	p, err := a.backlinks.Profile(ctx, domain)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("empty profile for %s", domain)
	}
	return p, nil
}

// persist appends the analysis, retrying once.
func (a *Analyzer) persist(ctx context.Context, analysis *model.CompetitorAnalysis) error {
	err := a.store.InsertCompetitorAnalysis(ctx, analysis)
	if err == nil {
		return nil
	}
	a.logger.Warn("retrying competitor analysis insert", logging.Field{Key: "domain", Value: analysis.CompetitorDomain}, logging.Err(err))
	return a.store.InsertCompetitorAnalysis(ctx, analysis)
}

func uniqueDomains(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		key := utils.DomainKey(d)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
