package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/utils"
)

// queryTemplates are expanded per keyword, in this order.
var queryTemplates = []string{
	`"%s" resources`,
	`"%s" tools`,
	`"%s" links`,
	`best %s resources`,
	`useful %s tools`,
	`%s directory`,
}

// ResourcePageFinder searches for curated resource pages that could list
// the target site.
type ResourcePageFinder struct {
	cfg    Config
	search provider.SearchProvider
	logger logging.Logger
}

func NewResourcePageFinder(cfg Config, search provider.SearchProvider, logger logging.Logger) (*ResourcePageFinder, error) {
	if search == nil {
		return nil, fmt.Errorf("finder: search provider is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &ResourcePageFinder{
		cfg:    cfg,
		search: search,
		logger: logger.With(logging.Field{Key: "component", Value: "resource_page_finder"}),
	}, nil
}

// Queries expands the templates for every keyword, capped at MaxQueries.
func (f *ResourcePageFinder) Queries(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		for _, tmpl := range queryTemplates {
			out = append(out, fmt.Sprintf(tmpl, k))
		}
	}
	if f.cfg.MaxQueries > 0 && len(out) > f.cfg.MaxQueries {
		out = out[:f.cfg.MaxQueries]
	}
	return out
}

type queryResult struct {
	candidates []provider.Candidate
	err        error
}

// Find runs every query in parallel and merges the candidates in query
// order. The first opportunity per domain wins. A failing query is skipped;
// only when all fail does Find return an error.
func (f *ResourcePageFinder) Find(ctx context.Context, keywords []string, filters model.Filters) ([]model.LinkOpportunity, error) {
	queries := f.Queries(keywords)
	results := make([]queryResult, len(queries))

	var wg sync.WaitGroup
	sem := make(chan struct{}, f.cfg.workers())
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = queryResult{err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			cs, err := f.query(ctx, q)
			results[i] = queryResult{candidates: cs, err: err}
		}(i, q)
	}
	wg.Wait()

	var errs []error
	seen := make(map[string]bool)
	out := make([]model.LinkOpportunity, 0)
	for i, r := range results {
		if r.err != nil {
			f.logger.Warn("resource query failed", logging.Field{Key: "query", Value: queries[i]}, logging.Err(r.err))
			errs = append(errs, r.err)
			continue
		}
		for _, c := range r.candidates {
			o, ok := f.opportunity(queries[i], c, filters)
			if !ok {
				continue
			}
			key := utils.DomainKey(o.Domain)
			if seen[key] {
				continue
			}
			seen[key] = true
			o.ID = "resource_" + key
			out = append(out, o)
		}
	}
	if len(queries) > 0 && len(errs) == len(queries) {
		return nil, model.NewSearchProviderError("resource pages", errors.Join(errs...))
	}
	f.logger.Info("resource page search finished",
		logging.Field{Key: "queries", Value: len(queries)},
		logging.Field{Key: "opportunities", Value: len(out)})
	return out, nil
}

func (f *ResourcePageFinder) query(ctx context.Context, q string) ([]provider.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.callTimeout())
	defer cancel()
	return f.search.Search(ctx, provider.SearchQuery{Keyword: q, Purpose: provider.PurposeResources})
}

// opportunity converts a candidate, applying the filters. A minimum domain
// rating is a hard cut here: candidates without a rating are dropped too.
func (f *ResourcePageFinder) opportunity(query string, c provider.Candidate, filters model.Filters) (model.LinkOpportunity, bool) {
	domain := c.Domain
	if domain == "" {
		domain = utils.DomainFromURL(c.URL)
	}
	domain = utils.DomainKey(domain)
	if domain == "" {
		return model.LinkOpportunity{}, false
	}
	if filters.MinDomainRating != nil && (c.DomainRating == nil || *c.DomainRating < *filters.MinDomainRating) {
		return model.LinkOpportunity{}, false
	}
	if !filters.Allows(domain, c.DomainRating, c.SpamScore) {
		return model.LinkOpportunity{}, false
	}

	var da float64
	if c.DomainRating != nil {
		da = *c.DomainRating
	}
	priority := model.PriorityMedium
	if da > 70 {
		priority = model.PriorityHigh
	}
	return model.LinkOpportunity{
		Domain:             domain,
		URL:                c.URL,
		OpportunityType:    model.OpportunityResourcePage,
		Priority:           priority,
		EstimatedDA:        da,
		SuccessProbability: 70,
		EffortRequired:     model.EffortLow,
		ContactMethod:      model.ContactEmail,
		Notes:              "Resource page: " + c.Title,
		DiscoveredVia:      "resource_search_" + query,
	}, true
}
