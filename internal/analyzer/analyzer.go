// Package analyzer turns one keyword's search results into scored, classified
// SERPResult records and appends them to a scan session.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/utils"
)

type Config struct {
	// CallTimeout bounds each provider call. Zero means 15s.
	CallTimeout time.Duration
	// MaxWorkers bounds concurrent contact lookups and inserts. Zero means 4.
	MaxWorkers int
	Scoring    Scoring
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

// Report summarizes one Analyze run. Missing lists the ids of results that
// could not be persisted after a retry.
type Report struct {
	SessionID       string   `json:"session_id"`
	Candidates      int      `json:"candidates"`
	Filtered        int      `json:"filtered"`
	Duplicates      int      `json:"duplicates"`
	Stored          int      `json:"stored"`
	ContactFailures int      `json:"contact_failures"`
	Missing         []string `json:"missing"`
}

// Analyzer scores and stores the search results for a scan session.
type Analyzer struct {
	cfg      Config
	search   provider.SearchProvider
	contacts provider.ContactProvider
	store    store.Store
	logger   logging.Logger
	now      func() time.Time
}

// New creates an Analyzer. contacts may be nil, in which case no contact
// lookups run regardless of analysis depth.
func New(cfg Config, search provider.SearchProvider, contacts provider.ContactProvider, st store.Store, logger logging.Logger) (*Analyzer, error) {
	if search == nil {
		return nil, fmt.Errorf("analyzer: search provider is nil")
	}
	if st == nil {
		return nil, fmt.Errorf("analyzer: store is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Analyzer{
		cfg:      cfg,
		search:   search,
		contacts: contacts,
		store:    st,
		logger:   logger.With(logging.Field{Key: "component", Value: "analyzer"}),
		now:      time.Now,
	}, nil
}

// Analyze runs one search for cfg.Keyword and appends a SERPResult per
// accepted candidate to the session. Results written before a failure stay
// in the store.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string, cfg model.ScanConfiguration) (*Report, error) {
	if _, err := a.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	logger := a.logger.With(logging.Field{Key: "session_id", Value: sessionID})

	candidates, err := a.searchCandidates(ctx, cfg)
	if err != nil {
		logger.Warn("search failed", logging.Field{Key: "keyword", Value: cfg.Keyword}, logging.Err(err))
		return nil, model.NewSearchProviderError(cfg.Keyword, err)
	}

	report := &Report{SessionID: sessionID, Candidates: len(candidates), Missing: []string{}}
	accepted := a.accept(candidates, cfg, report, logger)
	lookup := a.contacts != nil && cfg.AnalysisDepth.AtLeast(model.DepthDetailed)
	discovered := a.now().UTC()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.cfg.workers())
	)
	for _, c := range accepted {
		wg.Add(1)
		go func(c provider.Candidate) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				report.Missing = append(report.Missing, resultID(sessionID, c.Position))
				mu.Unlock()
				return
			}
			defer func() { <-sem }()

			r := a.build(sessionID, cfg.Keyword, c, discovered)
			contactFailed := false
			if lookup {
				info, err := a.contact(ctx, r.Domain)
				if err != nil {
					logger.Warn("contact lookup failed", logging.Field{Key: "domain", Value: r.Domain}, logging.Err(err))
					contactFailed = true
				}
				r.ContactInfo = info
			}

			stored, err := a.insert(ctx, r)

			mu.Lock()
			defer mu.Unlock()
			if contactFailed {
				report.ContactFailures++
			}
			switch {
			case err != nil:
				logger.Error("result not persisted", logging.Field{Key: "result_id", Value: r.ID}, logging.Err(err))
				report.Missing = append(report.Missing, r.ID)
			case stored:
				report.Stored++
			default:
				report.Duplicates++
			}
		}(c)
	}
	wg.Wait()

	logger.Info("serp analysis finished",
		logging.Field{Key: "keyword", Value: cfg.Keyword},
		logging.Field{Key: "stored", Value: report.Stored},
		logging.Field{Key: "missing", Value: len(report.Missing)})
	return report, nil
}

func (a *Analyzer) searchCandidates(ctx context.Context, cfg model.ScanConfiguration) ([]provider.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.callTimeout())
	defer cancel()
	return a.search.Search(ctx, provider.SearchQuery{
		Keyword:  cfg.Keyword,
		Location: cfg.Location,
		Language: cfg.Language,
		Depth:    cfg.SearchDepth,
		Purpose:  provider.PurposeSERP,
	})
}

// accept keeps the first SearchDepth candidates that pass the filters and
// have a position not seen before.
func (a *Analyzer) accept(candidates []provider.Candidate, cfg model.ScanConfiguration, report *Report, logger logging.Logger) []provider.Candidate {
	if len(candidates) > cfg.SearchDepth {
		candidates = candidates[:cfg.SearchDepth]
	}
	seen := make(map[int]bool, len(candidates))
	out := make([]provider.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Domain == "" {
			c.Domain = utils.DomainFromURL(c.URL)
		}
		if c.Position < 1 || c.Domain == "" {
			logger.Warn("dropping malformed candidate", logging.Field{Key: "url", Value: c.URL}, logging.Field{Key: "position", Value: c.Position})
			report.Filtered++
			continue
		}
		if seen[c.Position] {
			report.Duplicates++
			continue
		}
		c = sanitize(c, logger)
		if !cfg.Filters.Allows(c.Domain, c.DomainRating, c.SpamScore) {
			report.Filtered++
			continue
		}
		seen[c.Position] = true
		out = append(out, c)
	}
	return out
}

// sanitize drops provider metrics outside their valid ranges, leaving them
// unknown. Ratings and spam scores live in [0,100]; backlink counts are
// non-negative.
func sanitize(c provider.Candidate, logger logging.Logger) provider.Candidate {
	if c.DomainRating != nil && !inPercentRange(*c.DomainRating) {
		logger.Warn("ignoring out of range domain rating",
			logging.Field{Key: "domain", Value: c.Domain}, logging.Field{Key: "domain_rating", Value: *c.DomainRating})
		c.DomainRating = nil
	}
	if c.SpamScore != nil && !inPercentRange(*c.SpamScore) {
		logger.Warn("ignoring out of range spam score",
			logging.Field{Key: "domain", Value: c.Domain}, logging.Field{Key: "spam_score", Value: *c.SpamScore})
		c.SpamScore = nil
	}
	if c.BacklinkCount != nil && *c.BacklinkCount < 0 {
		logger.Warn("ignoring negative backlink count",
			logging.Field{Key: "domain", Value: c.Domain}, logging.Field{Key: "backlink_count", Value: *c.BacklinkCount})
		c.BacklinkCount = nil
	}
	return c
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}

func (a *Analyzer) build(sessionID, keyword string, c provider.Candidate, discovered time.Time) *model.SERPResult {
	kind := Classify(c.Domain, c.Title)
	return &model.SERPResult{
		ID:                   resultID(sessionID, c.Position),
		SessionID:            sessionID,
		Keyword:              keyword,
		Position:             c.Position,
		URL:                  c.URL,
		Domain:               utils.DomainKey(c.Domain),
		Title:                c.Title,
		Snippet:              c.Snippet,
		DomainRating:         c.DomainRating,
		PageAuthority:        PageAuthority(c.DomainRating),
		BacklinkCount:        c.BacklinkCount,
		OpportunityType:      kind,
		OpportunityScore:     a.cfg.Scoring.Score(c.Domain, c.DomainRating, c.Position),
		DifficultyLevel:      Difficulty(c.DomainRating),
		EstimatedSuccessRate: SuccessRate(c.DomainRating, c.Position),
		AnalysisData:         analysisData(c, kind, discovered),
		DiscoveredAt:         discovered,
	}
}

func (a *Analyzer) contact(ctx context.Context, domain string) (*model.ContactInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.callTimeout())
	defer cancel()
	info, err := a.contacts.Contact(ctx, domain)
	if err != nil {
		return nil, model.NewContactProviderError(domain, err)
	}
	if info.Empty() {
		return nil, nil
	}
	return info, nil
}

// insert writes r, retrying once on a persistence error.
func (a *Analyzer) insert(ctx context.Context, r *model.SERPResult) (bool, error) {
	stored, err := a.store.InsertSERPResult(ctx, r)
	if err == nil || !errors.Is(err, model.ErrPersistence) {
		return stored, err
	}
	a.logger.Warn("retrying result insert", logging.Field{Key: "result_id", Value: r.ID}, logging.Err(err))
	return a.store.InsertSERPResult(ctx, r)
}

func resultID(sessionID string, position int) string {
	return fmt.Sprintf("serp_%s_%d", sessionID, position)
}
