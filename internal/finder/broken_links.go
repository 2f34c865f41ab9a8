package finder

import (
	"context"
	"fmt"
	"strings"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/utils"
)

// BrokenLinkFinder turns dead outbound links on a domain into replacement
// link opportunities.
type BrokenLinkFinder struct {
	cfg    Config
	links  provider.LinkChecker
	rater  provider.DomainRater
	logger logging.Logger
}

// NewBrokenLinkFinder creates a finder. rater is optional; without it the
// estimated DA of every opportunity is 0.
func NewBrokenLinkFinder(cfg Config, links provider.LinkChecker, rater provider.DomainRater, logger logging.Logger) (*BrokenLinkFinder, error) {
	if links == nil {
		return nil, fmt.Errorf("finder: link checker is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &BrokenLinkFinder{
		cfg:    cfg,
		links:  links,
		rater:  rater,
		logger: logger.With(logging.Field{Key: "component", Value: "broken_link_finder"}),
	}, nil
}

// Relevance scores a dead link against the target keywords: 40 base, plus
// 25 per keyword in the anchor text, 15 per keyword in the context page URL
// and 10 per keyword in the broken URL.
func Relevance(l provider.DeadLink, keywords []string) float64 {
	score := 40.0 +
		25*float64(countKeywords(l.AnchorText, keywords)) +
		15*float64(countKeywords(urlWords(l.ContextPage), keywords)) +
		10*float64(countKeywords(urlWords(l.BrokenURL), keywords))
	return clamp(score, 0, 100)
}

// urlWords makes slugs comparable with multi-word keywords.
func urlWords(u string) string {
	return strings.NewReplacer("-", " ", "_", " ", "+", " ", "%20", " ").Replace(u)
}

// Find lists the dead links on domain as broken_link opportunities.
// Duplicate (context page, broken URL) pairs are reported once.
func (f *BrokenLinkFinder) Find(ctx context.Context, domain string, keywords []string) ([]model.LinkOpportunity, error) {
	domain = utils.DomainKey(domain)
	logger := f.logger.With(logging.Field{Key: "domain", Value: domain})

	dead, err := f.deadLinks(ctx, domain)
	if err != nil {
		logger.Warn("dead link lookup failed", logging.Err(err))
		return nil, model.NewLinkProviderError(domain, err)
	}

	da := f.estimatedDA(ctx, domain, logger)
	seen := make(map[string]bool, len(dead))
	out := make([]model.LinkOpportunity, 0, len(dead))
	for _, l := range dead {
		key := utils.LinkKey(l.ContextPage) + " " + utils.LinkKey(l.BrokenURL)
		if seen[key] {
			continue
		}
		seen[key] = true

		relevance := Relevance(l, keywords)
		if l.Relevance != nil {
			relevance = clamp(*l.Relevance, 0, 100)
		}
		priority := model.PriorityMedium
		if relevance > 80 {
			priority = model.PriorityHigh
		}
		out = append(out, model.LinkOpportunity{
			ID:                 fmt.Sprintf("broken_%s_%d", domain, len(out)),
			Domain:             domain,
			URL:                l.ContextPage,
			OpportunityType:    model.OpportunityBrokenLink,
			Priority:           priority,
			EstimatedDA:        da,
			SuccessProbability: relevance,
			EffortRequired:     model.EffortMedium,
			ContactMethod:      model.ContactEmail,
			Notes:              fmt.Sprintf("Broken link: %s (%s)", l.BrokenURL, l.AnchorText),
			DiscoveredVia:      "broken_link_scan",
		})
	}
	logger.Info("broken link scan finished", logging.Field{Key: "opportunities", Value: len(out)})
	return out, nil
}

func (f *BrokenLinkFinder) deadLinks(ctx context.Context, domain string) ([]provider.DeadLink, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.callTimeout())
	defer cancel()
	return f.links.DeadLinks(ctx, domain)
}

func (f *BrokenLinkFinder) estimatedDA(ctx context.Context, domain string, logger logging.Logger) float64 {
	if f.rater == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.callTimeout())
	defer cancel()
	dr, err := f.rater.DomainRating(ctx, domain)
	if err != nil {
		logger.Warn("domain rating lookup failed", logging.Err(err))
		return 0
	}
	if dr == nil {
		return 0
	}
	return *dr
}
