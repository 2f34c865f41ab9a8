package analyzer

import (
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
)

// contentMarkers are topics a thorough page on a keyword tends to cover.
// Those absent from a result's title and snippet are its content gaps.
var contentMarkers = []string{
	"guide", "case study", "statistics", "tutorial", "comparison", "checklist", "examples",
}

var resourcePathWords = []string{"resources", "resource", "tools", "links", "directory"}

func analysisData(c provider.Candidate, kind model.OpportunityType, discovered time.Time) model.AnalysisData {
	text := strings.ToLower(c.Title + " " + c.Snippet)
	snippet := strings.ToLower(c.Snippet)

	gaps := make([]string, 0, len(contentMarkers))
	for _, m := range contentMarkers {
		if !strings.Contains(text, m) {
			gaps = append(gaps, m)
		}
	}

	hasResource := kind == model.OpportunityResourcePage
	if u, err := url.Parse(c.URL); err == nil {
		p := strings.ToLower(u.Path)
		for _, w := range resourcePathWords {
			if strings.Contains(p, w) {
				hasResource = true
				break
			}
		}
	}

	updated := c.LastUpdated
	if updated.IsZero() {
		updated = discovered
	}

	quality := 50.0
	if c.DomainRating != nil {
		quality = clamp(40+0.6**c.DomainRating, 0, 100)
	}

	return model.AnalysisData{
		AcceptsGuestPosts: kind == model.OpportunityGuestPost ||
			strings.Contains(snippet, "write for us") || strings.Contains(snippet, "guest"),
		HasResourcePage:  hasResource,
		HasBrokenLinks:   c.HasBrokenLinks,
		ContentGaps:      gaps,
		LastUpdated:      updated,
		SiteQualityScore: quality,
	}
}
