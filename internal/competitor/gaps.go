package competitor

import (
	"fmt"
	"strings"

	"github.com/raysh454/linkscout/internal/model"
)

// GapOpportunities turns every source that offers an opening into a
// competitor_gap opportunity. Sources above DR 85 are high priority but
// harder to win.
func GapOpportunities(analysisID, competitor string, sources []model.BacklinkSource) []model.LinkOpportunity {
	out := make([]model.LinkOpportunity, 0)
	for i, s := range sources {
		if !s.OpportunityAvailable {
			continue
		}
		priority, success := model.PriorityMedium, 75.0
		if s.DomainRating > 85 {
			priority, success = model.PriorityHigh, 60
		}
		out = append(out, model.LinkOpportunity{
			ID:                 fmt.Sprintf("%s_gap_%d", analysisID, i),
			Domain:             s.Domain,
			URL:                s.URL,
			OpportunityType:    model.OpportunityCompetitorGap,
			Priority:           priority,
			EstimatedDA:        s.DomainRating,
			SuccessProbability: success,
			EffortRequired:     model.EffortMedium,
			ContactMethod:      model.ContactEmail,
			Notes:              fmt.Sprintf("Competitor %s has link from %s", competitor, s.Context),
			DiscoveredVia:      "competitor_analysis_" + competitor,
		})
	}
	return out
}

// TopKeywords is the first three target keywords followed by the provider's
// keywords, without repeats.
func TopKeywords(targets, observed []string) []string {
	if len(targets) > 3 {
		targets = targets[:3]
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(targets)+len(observed))
	for _, set := range [][]string{targets, observed} {
		for _, k := range set {
			k = strings.TrimSpace(k)
			key := strings.ToLower(k)
			if k == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, k)
		}
	}
	return out
}
