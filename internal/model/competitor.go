package model

import (
	"fmt"
	"time"
)

// LinkType is the rel attribute class of a backlink.
type LinkType string

const (
	LinkDofollow LinkType = "dofollow"
	LinkNofollow LinkType = "nofollow"
)

// BacklinkSource is one inbound link observed pointing at a competitor.
type BacklinkSource struct {
	Domain       string    `json:"domain"`
	URL          string    `json:"url"`
	AnchorText   string    `json:"anchor_text"`
	Context      string    `json:"context"`
	DomainRating float64   `json:"domain_rating"`
	LinkType     LinkType  `json:"link_type"`
	FirstSeen    time.Time `json:"first_seen"`

	// OpportunityType is set exactly when OpportunityAvailable is true.
	OpportunityAvailable bool    `json:"opportunity_available"`
	OpportunityType      *string `json:"opportunity_type"`
}

// Validate enforces that OpportunityType is present iff OpportunityAvailable.
func (b BacklinkSource) Validate() error {
	if b.OpportunityAvailable != (b.OpportunityType != nil) {
		return fmt.Errorf("backlink source %s: opportunity_available=%t but opportunity_type present=%t",
			b.URL, b.OpportunityAvailable, b.OpportunityType != nil)
	}
	if b.DomainRating < 0 || b.DomainRating > 100 {
		return fmt.Errorf("backlink source %s: domain rating %.1f out of range", b.URL, b.DomainRating)
	}
	return nil
}

// CompetitorAnalysis is one competitor's backlink profile snapshot.
type CompetitorAnalysis struct {
	ID               string            `json:"id"`
	CompetitorDomain string            `json:"competitor_domain"`
	DomainRating     float64           `json:"domain_rating"`
	BacklinkCount    int               `json:"backlink_count"`
	ReferringDomains int               `json:"referring_domains"`
	TopKeywords      []string          `json:"top_keywords"`
	BacklinkSources  []BacklinkSource  `json:"backlink_sources"`
	GapOpportunities []LinkOpportunity `json:"gap_opportunities"`
	AnalysisDate     time.Time         `json:"analysis_date"`
}
