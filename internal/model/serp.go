package model

import "time"

// OpportunityType classifies a search result or link opportunity.
type OpportunityType string

const (
	OpportunityGuestPost          OpportunityType = "guest_post"
	OpportunityBrokenLink         OpportunityType = "broken_link"
	OpportunityCompetitorBacklink OpportunityType = "competitor_backlink"
	OpportunityResourcePage       OpportunityType = "resource_page"
	OpportunityContact            OpportunityType = "contact_opportunity"
	OpportunityUnlinkedMention    OpportunityType = "unlinked_mention"
	OpportunityCompetitorGap      OpportunityType = "competitor_gap"
)

// Difficulty is the outreach difficulty derived from domain rating.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ContactInfo holds whatever contact channels were found for a domain.
type ContactInfo struct {
	Email          string   `json:"email,omitempty"`
	ContactForm    string   `json:"contact_form,omitempty"`
	SocialProfiles []string `json:"social_profiles,omitempty"`
}

// Empty reports whether no channel was found.
func (c *ContactInfo) Empty() bool {
	return c == nil || (c.Email == "" && c.ContactForm == "" && len(c.SocialProfiles) == 0)
}

// AnalysisData summarizes signals derived from a result page.
type AnalysisData struct {
	AcceptsGuestPosts bool      `json:"accepts_guest_posts"`
	HasResourcePage   bool      `json:"has_resource_page"`
	HasBrokenLinks    bool      `json:"has_broken_links"`
	ContentGaps       []string  `json:"content_gaps"`
	LastUpdated       time.Time `json:"last_updated"`
	SiteQualityScore  float64   `json:"site_quality_score"`
}

// SERPResult is one opportunity discovered from keyword-position analysis.
type SERPResult struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Keyword   string `json:"keyword"`
	Position  int    `json:"position"`
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`

	// Nil metrics mean the provider did not know them.
	DomainRating  *float64 `json:"domain_rating"`
	PageAuthority *float64 `json:"page_authority"`
	BacklinkCount *int     `json:"backlink_count"`

	OpportunityType      OpportunityType `json:"opportunity_type"`
	OpportunityScore     float64         `json:"opportunity_score"`
	DifficultyLevel      Difficulty      `json:"difficulty_level"`
	EstimatedSuccessRate float64         `json:"estimated_success_rate"`

	// ContactInfo is nil when no contact lookup ran or nothing was found.
	ContactInfo  *ContactInfo `json:"contact_info"`
	AnalysisData AnalysisData `json:"analysis_data"`
	DiscoveredAt time.Time    `json:"discovered_at"`
}
