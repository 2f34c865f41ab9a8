package model

import "github.com/raysh454/linkscout/internal/utils"

// Priority ranks an outreach opportunity.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Effort estimates the work needed to land a link.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// ContactMethod is the preferred outreach channel.
type ContactMethod string

const (
	ContactEmail  ContactMethod = "email"
	ContactForm   ContactMethod = "form"
	ContactSocial ContactMethod = "social"
	ContactManual ContactMethod = "manual"
)

// LinkOpportunity is the unified shape every finder produces.
type LinkOpportunity struct {
	ID                 string          `json:"id"`
	Domain             string          `json:"domain"`
	URL                string          `json:"url"`
	OpportunityType    OpportunityType `json:"opportunity_type"`
	Priority           Priority        `json:"priority"`
	EstimatedDA        float64         `json:"estimated_da"`
	SuccessProbability float64         `json:"success_probability"`
	EffortRequired     Effort          `json:"effort_required"`
	ContactMethod      ContactMethod   `json:"contact_method"`
	Notes              string          `json:"notes"`

	// DiscoveredVia tags the finder or query that produced the record.
	DiscoveredVia string `json:"discovered_via"`
}

// DedupeByDomain keeps the first opportunity seen per normalized domain.
func DedupeByDomain(in []LinkOpportunity) []LinkOpportunity {
	return Union(in)
}

// Union concatenates the sets in order and drops later duplicates by domain.
func Union(sets ...[]LinkOpportunity) []LinkOpportunity {
	seen := make(map[string]struct{})
	out := make([]LinkOpportunity, 0)
	for _, set := range sets {
		for _, o := range set {
			key := utils.DomainKey(o.Domain)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, o)
		}
	}
	return out
}
