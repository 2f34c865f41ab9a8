// Package provider defines the narrow interfaces through which external data
// (search results, backlink profiles, contact details, dead links, domain
// ratings) reaches the analyzers, plus the implementations shipped with
// linkscout.
package provider

import (
	"context"
	"time"

	"github.com/raysh454/linkscout/internal/model"
)

// SearchPurpose tells the provider what the query is for. Fixture data
// differs per purpose; real search APIs may ignore it.
type SearchPurpose string

const (
	PurposeSERP      SearchPurpose = "serp"
	PurposeResources SearchPurpose = "resources"
)

type SearchQuery struct {
	Keyword  string
	Location string
	Language string
	Depth    int
	Purpose  SearchPurpose
}

// Candidate is one raw search result.
type Candidate struct {
	Position     int      `json:"position"`
	URL          string   `json:"url"`
	Domain       string   `json:"domain"`
	Title        string   `json:"title"`
	Snippet      string   `json:"snippet"`
	DomainRating *float64 `json:"domain_rating,omitempty"`

	// Optional signals; nil or zero when the provider has none.
	SpamScore      *float64  `json:"spam_score,omitempty"`
	BacklinkCount  *int      `json:"backlink_count,omitempty"`
	HasBrokenLinks bool      `json:"has_broken_links,omitempty"`
	LastUpdated    time.Time `json:"last_updated,omitempty"`
}

type SearchProvider interface {
	Search(ctx context.Context, q SearchQuery) ([]Candidate, error)
}

// BacklinkProfile is a competitor's link profile.
type BacklinkProfile struct {
	DomainRating     float64
	BacklinkCount    int
	ReferringDomains int
	TopKeywords      []string
	Sources          []model.BacklinkSource
}

type BacklinkProvider interface {
	Profile(ctx context.Context, domain string) (*BacklinkProfile, error)
}

// ContactProvider returns nil info (and no error) when nothing was found.
type ContactProvider interface {
	Contact(ctx context.Context, domain string) (*model.ContactInfo, error)
}

// DeadLink is an outbound link on a domain's page that no longer resolves.
type DeadLink struct {
	ContextPage string
	BrokenURL   string
	AnchorText  string
	StatusCode  int

	// Relevance is supplied by providers that score links themselves.
	Relevance *float64
}

type LinkChecker interface {
	DeadLinks(ctx context.Context, domain string) ([]DeadLink, error)
}

// DomainRater returns nil when the rating is unknown.
type DomainRater interface {
	DomainRating(ctx context.Context, domain string) (*float64, error)
}
