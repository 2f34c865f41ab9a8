package model

import (
	"strings"

	"github.com/raysh454/linkscout/internal/utils"
)

// AnalysisDepth controls how much work a scan does per result.
type AnalysisDepth string

const (
	DepthBasic         AnalysisDepth = "basic"
	DepthDetailed      AnalysisDepth = "detailed"
	DepthComprehensive AnalysisDepth = "comprehensive"
)

func (d AnalysisDepth) valid() bool {
	switch d {
	case DepthBasic, DepthDetailed, DepthComprehensive:
		return true
	}
	return false
}

// AtLeast reports whether d is as deep as other. Empty counts as basic.
func (d AnalysisDepth) AtLeast(other AnalysisDepth) bool {
	return d.rank() >= other.rank()
}

func (d AnalysisDepth) rank() int {
	switch d {
	case DepthDetailed:
		return 1
	case DepthComprehensive:
		return 2
	default:
		return 0
	}
}

// Filters narrow which candidates may become opportunities.
type Filters struct {
	// MinDomainRating drops candidates whose rating is below it.
	MinDomainRating *float64 `json:"min_domain_rating,omitempty" yaml:"min_domain_rating,omitempty"`

	// MaxSpamScore drops candidates whose spam score is above it.
	MaxSpamScore *float64 `json:"max_spam_score,omitempty" yaml:"max_spam_score,omitempty"`

	// ExcludeDomains is a set of domains never returned.
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`

	// IncludeOnly, when non-empty, is the only set of domains returned.
	IncludeOnly []string `json:"include_only,omitempty" yaml:"include_only,omitempty"`
}

// Allows reports whether a candidate passes the filters. Nil ratings and
// spam scores pass the numeric bounds.
func (f Filters) Allows(domain string, rating, spam *float64) bool {
	key := utils.DomainKey(domain)
	for _, d := range f.ExcludeDomains {
		if utils.DomainKey(d) == key {
			return false
		}
	}
	if len(f.IncludeOnly) > 0 {
		found := false
		for _, d := range f.IncludeOnly {
			if utils.DomainKey(d) == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinDomainRating != nil && rating != nil && *rating < *f.MinDomainRating {
		return false
	}
	if f.MaxSpamScore != nil && spam != nil && *spam > *f.MaxSpamScore {
		return false
	}
	return true
}

// Validate checks the numeric bounds of the filters.
func (f Filters) Validate() error {
	if f.MinDomainRating != nil && !inPercent(*f.MinDomainRating) {
		return &InvalidConfigError{Field: "filters.min_domain_rating", Reason: "must be within [0,100]"}
	}
	if f.MaxSpamScore != nil && !inPercent(*f.MaxSpamScore) {
		return &InvalidConfigError{Field: "filters.max_spam_score", Reason: "must be within [0,100]"}
	}
	return nil
}

// Normalized returns a deep copy with domain sets lower-cased and deduplicated.
func (f Filters) Normalized() Filters {
	out := Filters{
		ExcludeDomains: domainSet(f.ExcludeDomains),
		IncludeOnly:    domainSet(f.IncludeOnly),
	}
	if f.MinDomainRating != nil {
		v := *f.MinDomainRating
		out.MinDomainRating = &v
	}
	if f.MaxSpamScore != nil {
		v := *f.MaxSpamScore
		out.MaxSpamScore = &v
	}
	return out
}

// ScanConfiguration is the input to a scan.
type ScanConfiguration struct {
	// Keyword is the search phrase being targeted.
	Keyword string `json:"keyword"`

	// Location and Language are opaque locale hints for the search provider.
	Location string `json:"location,omitempty"`
	Language string `json:"language,omitempty"`

	// SearchDepth is the number of result positions to analyze.
	SearchDepth int `json:"search_depth"`

	// CompetitorDomains are analyzed for backlink gaps when non-empty.
	CompetitorDomains []string `json:"competitor_domains,omitempty"`

	Filters Filters `json:"filters"`

	// AnalysisDepth defaults to basic when empty.
	AnalysisDepth AnalysisDepth `json:"analysis_depth,omitempty"`
}

// Validate returns an *InvalidConfigError describing the first bad field.
func (c ScanConfiguration) Validate() error {
	if strings.TrimSpace(c.Keyword) == "" {
		return &InvalidConfigError{Field: "keyword", Reason: "must not be empty"}
	}
	if c.SearchDepth <= 0 {
		return &InvalidConfigError{Field: "search_depth", Reason: "must be greater than zero"}
	}
	if err := c.Filters.Validate(); err != nil {
		return err
	}
	if c.AnalysisDepth != "" && !c.AnalysisDepth.valid() {
		return &InvalidConfigError{Field: "analysis_depth", Reason: "must be one of basic, detailed, comprehensive"}
	}
	for _, d := range c.CompetitorDomains {
		if strings.TrimSpace(d) == "" {
			return &InvalidConfigError{Field: "competitor_domains", Reason: "must not contain empty domains"}
		}
	}
	return nil
}

// Normalized returns the immutable snapshot stored with a session.
func (c ScanConfiguration) Normalized() ScanConfiguration {
	out := c
	out.Keyword = strings.TrimSpace(c.Keyword)
	out.CompetitorDomains = domainSet(c.CompetitorDomains)
	out.Filters = c.Filters.Normalized()
	if out.AnalysisDepth == "" {
		out.AnalysisDepth = DepthBasic
	}
	return out
}

func domainSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

func inPercent(v float64) bool {
	return v >= 0 && v <= 100
}
