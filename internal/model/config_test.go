package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/raysh454/linkscout/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestScanConfiguration_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		cfg       model.ScanConfiguration
		wantField string
	}{
		{"valid", model.ScanConfiguration{Keyword: "ai tools", SearchDepth: 5}, ""},
		{"blank keyword", model.ScanConfiguration{Keyword: "   ", SearchDepth: 5}, "keyword"},
		{"zero depth", model.ScanConfiguration{Keyword: "ai", SearchDepth: 0}, "search_depth"},
		{"negative depth", model.ScanConfiguration{Keyword: "ai", SearchDepth: -3}, "search_depth"},
		{"min dr above range", model.ScanConfiguration{Keyword: "ai", SearchDepth: 1, Filters: model.Filters{MinDomainRating: ptr(101)}}, "filters.min_domain_rating"},
		{"spam below range", model.ScanConfiguration{Keyword: "ai", SearchDepth: 1, Filters: model.Filters{MaxSpamScore: ptr(-1)}}, "filters.max_spam_score"},
		{"bounds inclusive", model.ScanConfiguration{Keyword: "ai", SearchDepth: 1, Filters: model.Filters{MinDomainRating: ptr(0), MaxSpamScore: ptr(100)}}, ""},
		{"bad depth enum", model.ScanConfiguration{Keyword: "ai", SearchDepth: 1, AnalysisDepth: "exhaustive"}, "analysis_depth"},
		{"empty competitor", model.ScanConfiguration{Keyword: "ai", SearchDepth: 1, CompetitorDomains: []string{"a.com", " "}}, "competitor_domains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			var ice *model.InvalidConfigError
			if !errors.As(err, &ice) {
				t.Fatalf("expected InvalidConfigError, got %v", err)
			}
			if ice.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, ice.Field)
			}
			if !errors.Is(err, model.ErrInvalidConfig) {
				t.Error("expected errors.Is(err, ErrInvalidConfig)")
			}
		})
	}
}

func TestScanConfiguration_NormalizedIsDeepCopy(t *testing.T) {
	t.Parallel()
	minDR := 30.0
	cfg := model.ScanConfiguration{
		Keyword:           "  ai tools ",
		SearchDepth:       5,
		CompetitorDomains: []string{"HubSpot.com", "hubspot.com", "buffer.com"},
		Filters:           model.Filters{MinDomainRating: &minDR, ExcludeDomains: []string{"Spam.com"}},
	}

	got := cfg.Normalized()
	want := model.ScanConfiguration{
		Keyword:           "ai tools",
		SearchDepth:       5,
		CompetitorDomains: []string{"hubspot.com", "buffer.com"},
		Filters:           model.Filters{MinDomainRating: ptr(30), ExcludeDomains: []string{"spam.com"}},
		AnalysisDepth:     model.DepthBasic,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalized mismatch (-want +got):\n%s", diff)
	}

	minDR = 99
	cfg.CompetitorDomains[0] = "changed.com"
	if *got.Filters.MinDomainRating != 30 || got.CompetitorDomains[0] != "hubspot.com" {
		t.Error("normalized snapshot shares memory with the input")
	}
}

func TestFilters_Allows(t *testing.T) {
	t.Parallel()
	f := model.Filters{
		MinDomainRating: ptr(50),
		MaxSpamScore:    ptr(20),
		ExcludeDomains:  []string{"www.spam.com"},
	}
	tests := []struct {
		name   string
		domain string
		rating *float64
		spam   *float64
		want   bool
	}{
		{"passes", "good.com", ptr(70), ptr(5), true},
		{"excluded with www", "spam.com", ptr(90), nil, false},
		{"below min", "low.com", ptr(49.9), nil, false},
		{"at min", "edge.com", ptr(50), nil, true},
		{"too spammy", "spammy.com", ptr(80), ptr(21), false},
		{"unknown metrics pass", "unknown.com", nil, nil, true},
	}
	for _, tt := range tests {
		if got := f.Allows(tt.domain, tt.rating, tt.spam); got != tt.want {
			t.Errorf("%s: Allows = %t, want %t", tt.name, got, tt.want)
		}
	}

	only := model.Filters{IncludeOnly: []string{"hubspot.com"}}
	if !only.Allows("WWW.HubSpot.com", nil, nil) {
		t.Error("expected include-only domain to pass")
	}
	if only.Allows("buffer.com", nil, nil) {
		t.Error("expected domain outside include-only to be rejected")
	}
}

func TestAnalysisDepth_AtLeast(t *testing.T) {
	t.Parallel()
	if !model.DepthComprehensive.AtLeast(model.DepthDetailed) {
		t.Error("comprehensive should be at least detailed")
	}
	if model.AnalysisDepth("").AtLeast(model.DepthDetailed) {
		t.Error("empty depth should count as basic")
	}
}
