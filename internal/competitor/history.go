package competitor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
)

// ErrNoHistory is returned by Changes when a domain was never analyzed.
var ErrNoHistory = errors.New("no competitor analysis recorded")

// ProfileChange describes how a competitor's profile moved between two
// analyses. Gained and Lost hold backlink source URLs.
type ProfileChange struct {
	Domain        string    `json:"domain"`
	From          time.Time `json:"from,omitempty"`
	To            time.Time `json:"to"`
	RatingDelta   float64   `json:"rating_delta"`
	BacklinkDelta int       `json:"backlink_delta"`
	Gained        []string  `json:"gained"`
	Lost          []string  `json:"lost"`
}

// History lists stored analyses for domain, newest first. limit <= 0 means all.
func (a *Analyzer) History(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error) {
	return a.store.ListCompetitorAnalyses(ctx, utils.DomainKey(domain), limit)
}

// Changes compares the two most recent analyses of domain. With a single
// analysis every source counts as gained.
func (a *Analyzer) Changes(ctx context.Context, domain string) (*ProfileChange, error) {
	hist, err := a.History(ctx, domain, 2)
	if err != nil {
		return nil, err
	}
	switch len(hist) {
	case 0:
		return nil, ErrNoHistory
	case 1:
		return Compare(nil, &hist[0]), nil
	default:
		return Compare(&hist[1], &hist[0]), nil
	}
}

// Compare reports the difference from prev to next. prev may be nil.
func Compare(prev, next *model.CompetitorAnalysis) *ProfileChange {
	change := &ProfileChange{
		Domain: next.CompetitorDomain,
		To:     next.AnalysisDate,
		Gained: []string{},
		Lost:   []string{},
	}
	var before string
	if prev != nil {
		change.From = prev.AnalysisDate
		change.RatingDelta = next.DomainRating - prev.DomainRating
		change.BacklinkDelta = next.BacklinkCount - prev.BacklinkCount
		before = sourceLines(prev.BacklinkSources)
	} else {
		change.RatingDelta = next.DomainRating
		change.BacklinkDelta = next.BacklinkCount
	}
	after := sourceLines(next.BacklinkSources)

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		for _, line := range strings.Split(d.Text, "\n") {
			if line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				change.Gained = append(change.Gained, line)
			case diffmatchpatch.DiffDelete:
				change.Lost = append(change.Lost, line)
			}
		}
	}
	return change
}

// sourceLines renders the sorted, distinct source URLs one per line.
func sourceLines(sources []model.BacklinkSource) string {
	seen := make(map[string]bool, len(sources))
	urls := make([]string, 0, len(sources))
	for _, s := range sources {
		key := utils.LinkKey(s.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, key)
	}
	sort.Strings(urls)
	if len(urls) == 0 {
		return ""
	}
	return strings.Join(urls, "\n") + "\n"
}
