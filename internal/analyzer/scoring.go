package analyzer

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"

	"github.com/raysh454/linkscout/internal/model"
)

type classificationRule struct {
	label model.OpportunityType
	match func(domain, title string) bool
}

// classificationRules are evaluated top to bottom; the first match wins.
// Both inputs are lower-cased before matching.
var classificationRules = []classificationRule{
	{model.OpportunityGuestPost, func(domain, title string) bool {
		return strings.Contains(title, "guest") || strings.Contains(domain, "blog")
	}},
	{model.OpportunityResourcePage, func(_, title string) bool {
		return strings.Contains(title, "resource") || strings.Contains(title, "tools")
	}},
	{model.OpportunityContact, func(_, title string) bool {
		return strings.Contains(title, "contact") || strings.Contains(title, "submit")
	}},
}

// Classify assigns an opportunity type from the domain and title alone.
func Classify(domain, title string) model.OpportunityType {
	d, t := strings.ToLower(domain), strings.ToLower(title)
	for _, r := range classificationRules {
		if r.match(d, t) {
			return r.label
		}
	}
	return model.OpportunityCompetitorBacklink
}

// Scoring adds an optional reproducible offset to OpportunityScore. With
// Jitter zero the score is the plain formula.
type Scoring struct {
	Jitter int
	Seed   int64
}

// offset returns a value in [-Jitter, Jitter] derived from seed, domain and
// position.
func (s Scoring) offset(domain string, position int) float64 {
	if s.Jitter <= 0 {
		return 0
	}
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.Seed))
	h.Write(buf[:])
	h.Write([]byte(strings.ToLower(domain)))
	binary.LittleEndian.PutUint64(buf[:], uint64(position))
	h.Write(buf[:])
	span := uint64(2*s.Jitter + 1)
	return float64(int64(h.Sum64()%span) - int64(s.Jitter))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// OpportunityScore rewards authority and a high ranking. Range [0,100].
func OpportunityScore(dr *float64, position int) float64 {
	score := 50.0
	if dr != nil {
		switch {
		case *dr > 80:
			score += 30
		case *dr > 60:
			score += 20
		case *dr > 40:
			score += 10
		}
	}
	score += math.Max(0, 20-2*float64(position))
	return clamp(score, 0, 100)
}

// Score is OpportunityScore plus the configured offset, clamped again.
func (s Scoring) Score(domain string, dr *float64, position int) float64 {
	return clamp(OpportunityScore(dr, position)+s.offset(domain, position), 0, 100)
}

// Difficulty is hard above 80, medium above 60, easy otherwise or unknown.
func Difficulty(dr *float64) model.Difficulty {
	switch {
	case dr == nil:
		return model.DifficultyEasy
	case *dr > 80:
		return model.DifficultyHard
	case *dr > 60:
		return model.DifficultyMedium
	default:
		return model.DifficultyEasy
	}
}

// SuccessRate falls with authority and rises with ranking. Range [20,90].
func SuccessRate(dr *float64, position int) float64 {
	rate := 50.0
	if dr != nil {
		if *dr > 80 {
			rate -= 20
		}
		if *dr < 40 {
			rate += 10
		}
	}
	rate += math.Max(0, 10-float64(position))
	return clamp(rate, 20, 90)
}

// PageAuthority estimates page authority as 80% of the domain rating.
func PageAuthority(dr *float64) *float64 {
	if dr == nil {
		return nil
	}
	pa := math.Floor(*dr * 0.8)
	return &pa
}
