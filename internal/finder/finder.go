// Package finder holds the supplementary opportunity finders: dead outbound
// links on a target domain, and resource pages found through search.
package finder

import (
	"math"
	"strings"
	"time"
)

type Config struct {
	// CallTimeout bounds each provider call. Zero means 15s.
	CallTimeout time.Duration
	// MaxQueries caps resource-page queries; zero runs every template.
	MaxQueries int
	// MaxWorkers bounds parallel queries. Zero means 4.
	MaxWorkers int
}

func (c Config) callTimeout() time.Duration {
	if c.CallTimeout <= 0 {
		return 15 * time.Second
	}
	return c.CallTimeout
}

func (c Config) workers() int {
	if c.MaxWorkers <= 0 {
		return 4
	}
	return c.MaxWorkers
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// countKeywords returns how many keywords occur in text, case-insensitively.
func countKeywords(text string, keywords []string) int {
	text = strings.ToLower(text)
	n := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(text, k) {
			n++
		}
	}
	return n
}
