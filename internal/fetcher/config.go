package fetcher

import "time"

type Config struct {
	// MaxConcurrency bounds in-flight requests. Zero means 8.
	MaxConcurrency int

	// CheckTimeout bounds each link check. Zero means 10s.
	CheckTimeout time.Duration
}

func (c Config) concurrency() int {
	if c.MaxConcurrency <= 0 {
		return 8
	}
	return c.MaxConcurrency
}

func (c Config) checkTimeout() time.Duration {
	if c.CheckTimeout <= 0 {
		return 10 * time.Second
	}
	return c.CheckTimeout
}
