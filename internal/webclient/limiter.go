package webclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces a token-bucket rate per host. A nil HostLimiter
// never blocks.
type HostLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter returns nil when cfg disables limiting.
func NewHostLimiter(cfg RateLimit) *HostLimiter {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil
	}
	interval := cfg.Window / time.Duration(cfg.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &HostLimiter{
		every:    interval,
		burst:    cfg.Requests,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if h == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.every), h.burst)
		h.limiters[host] = l
	}
	h.mu.Unlock()

	return l.Wait(ctx)
}
