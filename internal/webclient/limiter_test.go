package webclient

import (
	"context"
	"testing"
	"time"
)

func TestNewHostLimiter_DisabledIsNil(t *testing.T) {
	if l := NewHostLimiter(RateLimit{}); l != nil {
		t.Fatal("expected nil limiter for zero config")
	}
	var l *HostLimiter
	if err := l.Wait(context.Background(), "example.com"); err != nil {
		t.Fatalf("nil limiter should never block: %v", err)
	}
}

func TestHostLimiter_HostsAreIndependent(t *testing.T) {
	l := NewHostLimiter(RateLimit{Requests: 1, Window: time.Hour})
	ctx := context.Background()
	if err := l.Wait(ctx, "a.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := l.Wait(ctx, "B.com"); err != nil {
		t.Fatalf("other host should not be throttled: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "A.COM"); err == nil {
		t.Fatal("expected second wait on the same host to hit the deadline")
	}
}
