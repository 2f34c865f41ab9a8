package demoserver

import "fmt"

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// InitialVersion is the starting version for all pages (default: 1).
	InitialVersion int

	// PartnerBase prefixes the outbound links on every page. It must name a
	// different host than the one scanned, so the links count as outbound.
	// Empty means http://127.0.0.1:<Port>; scan localhost:<Port> to match.
	PartnerBase string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		InitialVersion: 1,
	}
}

func (c Config) partnerBase() string {
	if c.PartnerBase != "" {
		return c.PartnerBase
	}
	return fmt.Sprintf("http://127.0.0.1:%d", c.Port)
}
