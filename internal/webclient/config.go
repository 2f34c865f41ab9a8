package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// RateLimit caps requests per host: Requests per Window. Zero disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Config is everything a backend constructor needs. app.Config maps onto it
// so this package does not import app.
type Config struct {
	Client    Client
	Timeout   time.Duration
	UserAgent string
	RateLimit RateLimit

	// IdleAfter and Headless only apply to the chromedp backend.
	IdleAfter time.Duration
	Headless  *bool
}

const defaultUserAgent = "linkscout/1.0 (+https://github.com/raysh454/linkscout)"

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) userAgent() string {
	if c.UserAgent == "" {
		return defaultUserAgent
	}
	return c.UserAgent
}
