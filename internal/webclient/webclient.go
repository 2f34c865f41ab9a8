package webclient

import "context"

// WebClient fetches pages for the HTML-inspecting providers.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is shorthand for a GET with no headers or body.
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
