package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/webclient"
)

// Fetches pages and checks links concurrently through a WebClient.
type Fetcher struct {
	cfg    Config
	wc     webclient.WebClient
	logger logging.Logger
}

// Page is the outcome of fetching one URL. Err is set when the request
// itself failed; HTTP error statuses are reported through Response.
type Page struct {
	URL      string
	Response *webclient.Response
	Err      error
}

// LinkStatus is the outcome of probing one URL.
type LinkStatus struct {
	URL        string
	StatusCode int
	Err        error
}

// Dead reports an unreachable link or a 4xx/5xx status.
func (s LinkStatus) Dead() bool {
	return s.Err != nil || s.StatusCode >= 400
}

// New creates a new Fetcher with the given webclient and logger
func New(cfg Config, wc webclient.WebClient, logger logging.Logger) (*Fetcher, error) {
	if wc == nil {
		return nil, fmt.Errorf("fetcher: webclient is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Fetcher{
		cfg:    cfg,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "fetcher"}),
	}, nil
}

// FetchAll GETs every URL with bounded concurrency. Results follow input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Page {
	pages := make([]Page, len(urls))
	f.each(ctx, len(urls), func(i int) {
		resp, err := f.HTTPGet(ctx, urls[i])
		pages[i] = Page{URL: urls[i], Response: resp, Err: err}
	}, func(i int) {
		pages[i] = Page{URL: urls[i], Err: ctx.Err()}
	})
	return pages
}

// CheckAll checks every URL with HEAD, retrying with GET when the server
// refuses HEAD. Results follow input order.
func (f *Fetcher) CheckAll(ctx context.Context, urls []string) []LinkStatus {
	out := make([]LinkStatus, len(urls))
	f.each(ctx, len(urls), func(i int) {
		out[i] = f.check(ctx, urls[i])
	}, func(i int) {
		out[i] = LinkStatus{URL: urls[i], Err: ctx.Err()}
	})
	return out
}

func (f *Fetcher) check(ctx context.Context, url string) LinkStatus {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.checkTimeout())
	defer cancel()

	resp, err := f.wc.Do(ctx, &webclient.Request{Method: http.MethodHead, URL: url})
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp, err = f.wc.Get(ctx, url)
	}
	if err != nil {
		f.logger.Debug("link check failed", logging.Field{Key: "url", Value: url}, logging.Err(err))
		return LinkStatus{URL: url, Err: err}
	}
	return LinkStatus{URL: url, StatusCode: resp.StatusCode}
}

// each runs work(i) for i in [0,n) on the semaphore pool. Items not started
// before ctx is done get skipped(i) instead.
func (f *Fetcher) each(ctx context.Context, n int, work func(int), skipped func(int)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.cfg.concurrency())

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			skipped(i)
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				skipped(i)
				return
			}
			defer func() { <-sem }()

			work(i)
		}(i)
	}

	wg.Wait()
}

// HTTPGet GETs one page.
func (f *Fetcher) HTTPGet(ctx context.Context, page string) (*webclient.Response, error) {
	resp, err := f.wc.Get(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("error GETting %s: %w", page, err)
	}
	return resp, nil
}
