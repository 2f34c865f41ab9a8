// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// Warned reports whether a warning containing substr was logged.
func (l *DummyLogger) Warned(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Warns {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Bodies        map[string]string
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}
	body := "ok:" + req.URL
	if b, ok := d.Bodies[req.URL]; ok {
		body = b
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte(body),
		StatusCode: 200,
		FinalURL:   req.URL,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Providers ─────────────────────────────────────────────────────────

// wait sleeps for delay or until ctx is done, and then blocks on gate if set.
func wait(ctx context.Context, delay time.Duration, gate <-chan struct{}) error {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// DummySearchProvider returns Results (or Resources for resource queries).
// Gate, when set, blocks every call until closed. Err fails every call;
// FailQueries fails only the named queries.
type DummySearchProvider struct {
	Results     []provider.Candidate
	Resources   []provider.Candidate
	Err         error
	FailQueries map[string]error
	Delay       time.Duration
	Gate        chan struct{}

	mu      sync.Mutex
	Queries []provider.SearchQuery
}

func (d *DummySearchProvider) Search(ctx context.Context, q provider.SearchQuery) ([]provider.Candidate, error) {
	d.mu.Lock()
	d.Queries = append(d.Queries, q)
	d.mu.Unlock()

	if err := wait(ctx, d.Delay, d.Gate); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	if err, ok := d.FailQueries[q.Keyword]; ok {
		return nil, err
	}
	if q.Purpose == provider.PurposeResources {
		return append([]provider.Candidate(nil), d.Resources...), nil
	}
	return append([]provider.Candidate(nil), d.Results...), nil
}

// QueryCount returns how many searches were issued.
func (d *DummySearchProvider) QueryCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Queries)
}

// DummyBacklinkProvider serves Profiles by domain; Errs fails chosen domains.
type DummyBacklinkProvider struct {
	Profiles map[string]*provider.BacklinkProfile
	Errs     map[string]error
	Delay    time.Duration
}

func (d *DummyBacklinkProvider) Profile(ctx context.Context, domain string) (*provider.BacklinkProfile, error) {
	if err := wait(ctx, d.Delay, nil); err != nil {
		return nil, err
	}
	if err, ok := d.Errs[domain]; ok {
		return nil, err
	}
	if p, ok := d.Profiles[domain]; ok {
		return p, nil
	}
	return &provider.BacklinkProfile{}, nil
}

// DummyContactProvider returns Info for every domain unless Errs names it.
type DummyContactProvider struct {
	Info *model.ContactInfo
	Errs map[string]error

	mu    sync.Mutex
	Calls []string
}

func (d *DummyContactProvider) Contact(ctx context.Context, domain string) (*model.ContactInfo, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, domain)
	d.mu.Unlock()
	if err, ok := d.Errs[domain]; ok {
		return nil, err
	}
	if d.Info == nil {
		return nil, nil
	}
	cp := *d.Info
	return &cp, nil
}

// CallCount returns how many lookups were made.
func (d *DummyContactProvider) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// DummyLinkChecker returns Links for every domain.
type DummyLinkChecker struct {
	Links []provider.DeadLink
	Err   error
	Delay time.Duration
}

func (d *DummyLinkChecker) DeadLinks(ctx context.Context, domain string) ([]provider.DeadLink, error) {
	if err := wait(ctx, d.Delay, nil); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]provider.DeadLink(nil), d.Links...), nil
}

// DummyDomainRater returns Ratings[domain], or nil when absent.
type DummyDomainRater struct {
	Ratings map[string]float64
	Err     error
}

func (d *DummyDomainRater) DomainRating(_ context.Context, domain string) (*float64, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if r, ok := d.Ratings[domain]; ok {
		return &r, nil
	}
	return nil, nil
}

// ─── Store ─────────────────────────────────────────────────────────────

// FlakyStore wraps a Store and fails selected writes. Each *Failures field
// is the number of upcoming calls of that kind that fail; -1 fails forever.
// FailDomains makes competitor-analysis inserts for those domains always fail.
type FlakyStore struct {
	store.Store

	mu                  sync.Mutex
	SERPFailures        int
	OpportunityFailures int
	AnalysisFailures    int
	FailDomains         map[string]bool
	Attempts            map[string]int
}

func NewFlakyStore(inner store.Store) *FlakyStore {
	return &FlakyStore{Store: inner, Attempts: map[string]int{}}
}

func (f *FlakyStore) take(counter *int, op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attempts[op]++
	if *counter == 0 {
		return false
	}
	if *counter > 0 {
		*counter--
	}
	return true
}

func (f *FlakyStore) Attempt(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Attempts[op]
}

func (f *FlakyStore) InsertSERPResult(ctx context.Context, r *model.SERPResult) (bool, error) {
	if f.take(&f.SERPFailures, "serp") {
		return false, &model.PersistenceError{Op: "insert serp result", Err: &errString{"injected failure"}}
	}
	return f.Store.InsertSERPResult(ctx, r)
}

func (f *FlakyStore) InsertOpportunity(ctx context.Context, sessionID string, o *model.LinkOpportunity) (bool, error) {
	if f.take(&f.OpportunityFailures, "opportunity") {
		return false, &model.PersistenceError{Op: "insert opportunity", Err: &errString{"injected failure"}}
	}
	return f.Store.InsertOpportunity(ctx, sessionID, o)
}

func (f *FlakyStore) InsertCompetitorAnalysis(ctx context.Context, a *model.CompetitorAnalysis) error {
	f.mu.Lock()
	failDomain := f.FailDomains[a.CompetitorDomain]
	f.mu.Unlock()
	if failDomain || f.take(&f.AnalysisFailures, "analysis") {
		return &model.PersistenceError{Op: "insert competitor analysis", Err: &errString{"injected failure"}}
	}
	return f.Store.InsertCompetitorAnalysis(ctx, a)
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
