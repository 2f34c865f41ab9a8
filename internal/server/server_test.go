package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/metrics"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/server"
	"github.com/raysh454/linkscout/internal/session"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/testutil"
)

func fixtureProviders() app.Providers {
	f := provider.NewFixture()
	return app.Providers{Search: f, Backlinks: f, Contacts: f, Links: f, Rater: f}
}

func newTestServer(t *testing.T, p app.Providers) *server.Server {
	t.Helper()

	logger := &testutil.DummyLogger{}
	cfg := app.DefaultConfig()
	cfg.Scan.CallTimeout = app.Duration{Duration: time.Minute}

	comps, err := app.NewComponentsWith(cfg, store.NewMemory(), p, logger)
	if err != nil {
		t.Fatalf("NewComponentsWith: %v", err)
	}
	m := metrics.New()
	orch := app.NewOrchestrator(cfg, comps, m, logger)

	s := server.NewServer(server.Config{ListenAddr: ":0", Logger: logger}, orch, m)
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// startScan posts a scan and waits for its pipeline to finish.
func startScan(t *testing.T, s *server.Server, body string) string {
	t.Helper()
	rec := doJSON(t, s, "POST", "/scans", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /scans = %d: %s", rec.Code, rec.Body.String())
	}
	var job app.Job
	decodeJSON(t, rec, &job)
	if j := s.Orchestrator().GetJob(job.ID); j != nil {
		for range j.Events {
		}
	}
	return job.ID
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "GET", "/scans", "")
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "OPTIONS", "/scans/scan_x", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, DELETE" {
		t.Errorf("allow methods = %q", got)
	}
}

// ─── Scans ─────────────────────────────────────────────────────────────

func TestServer_StartScan_BadJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "POST", "/scans", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServer_StartScan_InvalidConfig(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "POST", "/scans", `{"keyword":"","search_depth":10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp server.ErrorResponse
	decodeJSON(t, rec, &resp)
	if !strings.Contains(resp.Error, "keyword") {
		t.Errorf("error = %q, want it to name keyword", resp.Error)
	}
}

func TestServer_ScanLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	id := startScan(t, s, `{"keyword":"ai marketing","search_depth":3,"competitor_domains":["rival.com"],"analysis_depth":"comprehensive"}`)

	rec := doJSON(t, s, "GET", "/scans/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET scan = %d: %s", rec.Code, rec.Body.String())
	}
	var res session.Results
	decodeJSON(t, rec, &res)
	if res.Status != model.StatusCompleted {
		t.Errorf("status = %s (%s), want completed", res.Status, res.FailureReason)
	}
	if len(res.Results) != 3 {
		t.Errorf("results = %d, want 3", len(res.Results))
	}

	rec = doJSON(t, s, "GET", "/scans/"+id+"/opportunities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET opportunities = %d", rec.Code)
	}
	var opps []model.LinkOpportunity
	decodeJSON(t, rec, &opps)
	if len(opps) == 0 {
		t.Error("expected competitor and resource opportunities")
	}

	rec = doJSON(t, s, "GET", "/scans", "")
	var jobs []app.Job
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 1 || jobs[0].ID != id || jobs[0].Status != app.JobDone {
		t.Errorf("jobs = %+v", jobs)
	}

	// Finished scans cannot be canceled.
	rec = doJSON(t, s, "DELETE", "/scans/"+id, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("DELETE finished scan = %d, want 409", rec.Code)
	}
}

func TestServer_UnknownScan(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	for _, tc := range []struct{ method, path string }{
		{"GET", "/scans/scan_missing"},
		{"GET", "/scans/scan_missing/opportunities"},
		{"DELETE", "/scans/scan_missing"},
		{"GET", "/ws/scans/scan_missing"},
	} {
		rec := doJSON(t, s, tc.method, tc.path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestServer_CancelRunningScan(t *testing.T) {
	t.Parallel()
	p := fixtureProviders()
	gate := make(chan struct{})
	defer close(gate)
	p.Search = &testutil.DummySearchProvider{Gate: gate}
	s := newTestServer(t, p)

	rec := doJSON(t, s, "POST", "/scans", `{"keyword":"k","search_depth":5}`)
	var job app.Job
	decodeJSON(t, rec, &job)

	rec = doJSON(t, s, "DELETE", "/scans/"+job.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/scans/"+job.ID, "")
	var res session.Results
	decodeJSON(t, rec, &res)
	if res.Status != model.StatusFailed || res.FailureReason != "canceled" {
		t.Errorf("session = %s %q, want failed canceled", res.Status, res.FailureReason)
	}
}

func TestServer_SearchProviderFailure(t *testing.T) {
	t.Parallel()
	p := fixtureProviders()
	p.Search = &testutil.DummySearchProvider{Err: errString("upstream down")}
	s := newTestServer(t, p)

	rec := doJSON(t, s, "POST", "/opportunities/resource-pages", `{"keywords":["ai"]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_LinkCheckerFailure(t *testing.T) {
	t.Parallel()
	p := fixtureProviders()
	p.Links = &testutil.DummyLinkChecker{Err: errString("crawl failed")}
	s := newTestServer(t, p)

	rec := doJSON(t, s, "POST", "/opportunities/broken-links", `{"domain":"example.com"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// ─── Competitors ───────────────────────────────────────────────────────

func TestServer_CompetitorAnalysisAndHistory(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "GET", "/competitors/rival.com/changes", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("changes before analysis = %d, want 404", rec.Code)
	}

	rec = doJSON(t, s, "POST", "/competitors/analyze", `{"domains":["rival.com"],"keywords":["ai tools"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze = %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Analyses      []model.CompetitorAnalysis `json:"analyses"`
		Opportunities []model.LinkOpportunity    `json:"opportunities"`
	}
	decodeJSON(t, rec, &result)
	if len(result.Analyses) != 1 || len(result.Opportunities) != 2 {
		t.Errorf("analyses=%d opportunities=%d", len(result.Analyses), len(result.Opportunities))
	}

	rec = doJSON(t, s, "GET", "/competitors/rival.com/history?limit=5", "")
	var hist []model.CompetitorAnalysis
	decodeJSON(t, rec, &hist)
	if len(hist) != 1 {
		t.Errorf("history = %d entries, want 1", len(hist))
	}

	rec = doJSON(t, s, "GET", "/competitors/rival.com/changes", "")
	if rec.Code != http.StatusOK {
		t.Errorf("changes = %d, want 200", rec.Code)
	}
}

func TestServer_AnalyzeCompetitors_NoDomains(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "POST", "/competitors/analyze", `{"domains":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ─── Finders ───────────────────────────────────────────────────────────

func TestServer_BrokenLinks(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "POST", "/opportunities/broken-links", `{"domain":"example.com","keywords":["guide"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("broken links = %d: %s", rec.Code, rec.Body.String())
	}
	var opps []model.LinkOpportunity
	decodeJSON(t, rec, &opps)
	if len(opps) != 2 {
		t.Fatalf("opportunities = %d, want 2", len(opps))
	}
	for _, o := range opps {
		if o.OpportunityType != model.OpportunityBrokenLink {
			t.Errorf("type = %s", o.OpportunityType)
		}
	}
}

func TestServer_ResourcePages_FilterValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "POST", "/opportunities/resource-pages", `{"keywords":["ai"],"filters":{"min_domain_rating":-1}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, s, "POST", "/opportunities/resource-pages", `{"keywords":["ai"],"filters":{"min_domain_rating":50}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("resource pages = %d: %s", rec.Code, rec.Body.String())
	}
	var opps []model.LinkOpportunity
	decodeJSON(t, rec, &opps)
	for _, o := range opps {
		if o.EstimatedDA < 50 {
			t.Errorf("%s has DA %.0f below the filter", o.Domain, o.EstimatedDA)
		}
	}
}

// ─── Metrics & docs ────────────────────────────────────────────────────

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())
	startScan(t, s, `{"keyword":"ai","search_depth":2}`)

	rec := doJSON(t, s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"linkscout_scan_sessions_started_total 1",
		`linkscout_scan_sessions_finished_total{status="completed"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, fixtureProviders())

	rec := doJSON(t, s, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json = %d", rec.Code)
	}
	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	decodeJSON(t, rec, &doc)
	if doc.Info.Title != "linkscout API" {
		t.Errorf("title = %q", doc.Info.Title)
	}
	if _, ok := doc.Paths["/scans/{id}"]; !ok {
		t.Error("doc is missing /scans/{id}")
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_ScanWebSocketStreamsEvents(t *testing.T) {
	t.Parallel()
	p := fixtureProviders()
	gate := make(chan struct{})
	p.Search = &testutil.DummySearchProvider{Gate: gate}
	s := newTestServer(t, p)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	rec := doJSON(t, s, "POST", "/scans", `{"keyword":"k","search_depth":5}`)
	var job app.Job
	decodeJSON(t, rec, &job)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/scans/" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var snapshot app.Job
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snapshot.ID != job.ID {
		t.Fatalf("snapshot id = %q", snapshot.ID)
	}

	close(gate)
	var last app.JobEvent
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		last = ev
	}
	if last.Type != app.JobEventResult || last.Status != app.JobDone {
		t.Errorf("last event = %+v, want done result", last)
	}
}
