package provider_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/linkscout/internal/enumerator"
	"github.com/raysh454/linkscout/internal/fetcher"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/webclient"
)

func newFetcher(t *testing.T) *fetcher.Fetcher {
	t.Helper()
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { wc.Close() })
	f, err := fetcher.New(fetcher.Config{MaxConcurrency: 4}, wc, logging.Nop{})
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}
	return f
}

func hostOf(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestHTMLContactFinder_ExtractsChannels(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<html><body>
			<a href="mailto:Editor@Example.com?subject=hi">Email us</a>
			<a href="https://twitter.com/examplehq">Twitter</a>
			<a href="https://twitter.com/">Twitter home</a>
			<a href="/about">About</a>
		</body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><form action="/send"><input type="email" name="from"><textarea></textarea></form>
			<a href="https://www.linkedin.com/company/example">LinkedIn</a>
			<a href="https://twitter.com/examplehq">Twitter again</a></body></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	finder := provider.NewHTMLContactFinder(newFetcher(t), logging.Nop{})
	finder.Scheme = "http"

	info, err := finder.Contact(context.Background(), hostOf(ts))
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if info == nil {
		t.Fatal("expected contact info")
	}
	if info.Email != "editor@example.com" {
		t.Errorf("expected editor@example.com, got %q", info.Email)
	}
	if info.ContactForm != ts.URL+"/contact" {
		t.Errorf("expected contact form at %s/contact, got %q", ts.URL, info.ContactForm)
	}
	if len(info.SocialProfiles) != 2 {
		t.Errorf("expected 2 distinct social profiles, got %v", info.SocialProfiles)
	}
}

func TestHTMLContactFinder_NothingFoundIsNil(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><p>No contact here</p></body></html>`)
	}))
	defer ts.Close()

	finder := provider.NewHTMLContactFinder(newFetcher(t), logging.Nop{})
	finder.Scheme = "http"

	info, err := finder.Contact(context.Background(), hostOf(ts))
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil info, got %+v", info)
	}
}

func TestHTMLContactFinder_UnreachableIsError(t *testing.T) {
	t.Parallel()
	finder := provider.NewHTMLContactFinder(newFetcher(t), logging.Nop{})
	finder.Scheme = "http"
	if _, err := finder.Contact(context.Background(), "127.0.0.1:1"); err == nil {
		t.Fatal("expected error for unreachable domain")
	}
}

func TestHTMLLinkChecker_ReportsDeadOutboundLinks(t *testing.T) {
	t.Parallel()
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resources" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<html><body>
			<a href="`+target.URL+`/alive">Alive tool</a>
			<a href="`+target.URL+`/gone">  Comprehensive
				guide </a>
			<a href="`+target.URL+`/gone#again">Same dead link</a>
			<a href="http://127.0.0.1:1/unreachable">Old vendor</a>
			<a href="/about">Internal</a>
			<a href="mailto:x@y.com">Mail</a>
		</body></html>`)
	}))
	defer site.Close()

	checker := provider.NewHTMLLinkChecker(newFetcher(t), logging.Nop{})
	checker.Scheme = "http"
	checker.Paths = []string{"/resources", "/missing"}

	dead, err := checker.DeadLinks(context.Background(), hostOf(site))
	if err != nil {
		t.Fatalf("DeadLinks: %v", err)
	}

	byURL := map[string]provider.DeadLink{}
	for _, d := range dead {
		byURL[d.BrokenURL] = d
	}
	gone, ok := byURL[target.URL+"/gone"]
	if !ok {
		t.Fatalf("expected %s/gone reported dead, got %+v", target.URL, dead)
	}
	if gone.AnchorText != "Comprehensive guide" || gone.StatusCode != 404 {
		t.Errorf("unexpected dead link: %+v", gone)
	}
	if gone.ContextPage != site.URL+"/resources" {
		t.Errorf("expected context page %s/resources, got %s", site.URL, gone.ContextPage)
	}
	if _, ok := byURL["http://127.0.0.1:1/unreachable"]; !ok {
		t.Error("expected unreachable link reported dead")
	}
	if _, ok := byURL[target.URL+"/alive"]; ok {
		t.Error("live link reported dead")
	}
}

func TestHTMLLinkChecker_NoPagesIsError(t *testing.T) {
	t.Parallel()
	checker := provider.NewHTMLLinkChecker(newFetcher(t), logging.Nop{})
	checker.Scheme = "http"
	if _, err := checker.DeadLinks(context.Background(), "127.0.0.1:1"); err == nil {
		t.Fatal("expected error when no page loads")
	}
}

func TestHTMLLinkChecker_CrawlsSamesitePages(t *testing.T) {
	t.Parallel()
	target := httptest.NewServer(http.NotFoundHandler())
	defer target.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			io.WriteString(w, `<a href="/partners">Partners</a>`)
		case "/partners":
			io.WriteString(w, `<a href="`+target.URL+`/retired">Retired partner</a>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer site.Close()

	wc, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: 5 * time.Second}, logging.Nop{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	checker := provider.NewHTMLLinkChecker(newFetcher(t), logging.Nop{})
	checker.Scheme = "http"
	checker.Paths = []string{"/"}
	checker.Crawler = enumerator.NewSpider(1, wc, logging.Nop{})

	dead, err := checker.DeadLinks(context.Background(), hostOf(site))
	if err != nil {
		t.Fatalf("DeadLinks: %v", err)
	}
	if len(dead) != 1 || dead[0].ContextPage != site.URL+"/partners" || dead[0].AnchorText != "Retired partner" {
		t.Fatalf("expected the crawled page's dead link, got %+v", dead)
	}
}
