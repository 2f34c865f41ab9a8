package provider_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/webclient"
)

func TestSearchAPI_Search(t *testing.T) {
	t.Parallel()
	var gotQuery, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[
			{"url":"https://www.inc.com/tools","title":"Tools","domain_rating":91},
			{"position":7,"url":"https://buffer.com/x","domain":"buffer.com","title":"Buffer"}
		]}`)
	}))
	defer ts.Close()

	wc, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop{}, ts.Client())
	api, err := provider.NewSearchAPI(provider.SearchAPIConfig{Endpoint: ts.URL + "/search", APIKey: "secret"}, wc, logging.Nop{})
	if err != nil {
		t.Fatalf("NewSearchAPI: %v", err)
	}

	got, err := api.Search(context.Background(), provider.SearchQuery{Keyword: "ai tools", Language: "en", Depth: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotQuery != "language=en&num=10&q=ai+tools" {
		t.Errorf("unexpected query string %q", gotQuery)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Domain != "inc.com" || got[0].Position != 1 || *got[0].DomainRating != 91 {
		t.Errorf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Position != 7 {
		t.Errorf("expected explicit position kept, got %d", got[1].Position)
	}
}

func TestSearchAPI_ErrorStatus(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	wc, _ := webclient.NewNetHTTPClient(webclient.Config{}, logging.Nop{}, ts.Client())
	api, _ := provider.NewSearchAPI(provider.SearchAPIConfig{Endpoint: ts.URL}, wc, logging.Nop{})
	if _, err := api.Search(context.Background(), provider.SearchQuery{Keyword: "x"}); err == nil {
		t.Fatal("expected error for 429")
	}
	if _, err := provider.NewSearchAPI(provider.SearchAPIConfig{}, wc, nil); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
