package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/utils"
	"github.com/raysh454/linkscout/internal/webclient"
)

// SearchAPIConfig points SearchAPI at a JSON search endpoint.
type SearchAPIConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	APIKey   string `yaml:"api_key" json:"api_key"`

	// KeyHeader carries APIKey; "X-API-Key" when empty.
	KeyHeader string `yaml:"key_header" json:"key_header"`
}

// SearchAPI queries an endpoint answering
// GET ?q=&location=&language=&num=&purpose= with {"results": [Candidate...]}.
type SearchAPI struct {
	cfg    SearchAPIConfig
	wc     webclient.WebClient
	logger logging.Logger
}

type searchAPIResponse struct {
	Results []Candidate `json:"results"`
}

func NewSearchAPI(cfg SearchAPIConfig, wc webclient.WebClient, logger logging.Logger) (*SearchAPI, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("search api: endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("search api: bad endpoint: %w", err)
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg.KeyHeader == "" {
		cfg.KeyHeader = "X-API-Key"
	}
	return &SearchAPI{cfg: cfg, wc: wc, logger: logger.With(logging.Field{Key: "component", Value: "search_api"})}, nil
}

func (s *SearchAPI) Search(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	u, _ := url.Parse(s.cfg.Endpoint)
	params := u.Query()
	params.Set("q", q.Keyword)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.Depth > 0 {
		params.Set("num", strconv.Itoa(q.Depth))
	}
	if q.Purpose != "" {
		params.Set("purpose", string(q.Purpose))
	}
	u.RawQuery = params.Encode()

	req := &webclient.Request{Method: http.MethodGet, URL: u.String(), Headers: http.Header{"Accept": {"application/json"}}}
	if s.cfg.APIKey != "" {
		req.Headers.Set(s.cfg.KeyHeader, s.cfg.APIKey)
	}

	resp, err := s.wc.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var body searchAPIResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]Candidate, 0, len(body.Results))
	for i, c := range body.Results {
		if c.Domain == "" {
			c.Domain = utils.DomainFromURL(c.URL)
		}
		if c.Position <= 0 {
			c.Position = i + 1
		}
		out = append(out, c)
	}
	s.logger.Debug("search api results", logging.Field{Key: "query", Value: q.Keyword}, logging.Field{Key: "count", Value: len(out)})
	return out, nil
}
