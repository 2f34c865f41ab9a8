package enumerator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/utils"
	"github.com/raysh454/linkscout/internal/webclient"
)

// Spider walks same-site anchors breadth first from a root page.
type Spider struct {
	MaxDepth int

	// MaxPages caps the result. Zero means 50.
	MaxPages int

	wc     webclient.WebClient
	logger logging.Logger
}

type spiderHelper struct {
	spider  *Spider
	root    *url.URL
	depth   map[string]int
	results []string
}

func NewSpider(maxDepth int, wc webclient.WebClient, logger logging.Logger) *Spider {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Spider{
		MaxDepth: maxDepth,
		wc:       wc,
		logger:   logger.With(logging.Field{Key: "component", Value: "spider"}),
	}
}

func (s *Spider) maxPages() int {
	if s.MaxPages <= 0 {
		return 50
	}
	return s.MaxPages
}

func newSpiderHelper(spider *Spider, root string) (*spiderHelper, error) {
	canon, err := utils.Canonicalize(root, utils.CanonicalizeOptions{StripTrailingSlash: true})
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(canon)
	if err != nil {
		return nil, err
	}
	return &spiderHelper{
		spider:  spider,
		root:    u,
		depth:   map[string]int{canon: 0},
		results: []string{canon},
	}, nil
}

func extractLinksHTML(node *html.Node, links *[]string) {
	if node.Type == html.ElementNode && node.Data == "a" {
		for _, attr := range node.Attr {
			if attr.Key == "href" {
				*links = append(*links, attr.Val)
			}
		}
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		extractLinksHTML(c, links)
	}
}

func (sh *spiderHelper) crawlPage(ctx context.Context, target string) ([]string, error) {
	resp, err := sh.spider.wc.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("error making http request: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("received %d from target", resp.StatusCode)
	}
	if ct := resp.Headers.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "text/html") {
		return nil, nil
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", target, err)
	}
	var raw []string
	extractLinksHTML(doc, &raw)

	links := make([]string, 0, len(raw))
	for _, href := range raw {
		abs, err := utils.Resolve(target, href)
		if err != nil {
			sh.spider.logger.Debug("couldn't resolve link",
				logging.Field{Key: "href", Value: href}, logging.Err(err))
			continue
		}
		links = append(links, abs)
	}
	return links, nil
}

// appendPages queues same-host http(s) pages not seen before.
func (sh *spiderHelper) appendPages(pages []string, lastDepth int) {
	for _, page := range pages {
		canon, err := utils.Canonicalize(page, utils.CanonicalizeOptions{StripTrailingSlash: true})
		if err != nil {
			continue
		}
		u, err := url.Parse(canon)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if !strings.EqualFold(u.Host, sh.root.Host) {
			continue
		}
		if _, exists := sh.depth[canon]; exists {
			continue
		}
		if len(sh.results) >= sh.spider.maxPages() {
			return
		}
		sh.depth[canon] = lastDepth + 1
		sh.results = append(sh.results, canon)
	}
}

func (sh *spiderHelper) run(ctx context.Context) error {
	for curr := 0; curr < len(sh.results); curr++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := sh.results[curr]
		depth := sh.depth[page]
		if depth >= sh.spider.MaxDepth {
			continue
		}
		found, err := sh.crawlPage(ctx, page)
		if err != nil {
			sh.spider.logger.Debug("error while crawling page",
				logging.Field{Key: "url", Value: page}, logging.Err(err))
			continue
		}
		sh.appendPages(found, depth)
	}
	return nil
}

// Enumerate returns target followed by the same-site pages reachable within
// MaxDepth links, in discovery order.
func (s *Spider) Enumerate(ctx context.Context, target string) ([]string, error) {
	helper, err := newSpiderHelper(s, target)
	if err != nil {
		return nil, err
	}
	if err := helper.run(ctx); err != nil {
		return nil, err
	}
	return helper.results, nil
}
