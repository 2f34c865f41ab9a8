package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/linkscout/internal/enumerator"
	"github.com/raysh454/linkscout/internal/fetcher"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/utils"
)

// HTMLLinkChecker finds dead outbound links on a domain's resource-style
// pages.
type HTMLLinkChecker struct {
	fetcher *fetcher.Fetcher
	logger  logging.Logger

	// Scheme used to build page URLs; "https" when empty.
	Scheme string

	// Paths are the pages inspected on each domain.
	Paths []string

	// MaxLinks caps checked links per domain. Zero means 200.
	MaxLinks int

	// Crawler, when set, adds the same-site pages reachable from the home
	// page to Paths.
	Crawler enumerator.Enumerator
}

func NewHTMLLinkChecker(f *fetcher.Fetcher, logger logging.Logger) *HTMLLinkChecker {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &HTMLLinkChecker{
		fetcher: f,
		logger:  logger.With(logging.Field{Key: "component", Value: "html_link_checker"}),
		Paths:   []string{"/", "/resources", "/tools", "/links"},
	}
}

type outboundLink struct {
	page, href, anchor string
}

// DeadLinks fetches the pages, collects outbound anchors and checks each
// distinct target once. Every page failing to load is an error.
func (c *HTMLLinkChecker) DeadLinks(ctx context.Context, domain string) ([]DeadLink, error) {
	pages := c.fetcher.FetchAll(ctx, c.pages(ctx, domain))

	var links []outboundLink
	loaded := 0
	for _, p := range pages {
		if p.Err != nil {
			c.logger.Debug("page fetch failed", logging.Field{Key: "url", Value: p.URL}, logging.Err(p.Err))
			continue
		}
		if !p.Response.OK() {
			continue
		}
		loaded++
		found, err := outboundLinks(p.URL, p.Response.Body)
		if err != nil {
			c.logger.Debug("unparseable page", logging.Field{Key: "url", Value: p.URL}, logging.Err(err))
			continue
		}
		links = append(links, found...)
	}
	if loaded == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no pages loaded for %s", domain)
	}

	limit := c.MaxLinks
	if limit <= 0 {
		limit = 200
	}
	targets := make([]string, 0)
	seen := map[string]bool{}
	for _, l := range links {
		key := utils.LinkKey(l.href)
		if seen[key] {
			continue
		}
		seen[key] = true
		targets = append(targets, l.href)
		if len(targets) == limit {
			break
		}
	}

	status := map[string]fetcherStatus{}
	for _, s := range c.fetcher.CheckAll(ctx, targets) {
		status[utils.LinkKey(s.URL)] = fetcherStatus{dead: s.Dead(), code: s.StatusCode}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]DeadLink, 0)
	reported := map[string]bool{}
	for _, l := range links {
		key := utils.LinkKey(l.href)
		st, checked := status[key]
		if !checked || !st.dead || reported[l.page+" "+key] {
			continue
		}
		reported[l.page+" "+key] = true
		out = append(out, DeadLink{
			ContextPage: l.page,
			BrokenURL:   l.href,
			AnchorText:  l.anchor,
			StatusCode:  st.code,
		})
	}
	return out, nil
}

// pages lists the configured paths followed by crawled pages, without repeats.
func (c *HTMLLinkChecker) pages(ctx context.Context, domain string) []string {
	urls := make([]string, 0, len(c.Paths))
	seen := map[string]bool{}
	add := func(u string) {
		key := utils.LinkKey(u)
		if seen[key] {
			return
		}
		seen[key] = true
		urls = append(urls, u)
	}
	for _, p := range c.Paths {
		add(pageURL(c.Scheme, domain, p))
	}
	if c.Crawler == nil {
		return urls
	}
	found, err := c.Crawler.Enumerate(ctx, pageURL(c.Scheme, domain, "/"))
	if err != nil {
		c.logger.Debug("crawl failed", logging.Field{Key: "domain", Value: domain}, logging.Err(err))
		return urls
	}
	for _, u := range found {
		add(u)
	}
	return urls
}

type fetcherStatus struct {
	dead bool
	code int
}

// outboundLinks returns absolute http(s) anchors pointing off the page's host.
func outboundLinks(page string, body []byte) ([]outboundLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(page)
	if err != nil {
		return nil, err
	}
	pageHost := utils.DomainKey(base.Host)

	var out []outboundLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := utils.Resolve(page, href)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		if utils.DomainKey(u.Host) == pageHost {
			return
		}
		out = append(out, outboundLink{
			page:   page,
			href:   abs,
			anchor: strings.Join(strings.Fields(s.Text()), " "),
		})
	})
	return out, nil
}
