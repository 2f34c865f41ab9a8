package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/linkscout/internal/fetcher"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
)

var socialHosts = []string{
	"twitter.com", "x.com", "linkedin.com", "facebook.com", "instagram.com", "youtube.com", "github.com",
}

// HTMLContactFinder discovers contact channels by reading a domain's home
// and contact pages.
type HTMLContactFinder struct {
	fetcher *fetcher.Fetcher
	logger  logging.Logger

	// Scheme used to build page URLs; "https" when empty.
	Scheme string

	// ContactPaths are fetched alongside the home page.
	ContactPaths []string
}

func NewHTMLContactFinder(f *fetcher.Fetcher, logger logging.Logger) *HTMLContactFinder {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &HTMLContactFinder{
		fetcher:      f,
		logger:       logger.With(logging.Field{Key: "component", Value: "html_contact_finder"}),
		ContactPaths: []string{"/contact", "/contact-us", "/write-for-us"},
	}
}

func pageURL(scheme, domain, path string) string {
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(strings.TrimSpace(domain))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + host + path
}

// Contact fetches the pages and merges what they contain. The home page
// failing is an error; contact pages failing are not.
func (h *HTMLContactFinder) Contact(ctx context.Context, domain string) (*model.ContactInfo, error) {
	urls := []string{pageURL(h.Scheme, domain, "/")}
	for _, p := range h.ContactPaths {
		urls = append(urls, pageURL(h.Scheme, domain, p))
	}
	pages := h.fetcher.FetchAll(ctx, urls)

	home := pages[0]
	if home.Err != nil {
		return nil, fmt.Errorf("fetch home page of %s: %w", domain, home.Err)
	}

	info := &model.ContactInfo{}
	seenSocial := map[string]bool{}
	for _, p := range pages {
		if p.Err != nil || !p.Response.OK() {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Response.Body))
		if err != nil {
			h.logger.Debug("unparseable page", logging.Field{Key: "url", Value: p.URL}, logging.Err(err))
			continue
		}
		h.extract(doc, p.URL, info, seenSocial)
	}

	if info.Empty() {
		return nil, nil
	}
	return info, nil
}

func (h *HTMLContactFinder) extract(doc *goquery.Document, base string, info *model.ContactInfo, seenSocial map[string]bool) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)

		if addr, ok := strings.CutPrefix(strings.ToLower(href), "mailto:"); ok {
			addr, _, _ = strings.Cut(addr, "?")
			if info.Email == "" && strings.Contains(addr, "@") {
				info.Email = addr
			}
			return
		}

		abs, err := utils.Resolve(base, href)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		host := utils.DomainKey(u.Host)
		for _, sh := range socialHosts {
			if host == sh && strings.Trim(u.Path, "/") != "" && !seenSocial[abs] {
				seenSocial[abs] = true
				info.SocialProfiles = append(info.SocialProfiles, abs)
				return
			}
		}
	})

	// A page with a form that posts somewhere counts as a contact form.
	if info.ContactForm == "" && doc.Find("form textarea, form input[type=email]").Length() > 0 {
		info.ContactForm = base
	}
}
