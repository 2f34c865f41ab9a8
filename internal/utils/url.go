package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL    = errors.New("empty url")
	ErrMissingHost = errors.New("missing host")
)

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	DropTrackingParams bool   // remove utm_*, gclid, fbclid, ...
	StripTrailingSlash bool   // /a and /a/ compare equal (root "/" kept)
	DefaultScheme      string // assumed for schemeless input; empty requires a scheme
}

var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize returns a deterministic URL string, used to key link
// records so that trivially different spellings of a page collapse.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s: %w", raw, ErrMissingHost)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"):
		u.Host = host
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	default:
		u.Host = host
	}
	u.User = nil
	u.Fragment = ""

	p := path.Clean(u.Path)
	if p == "." {
		p = "/"
	}
	if opts.StripTrailingSlash && len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	u.Path = p

	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if _, ok := trackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		vals := q[k]
		sort.Strings(vals)
		for _, v := range vals {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// LinkKey canonicalizes raw for comparisons, falling back to the trimmed
// input when it cannot be parsed.
func LinkKey(raw string) string {
	c, err := Canonicalize(raw, CanonicalizeOptions{DropTrackingParams: true, StripTrailingSlash: true, DefaultScheme: "https"})
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return c
}

// Resolve resolves ref against base and drops the fragment.
//
//	Resolve("https://example.com/app/", "users")    -> "https://example.com/app/users"
//	Resolve("https://example.com/app/", "../login") -> "https://example.com/login"
//	Resolve("https://example.com/app/", "https://foo.com/x") -> "https://foo.com/x"
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("couldn't parse base %s: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("couldn't parse ref %s: %w", ref, err)
	}
	out := b.ResolveReference(r)
	out.Fragment = ""
	return out.String(), nil
}

// SiteURL builds "https://<domain><path>".
func SiteURL(domain, p string) string {
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "https://" + DomainKey(domain) + p
}
