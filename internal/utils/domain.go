package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// DomainKey normalizes a domain for deduplication: lower-cased, IDNA
// ASCII (punycode), trailing dot and a leading "www." removed. Inputs that
// look like URLs are reduced to their host first.
func DomainKey(domain string) string {
	host := strings.TrimSpace(domain)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			host = u.Hostname()
		}
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	return strings.TrimPrefix(host, "www.")
}

// DomainFromURL returns the normalized host of raw, or "" when raw has no host.
func DomainFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return DomainKey(u.Hostname())
}

// RegistrableDomain returns the eTLD+1 for a host ("blog.buffer.com" ->
// "buffer.com"). Hosts without a public suffix are returned normalized.
func RegistrableDomain(domain string) string {
	key := DomainKey(domain)
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(key); err == nil {
		return etld1
	}
	return key
}

// SameSite reports whether two hosts share a registrable domain.
func SameSite(a, b string) bool {
	return RegistrableDomain(a) == RegistrableDomain(b)
}

// FirstLabel returns the leftmost label of the registrable domain
// ("blog.buffer.com" -> "buffer").
func FirstLabel(domain string) string {
	reg := RegistrableDomain(domain)
	label, _, _ := strings.Cut(reg, ".")
	return label
}
