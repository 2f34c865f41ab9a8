package utils_test

import (
	"testing"

	"github.com/raysh454/linkscout/internal/utils"
)

func TestDomainKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{"www.hubspot.com", "hubspot.com"},
		{"  blog.buffer.com. ", "blog.buffer.com"},
		{"https://www.TechCrunch.com/ai-tools-marketing", "techcrunch.com"},
		{"例え.テスト", "xn--r8jz45g.xn--zckzah"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := utils.DomainKey(tt.in); got != tt.want {
			t.Errorf("DomainKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDomainFromURL(t *testing.T) {
	t.Parallel()
	if got := utils.DomainFromURL("https://WWW.inc.com/tools?x=1"); got != "inc.com" {
		t.Errorf("expected inc.com, got %q", got)
	}
	if got := utils.DomainFromURL("/relative/path"); got != "" {
		t.Errorf("expected empty domain for relative url, got %q", got)
	}
}

func TestRegistrableDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"blog.buffer.com", "buffer.com"},
		{"news.bbc.co.uk", "bbc.co.uk"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		if got := utils.RegistrableDomain(tt.in); got != tt.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !utils.SameSite("blog.buffer.com", "www.buffer.com") {
		t.Error("expected blog.buffer.com and www.buffer.com to be the same site")
	}
	if got := utils.FirstLabel("blog.buffer.com"); got != "buffer" {
		t.Errorf("FirstLabel = %q, want buffer", got)
	}
}
