package provider

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
)

// Fixture serves deterministic canned data for every provider interface.
// Values that vary per domain come from an FNV hash of the domain, so the
// same input always yields the same output. The exported datasets may be
// replaced before use.
type Fixture struct {
	SERP      []Candidate
	Resources []Candidate
	Ratings   map[string]float64
	Now       func() time.Time
}

func f64(v float64) *float64 { return &v }

// NewFixture returns a Fixture loaded with the built-in datasets.
func NewFixture() *Fixture {
	return &Fixture{
		SERP: []Candidate{
			{Position: 1, URL: "https://techcrunch.com/ai-tools-marketing", Domain: "techcrunch.com",
				Title: "Best AI Tools for Marketing in 2024", Snippet: "Comprehensive guide to AI marketing tools...", DomainRating: f64(93)},
			{Position: 2, URL: "https://hubspot.com/marketing-ai-guide", Domain: "hubspot.com",
				Title: "AI Marketing: Complete Guide", Snippet: "Learn how to use AI for marketing...", DomainRating: f64(89)},
			{Position: 3, URL: "https://marketingland.com/ai-tools-list", Domain: "marketingland.com",
				Title: "50 AI Marketing Tools You Should Know", Snippet: "Curated list of the best AI tools...", DomainRating: f64(76)},
			{Position: 4, URL: "https://blog.buffer.com/ai-marketing", Domain: "buffer.com",
				Title: "How We Use AI for Social Media Marketing", Snippet: "Case study on AI implementation...", DomainRating: f64(82)},
			{Position: 5, URL: "https://contentmarketinginstitute.com/ai", Domain: "contentmarketinginstitute.com",
				Title: "AI Content Marketing Strategies", Snippet: "Expert insights on AI content...", DomainRating: f64(78)},
		},
		Resources: []Candidate{
			{Position: 1, URL: "https://awesomemarketingtools.com/resources", Domain: "awesomemarketingtools.com",
				Title: "Marketing Tools and Resources", DomainRating: f64(45)},
			{Position: 2, URL: "https://digitalmarketinginstitute.com/tools", Domain: "digitalmarketinginstitute.com",
				Title: "Digital Marketing Tools Directory", DomainRating: f64(72)},
			{Position: 3, URL: "https://marketingland.com/tools", Domain: "marketingland.com",
				Title: "Marketing Tools We Recommend", DomainRating: f64(76)},
		},
		Ratings: map[string]float64{
			"techcrunch.com":                93,
			"hubspot.com":                   89,
			"marketingland.com":             76,
			"buffer.com":                    82,
			"contentmarketinginstitute.com": 78,
			"forbes.com":                    94,
			"entrepreneur.com":              87,
			"inc.com":                       91,
			"awesomemarketingtools.com":     45,
			"digitalmarketinginstitute.com": 72,
		},
		Now: time.Now,
	}
}

func domainHash(domain string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(utils.DomainKey(domain)))
	return h.Sum32()
}

// Search returns up to q.Depth candidates from the dataset matching q.Purpose.
func (f *Fixture) Search(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := f.SERP
	if q.Purpose == PurposeResources {
		src = f.Resources
	}
	n := len(src)
	if q.Depth > 0 && q.Depth < n {
		n = q.Depth
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		c := src[i]
		h := domainHash(c.Domain)
		if c.BacklinkCount == nil {
			bl := 1000 + int(h%50000)
			c.BacklinkCount = &bl
		}
		if c.LastUpdated.IsZero() {
			c.LastUpdated = now.Add(-time.Duration(h%90) * 24 * time.Hour).Truncate(time.Hour)
		}
		c.HasBrokenLinks = c.HasBrokenLinks || h%10 >= 3
		out[i] = c
	}
	return out, nil
}

// Profile returns a canned backlink profile. Ratings and counts are hashed
// from the domain into the ranges the dataset was modeled on.
func (f *Fixture) Profile(ctx context.Context, domain string) (*BacklinkProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := domainHash(domain)
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	resourceInclusion := "resource_inclusion"
	similarRoundup := "similar_roundup"

	return &BacklinkProfile{
		DomainRating:     float64(50 + h%40),
		BacklinkCount:    10000 + int(h%100000),
		ReferringDomains: 500 + int(h%5000),
		TopKeywords:      []string{"marketing automation", "digital tools"},
		Sources: []model.BacklinkSource{
			{
				Domain: "forbes.com", URL: "https://forbes.com/tech-startups-2024",
				AnchorText: "innovative marketing platform", Context: "Article about tech startups",
				DomainRating: 94, LinkType: model.LinkDofollow, FirstSeen: day("2024-01-15"),
			},
			{
				Domain: "entrepreneur.com", URL: "https://entrepreneur.com/marketing-tools-guide",
				AnchorText: "best marketing tools", Context: "Resource list article",
				DomainRating: 87, LinkType: model.LinkDofollow, FirstSeen: day("2024-02-03"),
				OpportunityAvailable: true, OpportunityType: &resourceInclusion,
			},
			{
				Domain: "inc.com", URL: "https://inc.com/small-business-tools",
				AnchorText: utils.DomainKey(domain), Context: "Small business tools roundup",
				DomainRating: 91, LinkType: model.LinkDofollow, FirstSeen: day("2024-01-28"),
				OpportunityAvailable: true, OpportunityType: &similarRoundup,
			},
		},
	}, nil
}

// Contact returns the conventional contact channels for a domain.
func (f *Fixture) Contact(ctx context.Context, domain string) (*model.ContactInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := utils.DomainKey(domain)
	return &model.ContactInfo{
		Email:          "contact@" + d,
		ContactForm:    utils.SiteURL(d, "/contact"),
		SocialProfiles: []string{"https://twitter.com/" + strings.SplitN(d, ".", 2)[0]},
	}, nil
}

// DeadLinks reports two stale outbound links per domain with supplied
// relevance, as the canned crawl did.
func (f *Fixture) DeadLinks(ctx context.Context, domain string) ([]DeadLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := utils.DomainKey(domain)
	return []DeadLink{
		{
			ContextPage: utils.SiteURL(d, "/resources"),
			BrokenURL:   utils.SiteURL(d, "/old-resource"),
			AnchorText:  "comprehensive guide",
			StatusCode:  404,
			Relevance:   f64(85),
		},
		{
			ContextPage: utils.SiteURL(d, "/tools"),
			BrokenURL:   utils.SiteURL(d, "/outdated-tool"),
			AnchorText:  "useful tool",
			StatusCode:  404,
			Relevance:   f64(72),
		},
	}, nil
}

// DomainRating looks the domain up in Ratings, falling back to a hashed
// value in [40,80).
func (f *Fixture) DomainRating(ctx context.Context, domain string) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r, ok := f.Ratings[utils.DomainKey(domain)]; ok {
		return f64(r), nil
	}
	return f64(float64(40 + domainHash(domain)%40)), nil
}
