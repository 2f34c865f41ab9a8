package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/linkscout/internal/provider"
	"github.com/raysh454/linkscout/internal/store"
	"github.com/raysh454/linkscout/internal/webclient"
)

// Duration wraps time.Duration so YAML can say "15s" or a number of seconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	case int:
		d.Duration = time.Duration(v) * time.Second
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("unsupported duration type %T", raw)
	}
	return nil
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageSQLite StorageDriver = "sqlite"
	StorageRedis  StorageDriver = "redis"
)

type StorageConfig struct {
	Driver StorageDriver     `yaml:"driver"`
	Path   string            `yaml:"path"`
	Redis  store.RedisConfig `yaml:"redis"`
}

type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

type WebClientConfig struct {
	Client    webclient.Client `yaml:"client"`
	Timeout   Duration         `yaml:"timeout"`
	UserAgent string           `yaml:"user_agent"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`

	// MaxConcurrency bounds in-flight page fetches and link checks.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ProvidersConfig picks an implementation per external data source.
// Backlink profiles and domain ratings always come from the fixture.
type ProvidersConfig struct {
	Search  string `yaml:"search"`  // fixture | api
	Contact string `yaml:"contact"` // fixture | html
	Links   string `yaml:"links"`   // fixture | html

	// Scheme is used by the html providers to build page URLs.
	Scheme string `yaml:"scheme"`
	// CrawlDepth is how far the html link checker follows same-site links.
	CrawlDepth int                      `yaml:"crawl_depth"`
	SearchAPI  provider.SearchAPIConfig `yaml:"search_api"`
}

type ScanConfig struct {
	CallTimeout        Duration `yaml:"call_timeout"`
	MaxWorkers         int      `yaml:"max_workers"`
	ResourceMaxQueries int      `yaml:"resource_max_queries"`
	ScoreJitter        int      `yaml:"score_jitter"`
	ScoreSeed          int64    `yaml:"score_seed"`

	// JobRetention is how long finished jobs stay listed.
	JobRetention Duration `yaml:"job_retention"`
}

type LogConfig struct {
	Backend string `yaml:"backend"` // stdout | zap
	Level   string `yaml:"level"`
}

// Config is the whole runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	WebClient WebClientConfig `yaml:"webclient"`
	Providers ProvidersConfig `yaml:"providers"`
	Scan      ScanConfig      `yaml:"scan"`
	Log       LogConfig       `yaml:"log"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   "~/.config/linkscout/linkscout.db",
			Redis:  store.RedisConfig{Addr: "localhost:6379", KeyPrefix: "linkscout:"},
		},
		WebClient: WebClientConfig{
			Client:         webclient.ClientNetHTTP,
			Timeout:        Duration{30 * time.Second},
			RateLimit:      RateLimitConfig{Requests: 5, Window: Duration{time.Second}},
			MaxConcurrency: 8,
		},
		Providers: ProvidersConfig{
			Search:     "fixture",
			Contact:    "fixture",
			Links:      "fixture",
			Scheme:     "https",
			CrawlDepth: 1,
		},
		Scan: ScanConfig{
			CallTimeout:  Duration{15 * time.Second},
			MaxWorkers:   4,
			JobRetention: Duration{time.Hour},
		},
		Log: LogConfig{Backend: "stdout", Level: "info"},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown driver and provider names.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("storage.driver %q: want memory, sqlite or redis", c.Storage.Driver)
	}
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"providers.search", c.Providers.Search, []string{"fixture", "api"}},
		{"providers.contact", c.Providers.Contact, []string{"fixture", "html"}},
		{"providers.links", c.Providers.Links, []string{"fixture", "html"}},
		{"log.backend", c.Log.Backend, []string{"stdout", "zap"}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("%s %q: want one of %s", ch.field, ch.value, strings.Join(ch.allowed, ", "))
		}
	}
	if c.Providers.Search == "api" && c.Providers.SearchAPI.Endpoint == "" {
		return fmt.Errorf("providers.search_api.endpoint is required when providers.search is api")
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// webClientConfig maps the YAML section onto the webclient package's config.
func (c *Config) webClientConfig() webclient.Config {
	return webclient.Config{
		Client:    c.WebClient.Client,
		Timeout:   c.WebClient.Timeout.Duration,
		UserAgent: c.WebClient.UserAgent,
		RateLimit: webclient.RateLimit{
			Requests: c.WebClient.RateLimit.Requests,
			Window:   c.WebClient.RateLimit.Window.Duration,
		},
	}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
