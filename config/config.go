package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Research  ResearchConfig  `mapstructure:"research"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	JWTSecret      string        `mapstructure:"jwt_secret"` // empty disables auth on /research
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

// Normalize applies defaults for unset server values.
func (s ServerConfig) Normalize() ServerConfig {
	s.Address = strings.TrimSpace(s.Address)
	if s.Address == "" {
		s.Address = ":10001"
	}
	if s.Address[0] != ':' && !strings.Contains(s.Address, ":") {
		s.Address = ":" + s.Address
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"*"}
	}
	return s
}

// ResearchConfig tunes the retrieval-rank-synthesize pipeline.
type ResearchConfig struct {
	PerQueryResults   int           `mapstructure:"per_query_results"`
	FetchK            int           `mapstructure:"fetch_k"`
	Bullets           int           `mapstructure:"bullets"`
	MaxSubqueries     int           `mapstructure:"max_subqueries"`
	MaxTextChars      int           `mapstructure:"max_text_chars"`
	SearchConcurrency int           `mapstructure:"search_concurrency"`
	FetchConcurrency  int           `mapstructure:"fetch_concurrency"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Locale            string        `mapstructure:"locale"`
	CanonicalDedup    bool          `mapstructure:"canonical_dedup"`

	// Neutral stand-ins for the scoring capabilities.
	DisableSimilarity   bool `mapstructure:"disable_similarity"`
	DisableDomainParser bool `mapstructure:"disable_domain_parser"`
}

// Normalize fills zero values with the pipeline defaults.
func (c ResearchConfig) Normalize() ResearchConfig {
	if c.PerQueryResults <= 0 {
		c.PerQueryResults = 5
	}
	if c.FetchK <= 0 {
		c.FetchK = 8
	}
	if c.Bullets <= 0 {
		c.Bullets = 6
	}
	if c.MaxSubqueries <= 0 || c.MaxSubqueries > 6 {
		c.MaxSubqueries = 6
	}
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = 12000
	}
	if c.SearchConcurrency <= 0 {
		c.SearchConcurrency = 3
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 4
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 45 * time.Second
	}
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))
	if c.Locale == "" {
		c.Locale = "es"
	}
	return c
}

// Validate rejects values the pipeline cannot run with.
func (c ResearchConfig) Validate() error {
	if c.PerQueryResults > 50 {
		return fmt.Errorf("research.per_query_results must be <= 50")
	}
	if c.FetchK > 100 {
		return fmt.Errorf("research.fetch_k must be <= 100")
	}
	if c.FetchConcurrency > 64 {
		return fmt.Errorf("research.fetch_concurrency must be <= 64")
	}
	return nil
}

// SourcesConfig contains search and fetch settings
type SourcesConfig struct {
	WebSearch  WebSearchConfig `mapstructure:"web_search"`
	Fetch      FetchConfig     `mapstructure:"fetch"`
	PolicyFile string          `mapstructure:"policy_file"`
}

// WebSearchConfig contains web search settings
type WebSearchConfig struct {
	Provider      string        `mapstructure:"provider"` // duckduckgo, brave, serper
	BraveAPIKey   string        `mapstructure:"brave_api_key"`
	SerperAPIKey  string        `mapstructure:"serper_api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// Validate ensures the selected provider has the credentials it needs.
func (w WebSearchConfig) Validate() error {
	if w.RatePerSecond < 0 {
		return fmt.Errorf("sources.web_search.rate_per_second cannot be negative")
	}
	switch strings.ToLower(strings.TrimSpace(w.Provider)) {
	case "", "duckduckgo":
		return nil
	case "brave":
		if strings.TrimSpace(w.BraveAPIKey) == "" {
			return fmt.Errorf("sources.web_search.brave_api_key required for brave provider")
		}
	case "serper":
		if strings.TrimSpace(w.SerperAPIKey) == "" {
			return fmt.Errorf("sources.web_search.serper_api_key required for serper provider")
		}
	default:
		return fmt.Errorf("sources.web_search.provider %q not supported", w.Provider)
	}
	return nil
}

// FetchConfig controls document acquisition.
type FetchConfig struct {
	Type         string        `mapstructure:"type"` // http, chromedp
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// Normalize applies fetch defaults.
func (f FetchConfig) Normalize() FetchConfig {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	if f.Type == "" {
		f.Type = "http"
	}
	if f.Timeout <= 0 {
		f.Timeout = 8 * time.Second
	}
	if strings.TrimSpace(f.UserAgent) == "" {
		f.UserAgent = "verisearch/1.0 (+https://github.com/mohammad-safakhou/verisearch)"
	}
	if f.MaxBodyBytes <= 0 {
		f.MaxBodyBytes = 5 << 20
	}
	return f
}

// Validate checks the fetcher type is known.
func (f FetchConfig) Validate() error {
	switch f.Type {
	case "http", "chromedp":
		return nil
	default:
		return fmt.Errorf("sources.fetch.type %q not supported", f.Type)
	}
}

// CacheConfig controls the optional search-result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (c CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Redis.Host) == "" {
		return fmt.Errorf("cache.redis.host required when cache is enabled")
	}
	if strings.TrimSpace(c.Redis.Port) == "" {
		return fmt.Errorf("cache.redis.port required when cache is enabled")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when cache is enabled")
	}
	return nil
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("research.per_query_results", 5)
	v.SetDefault("research.fetch_k", 8)
	v.SetDefault("research.bullets", 6)
	v.SetDefault("research.max_subqueries", 6)
	v.SetDefault("research.max_text_chars", 12000)
	v.SetDefault("research.search_concurrency", 3)
	v.SetDefault("research.fetch_concurrency", 4)
	v.SetDefault("research.request_timeout", "45s")
	v.SetDefault("research.locale", "es")
	v.SetDefault("sources.web_search.provider", "duckduckgo")
	v.SetDefault("sources.web_search.timeout", "10s")
	v.SetDefault("sources.web_search.rate_per_second", 2.0)
	v.SetDefault("sources.web_search.burst", 3)
	v.SetDefault("sources.fetch.type", "http")
	v.SetDefault("sources.fetch.timeout", "8s")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.prefix", "verisearch:search:")
	v.SetDefault("cache.redis.port", "6379")
	v.SetDefault("telemetry.enabled", true)
}

// Load reads configuration from path (or the default search paths when path
// is empty), the environment (VERISEARCH_*) and defaults. A missing config
// file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("VERISEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = cfg.Server.Normalize()
	cfg.Research = cfg.Research.Normalize()
	cfg.Sources.Fetch = cfg.Sources.Fetch.Normalize()

	if err := cfg.Research.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sources.WebSearch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sources.Fetch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config and panics on failure; intended for process startup.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
