package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/notionblog/internal/logging"
	"github.com/ppiankov/notionblog/internal/retry"
)

const (
	DefaultConfigDir     = ".notionblog"
	DefaultConfigFile    = "config.yaml"
	DefaultTokenEnv      = "NOTION_TOKEN"
	DefaultDatabaseIDEnv = "NOTION_DATABASE_ID"
	DefaultNotionTimeout = 30 * time.Second
	DefaultPreviewDelay  = 500 * time.Millisecond
	DefaultContentDelay  = 2000 * time.Millisecond
	DefaultContentDepth  = 8
	DefaultStoragePath   = ".notionblog/notionblog.db"
	DefaultAddr          = ":3000"
	DefaultSiteName      = "My Blog"
	DefaultSiteURL       = "http://localhost:3000"
	DefaultCacheBackend  = "memory"
	DefaultListTTL       = time.Hour
	DefaultPostTTL       = 60 * time.Second
	DefaultLogLevel      = "info"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Notion     NotionConfig     `yaml:"notion"`
	Properties PropertiesConfig `yaml:"properties"`
	Retry      RetryConfig      `yaml:"retry"`
	Content    ContentConfig    `yaml:"content"`
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

type NotionConfig struct {
	TokenEnv      string   `yaml:"token_env"`
	DatabaseIDEnv string   `yaml:"database_id_env"`
	BaseURL       string   `yaml:"base_url"`
	Version       string   `yaml:"version"`
	Timeout       Duration `yaml:"timeout"`

	// Resolved from env vars at load time.
	Token      string `yaml:"-"`
	DatabaseID string `yaml:"-"`
}

// PropertiesConfig names the database columns posts are read from.
type PropertiesConfig struct {
	Title     string `yaml:"title"`
	Date      string `yaml:"date"`
	Slug      string `yaml:"slug"`
	Tags      string `yaml:"tags"`
	Lang      string `yaml:"lang"`
	Published string `yaml:"published"`
}

type RetryConfig struct {
	MaxRetries   int      `yaml:"max_retries"`
	InitialDelay Duration `yaml:"initial_delay"`
	Multiplier   float64  `yaml:"multiplier"`
	PreviewDelay Duration `yaml:"preview_delay"`
	ContentDelay Duration `yaml:"content_delay"`
}

type ContentConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	SiteName    string `yaml:"site_name"`
	SiteURL     string `yaml:"site_url"`
	Description string `yaml:"description"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend"`
	ListTTL Duration    `yaml:"list_ttl"`
	PostTTL Duration    `yaml:"post_ttl"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`

	// Resolved from env var at load time.
	Password string `yaml:"-"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
// A missing file is not an error: the defaults plus environment are enough to run.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	cfg := newConfig()
	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(cfg)
	resolveEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied and env vars resolved.
func Default() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	resolveEnv(cfg)
	return cfg
}

// newConfig presets the fields whose zero value is a valid setting, so the
// yaml decoder only overwrites them when the file names them.
func newConfig() *Config {
	return &Config{
		Retry: RetryConfig{MaxRetries: retry.DefaultMaxRetries},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Notion.TokenEnv == "" {
		cfg.Notion.TokenEnv = DefaultTokenEnv
	}
	if cfg.Notion.DatabaseIDEnv == "" {
		cfg.Notion.DatabaseIDEnv = DefaultDatabaseIDEnv
	}
	if cfg.Notion.Timeout.Duration == 0 {
		cfg.Notion.Timeout.Duration = DefaultNotionTimeout
	}

	p := &cfg.Properties
	if p.Title == "" {
		p.Title = "Name"
	}
	if p.Date == "" {
		p.Date = "Date"
	}
	if p.Slug == "" {
		p.Slug = "Slug"
	}
	if p.Tags == "" {
		p.Tags = "Tags"
	}
	if p.Lang == "" {
		p.Lang = "Lang"
	}
	if p.Published == "" {
		p.Published = "Published"
	}

	if cfg.Retry.InitialDelay.Duration == 0 {
		cfg.Retry.InitialDelay.Duration = retry.DefaultInitialDelay
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = retry.DefaultMultiplier
	}
	if cfg.Retry.PreviewDelay.Duration == 0 {
		cfg.Retry.PreviewDelay.Duration = DefaultPreviewDelay
	}
	if cfg.Retry.ContentDelay.Duration == 0 {
		cfg.Retry.ContentDelay.Duration = DefaultContentDelay
	}
	if cfg.Content.MaxDepth == 0 {
		cfg.Content.MaxDepth = DefaultContentDepth
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.SiteName == "" {
		cfg.Server.SiteName = DefaultSiteName
	}
	if cfg.Server.SiteURL == "" {
		cfg.Server.SiteURL = DefaultSiteURL
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.ListTTL.Duration == 0 {
		cfg.Cache.ListTTL.Duration = DefaultListTTL
	}
	if cfg.Cache.PostTTL.Duration == 0 {
		cfg.Cache.PostTTL.Duration = DefaultPostTTL
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func resolveEnv(cfg *Config) {
	cfg.Notion.Token = strings.TrimSpace(os.Getenv(cfg.Notion.TokenEnv))
	cfg.Notion.DatabaseID = strings.TrimSpace(os.Getenv(cfg.Notion.DatabaseIDEnv))
	if cfg.Cache.Redis.PasswordEnv != "" {
		cfg.Cache.Redis.Password = os.Getenv(cfg.Cache.Redis.PasswordEnv)
	}
}

// validate rejects settings that cannot work. Missing Notion credentials are
// deliberately accepted here; the repository degrades to empty results instead.
func validate(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries: must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier: must be at least 1, got %g", cfg.Retry.Multiplier)
	}
	for name, d := range map[string]time.Duration{
		"retry.initial_delay": cfg.Retry.InitialDelay.Duration,
		"retry.preview_delay": cfg.Retry.PreviewDelay.Duration,
		"retry.content_delay": cfg.Retry.ContentDelay.Duration,
		"notion.timeout":      cfg.Notion.Timeout.Duration,
		"cache.list_ttl":      cfg.Cache.ListTTL.Duration,
		"cache.post_ttl":      cfg.Cache.PostTTL.Duration,
	} {
		if d < 0 {
			return fmt.Errorf("%s: must not be negative, got %s", name, d)
		}
	}
	if cfg.Content.MaxDepth < 1 {
		return fmt.Errorf("content.max_depth: must be at least 1, got %d", cfg.Content.MaxDepth)
	}

	switch cfg.Cache.Backend {
	case "memory", "none":
	case "redis":
		if strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
			return errors.New("cache.redis.addr: required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want memory, redis or none)", cfg.Cache.Backend)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Policy is the retry policy for database queries.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries:   r.MaxRetries,
		InitialDelay: r.InitialDelay.Duration,
		Multiplier:   r.Multiplier,
	}
}

// PreviewPolicy is the retry policy for the short block listings behind previews.
func (r RetryConfig) PreviewPolicy() retry.Policy {
	return r.Policy().WithInitialDelay(r.PreviewDelay.Duration)
}

// ContentPolicy is the retry policy for full page fetches.
func (r RetryConfig) ContentPolicy() retry.Policy {
	return r.Policy().WithInitialDelay(r.ContentDelay.Duration)
}
