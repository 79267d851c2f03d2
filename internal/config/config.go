package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for remotehub.
type Config struct {
	DatabasePath    string
	ListenAddr      string
	AllowedOrigins  []string      // CORS origins; empty allows any origin
	IngestInterval  time.Duration // 0 disables periodic ingestion
	SourceTimeout   time.Duration
	JanitorInterval time.Duration
	Sources         []SourceConfig
	RateLimit       RateLimitConfig
	Retry           RetryConfig
	Notification    NotificationConfig
	Resume          ResumeConfig
}

// SourceConfig toggles a single job board. Boards not listed are enabled.
type SourceConfig struct {
	Name    string
	Enabled bool
}

// SourceEnabled reports whether the named board should be registered.
func (c *Config) SourceEnabled(name string) bool {
	for _, s := range c.Sources {
		if s.Name == name {
			return s.Enabled
		}
	}
	return true
}

// CheckSources returns an error naming any configured source not in known.
func (c *Config) CheckSources(known []string) error {
	var unknown []string
	for _, s := range c.Sources {
		if !slices.Contains(known, s.Name) {
			unknown = append(unknown, s.Name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown sources %q (known: %s)", unknown, strings.Join(known, ", "))
	}
	return nil
}

// RateLimitConfig controls per-board request spacing.
type RateLimitConfig struct {
	MinDelay        time.Duration            // minimum gap between requests to the same board
	SourceOverrides map[string]time.Duration // per-board overrides, keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls the retry decorator around each board.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ResumeConfig controls résumé customization.
type ResumeConfig struct {
	LLM LLMConfig
}

// LLMConfig controls the optional OpenAI-compatible rewrite.
type LLMConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultDatabasePath    = "remotehub.db"
	defaultListenAddr      = ":8080"
	defaultIngestInterval  = time.Hour
	defaultSourceTimeout   = 45 * time.Second
	defaultJanitorInterval = time.Hour
	defaultMinDelay        = 2 * time.Second
	defaultMaxRetries      = 2
	defaultRetryBaseDelay  = 5 * time.Second
	defaultLLMTimeout      = 30 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	DatabasePath    string             `yaml:"database_path"`
	ListenAddr      string             `yaml:"listen_addr"`
	AllowedOrigins  []string           `yaml:"allowed_origins"`
	IngestInterval  *string            `yaml:"ingest_interval"`
	SourceTimeout   string             `yaml:"source_timeout"`
	JanitorInterval string             `yaml:"janitor_interval"`
	Sources         []rawSourceConfig  `yaml:"sources"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	Retry           rawRetryConfig     `yaml:"retry"`
	Notification    NotificationConfig `yaml:"notification"`
	Resume          rawResumeConfig    `yaml:"resume"`
}

type rawSourceConfig struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawResumeConfig struct {
	LLM rawLLMConfig `yaml:"llm"`
}

type rawLLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		DatabasePath:    defaultDatabasePath,
		ListenAddr:      defaultListenAddr,
		IngestInterval:  defaultIngestInterval,
		SourceTimeout:   defaultSourceTimeout,
		JanitorInterval: defaultJanitorInterval,
		RateLimit: RateLimitConfig{
			MinDelay:        defaultMinDelay,
			SourceOverrides: map[string]time.Duration{},
		},
		Retry: RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultRetryBaseDelay,
		},
		Notification: NotificationConfig{Type: "log"},
		Resume: ResumeConfig{LLM: LLMConfig{
			BaseURL: defaultOpenAIBaseURL,
			Timeout: defaultLLMTimeout,
		}},
	}
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// Keys left out keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()

	if raw.DatabasePath != "" {
		cfg.DatabasePath = raw.DatabasePath
	}
	if raw.ListenAddr != "" {
		cfg.ListenAddr = raw.ListenAddr
	}
	cfg.AllowedOrigins = raw.AllowedOrigins

	if raw.IngestInterval != nil {
		if cfg.IngestInterval, err = parseDuration("ingest_interval", *raw.IngestInterval); err != nil {
			return nil, err
		}
	}
	if raw.SourceTimeout != "" {
		if cfg.SourceTimeout, err = parseDuration("source_timeout", raw.SourceTimeout); err != nil {
			return nil, err
		}
	}
	if raw.JanitorInterval != "" {
		if cfg.JanitorInterval, err = parseDuration("janitor_interval", raw.JanitorInterval); err != nil {
			return nil, err
		}
	}

	for _, s := range raw.Sources {
		enabled := true
		if s.Enabled != nil {
			enabled = *s.Enabled
		}
		cfg.Sources = append(cfg.Sources, SourceConfig{Name: s.Name, Enabled: enabled})
	}

	if raw.RateLimit.MinDelay != "" {
		if cfg.RateLimit.MinDelay, err = parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay); err != nil {
			return nil, err
		}
	}
	for source, v := range raw.RateLimit.SourceOverrides {
		d, err := parseDuration(fmt.Sprintf("rate_limit.source_overrides[%q]", source), v)
		if err != nil {
			return nil, err
		}
		cfg.RateLimit.SourceOverrides[source] = d
	}

	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.BaseDelay != "" {
		if cfg.Retry.BaseDelay, err = parseDuration("retry.base_delay", raw.Retry.BaseDelay); err != nil {
			return nil, err
		}
	}

	if raw.Notification.Type != "" {
		cfg.Notification = raw.Notification
	}

	llm := raw.Resume.LLM
	cfg.Resume.LLM.Enabled = llm.Enabled
	cfg.Resume.LLM.Model = llm.Model
	cfg.Resume.LLM.APIKey = llm.APIKey
	if llm.BaseURL != "" {
		cfg.Resume.LLM.BaseURL = llm.BaseURL
	}
	if llm.Timeout != "" {
		if cfg.Resume.LLM.Timeout, err = parseDuration("resume.llm.timeout", llm.Timeout); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if cfg.IngestInterval < 0 {
		return fmt.Errorf("ingest_interval must not be negative, got %v", cfg.IngestInterval)
	}
	if cfg.SourceTimeout <= 0 {
		return fmt.Errorf("source_timeout must be positive, got %v", cfg.SourceTimeout)
	}
	if cfg.JanitorInterval <= 0 {
		return fmt.Errorf("janitor_interval must be positive, got %v", cfg.JanitorInterval)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	seen := make(map[string]bool)
	for _, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources: every entry needs a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("sources: %q listed twice", s.Name)
		}
		seen[s.Name] = true
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.Resume.LLM.Enabled {
		if cfg.Resume.LLM.APIKey == "" {
			return fmt.Errorf("resume.llm.api_key is required when resume.llm.enabled is true")
		}
		if cfg.Resume.LLM.Model == "" {
			return fmt.Errorf("resume.llm.model is required when resume.llm.enabled is true")
		}
	}

	return nil
}
