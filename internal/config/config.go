package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "UTC"
	defaultRefreshCron  = "*/15 * * * *"
	defaultWindowDays   = 30
	defaultMaxEvents    = 250
	defaultWorkdayStart = "09:00"
	defaultWorkdayEnd   = "18:00"
	defaultMinBreak     = 20
	defaultMinGap       = 60
	defaultQuotesURL    = "https://zenquotes.io/api/quotes"
	defaultSummaryModel = "gpt-3.5-turbo"
	defaultCacheDir     = "./var/ics-cache"
	defaultLogLevel     = "info"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// AnalyticsConfig tunes the schedule analytics thresholds.
type AnalyticsConfig struct {
	// WorkdayStart / WorkdayEnd are "HH:MM" local times bounding break suggestions.
	WorkdayStart string `yaml:"workday_start" json:"workday_start"`
	WorkdayEnd   string `yaml:"workday_end" json:"workday_end"`
	// MinBreakMinutes is the shortest slot suggested as a break.
	MinBreakMinutes int `yaml:"min_break_minutes" json:"min_break_minutes"`
	// MinGapMinutes must be exceeded for an idle slot to count as a schedule gap.
	MinGapMinutes int `yaml:"min_gap_minutes" json:"min_gap_minutes"`
}

// SummarizerConfig configures the OpenAI-backed task summarizer.
type SummarizerConfig struct {
	APIKey  string `yaml:"api_key" json:"-"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone every event is converted into (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a 5-field cron schedule for re-fetching calendars.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// WindowDays is how far back and ahead calendars are fetched.
	WindowDays int `yaml:"window_days" json:"window_days"`

	// MaxEvents caps the snapshot size handed to analytics.
	MaxEvents int `yaml:"max_events" json:"max_events"`

	// CacheDir stores the last good body of each ICS subscription.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Analytics  AnalyticsConfig  `yaml:"analytics" json:"analytics"`
	Summarizer SummarizerConfig `yaml:"summarizer" json:"summarizer"`

	// QuotesURL is the zenquotes-compatible endpoint.
	QuotesURL string `yaml:"quotes_url" json:"quotes_url"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// envOverrides are read from the environment after the file is loaded.
// Empty values leave the file setting untouched.
type envOverrides struct {
	Listen        string `env:"DAYBOARD_LISTEN"`
	Timezone      string `env:"DAYBOARD_TIMEZONE"`
	LogLevel      string `env:"DAYBOARD_LOG_LEVEL"`
	RefreshCron   string `env:"DAYBOARD_REFRESH"`
	CacheDir      string `env:"DAYBOARD_CACHE_DIR"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBase    string `env:"OPENAI_BASE_URL"`
	BasicAuthUser string `env:"DAYBOARD_BASIC_AUTH_USER"`
	BasicAuthPass string `env:"DAYBOARD_BASIC_AUTH_PASSWORD"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values so partially-filled configs work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.WindowDays <= 0 {
		c.WindowDays = defaultWindowDays
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = defaultMaxEvents
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if _, err := parseClock(c.Analytics.WorkdayStart); err != nil {
		c.Analytics.WorkdayStart = defaultWorkdayStart
	}
	if _, err := parseClock(c.Analytics.WorkdayEnd); err != nil {
		c.Analytics.WorkdayEnd = defaultWorkdayEnd
	}
	if c.Analytics.MinBreakMinutes <= 0 {
		c.Analytics.MinBreakMinutes = defaultMinBreak
	}
	if c.Analytics.MinGapMinutes <= 0 {
		c.Analytics.MinGapMinutes = defaultMinGap
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = defaultSummaryModel
	}
	if c.QuotesURL == "" {
		c.QuotesURL = defaultQuotesURL
	}
}

// Validate reports settings that cannot be repaired by Normalize.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	start, _ := parseClock(c.Analytics.WorkdayStart)
	end, _ := parseClock(c.Analytics.WorkdayEnd)
	if end <= start {
		return fmt.Errorf("config: workday_end %s must be after workday_start %s", c.Analytics.WorkdayEnd, c.Analytics.WorkdayStart)
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WorkdayBounds returns workday start/end as offsets from midnight.
func (c *Config) WorkdayBounds() (time.Duration, time.Duration) {
	start, _ := parseClock(c.Analytics.WorkdayStart)
	end, _ := parseClock(c.Analytics.WorkdayEnd)
	return start, end
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Listen, e.Listen)
	set(&c.Timezone, e.Timezone)
	set(&c.LogLevel, e.LogLevel)
	set(&c.RefreshCron, e.RefreshCron)
	set(&c.CacheDir, e.CacheDir)
	set(&c.Summarizer.APIKey, e.OpenAIKey)
	set(&c.Summarizer.BaseURL, e.OpenAIBase)
	if e.BasicAuthUser != "" && e.BasicAuthPass != "" {
		c.BasicAuth = &BasicAuthConfig{Username: e.BasicAuthUser, Password: e.BasicAuthPass}
	}
	return nil
}

// Load loads configuration from the given YAML path, then applies
// environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := readOrCreate(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readOrCreate(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, fmt.Errorf("config: write default: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
