// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harwoodm/atheneum/internal/classify"
	"github.com/harwoodm/atheneum/internal/ingest"
)

// Environment keys for the filter configuration surface. The boolean keys
// enable their filter only on the exact lowercase string "true".
const (
	EnvAllowedGenres      = "INGEST_ALLOWED_GENRES"
	EnvAllowedAuthors     = "INGEST_ALLOWED_AUTHORS"
	EnvEnableGenreFilter  = "ENABLE_GENRE_FILTER"
	EnvEnableAuthorFilter = "ENABLE_AUTHOR_FILTER"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Source     SourceConfig     `mapstructure:"source"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Filters    FiltersConfig    `mapstructure:"filters"`
	Storage    StorageConfig    `mapstructure:"storage"`
	DB         DBConfig         `mapstructure:"db"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls the admin HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SourceConfig governs the archive client: pacing, timeouts and retries.
type SourceConfig struct {
	Name           string `mapstructure:"name"`
	BaseURL        string `mapstructure:"base_url"`
	Query          string `mapstructure:"query"`
	PageSize       int    `mapstructure:"page_size"`
	MinIntervalMs  int    `mapstructure:"min_interval_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryDelayMs   int    `mapstructure:"retry_delay_ms"`
}

// ClassifierConfig configures the OpenAI genre classifier.
type ClassifierConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// FiltersConfig holds the genre/author allow-lists. An empty allow-list under
// an enabled filter allows everything.
type FiltersConfig struct {
	AllowedGenres      []string `mapstructure:"allowed_genres"`
	AllowedAuthors     []string `mapstructure:"allowed_authors"`
	EnableGenreFilter  bool     `mapstructure:"enable_genre_filter"`
	EnableAuthorFilter bool     `mapstructure:"enable_author_filter"`
}

// Snapshot converts the filter settings into the immutable per-run form.
func (f FiltersConfig) Snapshot() ingest.FilterConfig {
	return ingest.FilterConfig{
		AllowedGenres:      append([]string(nil), f.AllowedGenres...),
		AllowedAuthors:     append([]string(nil), f.AllowedAuthors...),
		EnableGenreFilter:  f.EnableGenreFilter,
		EnableAuthorFilter: f.EnableAuthorFilter,
	}
}

// StorageConfig sets the bucket for PDF persistence.
type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// DBConfig controls access to the catalog database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ProvidersConfig selects backend implementations per concern.
type ProvidersConfig struct {
	Catalog   string `mapstructure:"catalog"`   // postgres | memory
	JobLog    string `mapstructure:"job_log"`   // postgres | memory
	Storage   string `mapstructure:"storage"`   // gcs | memory
	Publisher string `mapstructure:"publisher"` // pubsub | noop
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ATHENEUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyFilterEnv(&cfg.Filters)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyFilterEnv overlays the documented filter environment keys. The list
// keys are comma-separated with whitespace trimmed and empty entries dropped.
func applyFilterEnv(f *FiltersConfig) {
	if raw, ok := os.LookupEnv(EnvAllowedGenres); ok {
		f.AllowedGenres = SplitList(raw)
	}
	if raw, ok := os.LookupEnv(EnvAllowedAuthors); ok {
		f.AllowedAuthors = SplitList(raw)
	}
	if raw, ok := os.LookupEnv(EnvEnableGenreFilter); ok {
		f.EnableGenreFilter = raw == "true"
	}
	if raw, ok := os.LookupEnv(EnvEnableAuthorFilter); ok {
		f.EnableAuthorFilter = raw == "true"
	}
}

// SplitList parses a comma-separated value, trimming whitespace and dropping
// empty entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("source.name", "archive")
	v.SetDefault("source.base_url", "https://archive.org")
	v.SetDefault("source.query", "mediatype:texts AND format:pdf")
	v.SetDefault("source.page_size", 50)
	v.SetDefault("source.min_interval_ms", 1000)
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.retry_delay_ms", 500)
	v.SetDefault("classifier.model", "gpt-4o-mini")
	v.SetDefault("classifier.timeout_seconds", 60)
	v.SetDefault("providers.catalog", "memory")
	v.SetDefault("providers.job_log", "memory")
	v.SetDefault("providers.storage", "memory")
	v.SetDefault("providers.publisher", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and rejects invalid filter settings
// before any job runs.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be > 0")
	}
	if c.Source.MinIntervalMs < 0 {
		return fmt.Errorf("source.min_interval_ms must be >= 0")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Source.MaxRetries <= 0 {
		return fmt.Errorf("source.max_retries must be > 0")
	}
	if err := ValidateFilters(c.Filters); err != nil {
		return err
	}
	switch c.Providers.Catalog {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required when providers.catalog is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown catalog provider %q", c.Providers.Catalog)
	}
	switch c.Providers.Storage {
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when providers.storage is gcs")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage provider %q", c.Providers.Storage)
	}
	switch c.Providers.Publisher {
	case "pubsub":
		if c.PubSub.ProjectID == "" || c.PubSub.TopicID == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic_id are required when providers.publisher is pubsub")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown publisher provider %q", c.Providers.Publisher)
	}
	return nil
}

// ValidateFilters checks allow-list entries: genres must be taxonomy members
// (case-insensitively) and authors must be non-empty after trimming.
func ValidateFilters(f FiltersConfig) error {
	for _, g := range f.AllowedGenres {
		if _, ok := classify.CanonicalGenre(g); !ok {
			return fmt.Errorf("filters.allowed_genres: %q is not a known genre", g)
		}
	}
	for _, a := range f.AllowedAuthors {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("filters.allowed_authors: entries must be non-empty")
		}
	}
	return nil
}

// SourceTimeout converts the configured request timeout into a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// SourceMinInterval converts the minimum inter-request spacing into a duration.
func (c Config) SourceMinInterval() time.Duration {
	return time.Duration(c.Source.MinIntervalMs) * time.Millisecond
}

// SourceRetryDelay converts the base retry delay into a duration.
func (c Config) SourceRetryDelay() time.Duration {
	return time.Duration(c.Source.RetryDelayMs) * time.Millisecond
}
