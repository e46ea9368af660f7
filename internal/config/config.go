package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Relational source. Empty means file content only.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	ContentDir   string `envconfig:"CONTENT_DIR" default:"content"`
	WatchContent bool   `envconfig:"WATCH_CONTENT" default:"false"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"pillarpress-content"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX"`

	NATSURL     string `envconfig:"NATS_URL"`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"content.stale"`

	ListingMode string `envconfig:"LISTING_MODE" default:"merge"`
	ExcerptMax  int    `envconfig:"EXCERPT_MAX" default:"220"`

	HighlightLightTheme string   `envconfig:"HIGHLIGHT_LIGHT_THEME"`
	HighlightDarkTheme  string   `envconfig:"HIGHLIGHT_DARK_THEME"`
	HighlightLanguages  []string `envconfig:"HIGHLIGHT_LANGUAGES"`

	AdminToken         string        `envconfig:"ADMIN_TOKEN"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PILLARPRESS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.ExcerptMax <= 0 {
		return nil, fmt.Errorf("failed to process config: EXCERPT_MAX must be positive, got %d", cfg.ExcerptMax)
	}

	return &cfg, nil
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasNATS() bool {
	return c.NATSURL != ""
}

// HasEditing reports whether the admin routes can be served.
func (c *Config) HasEditing() bool {
	return c.HasDatabase() && c.AdminToken != ""
}
