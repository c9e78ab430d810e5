package config

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/AlexTLDR/flok/internal/i18n"
)

const (
	StorageSQL      = "sql"
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"

	MediaInline = "inline"
	MediaS3     = "s3"
)

type Config struct {
	// App
	Port     int    `env:"PORT" envDefault:"8080"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Language string `env:"DEFAULT_LANGUAGE" envDefault:"da"`

	// Session
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-me-in-production"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sql"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"flok.db"`
	DocumentKey    string `env:"DOCUMENT_KEY" envDefault:"flok-db-v1"`
	DynamoDBTable  string `env:"DYNAMODB_TABLE" envDefault:"flok-documents"`
	AWSRegion      string `env:"AWS_REGION" envDefault:"eu-north-1"`

	// Media
	MediaBackend    string `env:"MEDIA_BACKEND" envDefault:"inline"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Behaviour
	DefaultTimezone  string        `env:"DEFAULT_TIMEZONE" envDefault:"Europe/Copenhagen"`
	PhoneRegion      string        `env:"PHONE_REGION" envDefault:"DK"`
	UndoWindow       time.Duration `env:"UNDO_WINDOW" envDefault:"10s"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	ShortenerTimeout time.Duration `env:"SHORTENER_TIMEOUT" envDefault:"5s"`
	FacebookAppID    string        `env:"FACEBOOK_APP_ID"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Themes
	ThemeLight string `env:"THEME_LIGHT" envDefault:"light"`
	ThemeDark  string `env:"THEME_DARK" envDefault:"dark"`
}

// LoadDotEnv reads .env into the environment, overriding existing values.
// A missing file is only logged.
func LoadDotEnv(files ...string) {
	if err := godotenv.Overload(files...); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
		return
	}
	log.Printf(".env file loaded successfully (with overload)")
}

// Load parses and validates the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if !slices.Contains([]string{StorageSQL, StorageDynamoDB, StorageMemory}, c.StorageBackend) {
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.StorageBackend == StorageSQL && c.DatabaseDriver != "sqlite3" && c.DatabaseDriver != "postgres" {
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if !slices.Contains([]string{MediaInline, MediaS3}, c.MediaBackend) {
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend))
	}
	if c.MediaBackend == MediaS3 && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required for the s3 media backend"))
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err))
	}
	if _, ok := i18n.Parse(c.Language); !ok {
		errs = append(errs, fmt.Errorf("unsupported DEFAULT_LANGUAGE %q", c.Language))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LanguageTag is the configured fallback language.
func (c *Config) LanguageTag() language.Tag {
	if tag, ok := i18n.Parse(c.Language); ok {
		return tag
	}
	return i18n.Danish
}

// Origins lists the origins allowed for cross-site API calls. The base URL
// is always allowed.
func (c *Config) Origins() []string {
	origins := []string{strings.TrimRight(c.BaseURL, "/")}
	for _, o := range c.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
