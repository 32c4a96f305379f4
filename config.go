package newsdesk

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/newsdesk/content"
)

// Storage drivers accepted in SiteConfig.DatabaseDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SiteConfig holds all configuration for a newsdesk site.
type SiteConfig struct {
	Name        string // Site name (default "Newsdesk")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr           string // Listen address (default ":3000")
	DatabaseDriver string // "sqlite" (default) or "postgres"
	DatabasePath   string // SQLite path (default "data/news.db")
	DatabaseURL    string // Postgres connection string

	KafkaBrokers []string // Optional: publish article events when set
	KafkaTopic   string

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS
	SessionDir    string // Server-side session files (default <tmp>/newsdesk-sessions)
	LoginURL      string // Where anonymous readers are sent to sign in (default "/auth/login")

	CategoryTTL   time.Duration // Nav category cache TTL (default 5min)
	CategoryLimit int           // Nav category count (default 8)

	RateLimit  int           // Requests per RateWindow per IP (default 300)
	RateWindow time.Duration // default 15min
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Newsdesk"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = DriverSQLite
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/news.db"
	}
	if c.SessionDir == "" {
		c.SessionDir = filepath.Join(os.TempDir(), "newsdesk-sessions")
	}
	if c.LoginURL == "" {
		c.LoginURL = "/auth/login"
	}
	if c.CategoryTTL == 0 {
		c.CategoryTTL = 5 * time.Minute
	}
	if c.CategoryLimit == 0 {
		c.CategoryLimit = 8
	}
	if c.RateLimit == 0 {
		c.RateLimit = 300
	}
	if c.RateWindow == 0 {
		c.RateWindow = 15 * time.Minute
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("newsdesk: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("newsdesk: SessionSecret is required")
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("newsdesk: DatabaseURL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("newsdesk: unknown database driver %q", c.DatabaseDriver)
	}
	return nil
}

// ConfigFromEnv reads a SiteConfig from the environment. Unset values fall
// back to the defaults applied by New.
func ConfigFromEnv() SiteConfig {
	return SiteConfig{
		Name:           os.Getenv("SITE_NAME"),
		URL:            os.Getenv("SITE_URL"),
		Description:    os.Getenv("SITE_DESCRIPTION"),
		Addr:           os.Getenv("ADDR"),
		DatabaseDriver: os.Getenv("DATABASE_DRIVER"),
		DatabasePath:   os.Getenv("DATABASE_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     os.Getenv("KAFKA_TOPIC"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		CookieSecure:   envBool("COOKIE_SECURE"),
		SessionDir:     os.Getenv("SESSION_DIR"),
		LoginURL:       os.Getenv("LOGIN_URL"),
		CategoryTTL:    envDuration("CATEGORY_CACHE_TTL"),
		RateLimit:      envInt("RATE_LIMIT"),
	}
}

// LoadDotEnv loads a .env file. ENV_PATH overrides defaultPath. A missing
// file is only an error in local mode.
func LoadDotEnv(env, defaultPath string) error {
	envPath := os.Getenv("ENV_PATH")
	if envPath == "" {
		envPath = defaultPath
	}
	if err := godotenv.Load(envPath); err != nil {
		if env == "local" {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		slog.Debug("skipping .env", "path", envPath, "error", err)
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string) int {
	v, _ := strconv.Atoi(os.Getenv(key))
	return v
}

func envDuration(key string) time.Duration {
	v, _ := time.ParseDuration(os.Getenv(key))
	return v
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and uploads (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStore supplies an already opened store instead of opening one from
// the configured driver. The App takes ownership and closes it.
func WithStore(s content.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithNotifier overrides the Kafka notifier built from KafkaBrokers.
func WithNotifier(n content.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithLogger sets the application logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithClock replaces time.Now for cache expiry, ranking windows and uploads.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
