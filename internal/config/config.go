package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderOwnerID is the owner used until real accounts exist.
const PlaceholderOwnerID = "00000000-0000-0000-0000-000000000001"

type Config struct {
	// Application
	AppEnv string
	AppURL string
	Port   string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Owner used when a request carries no X-Owner-ID header
	DefaultOwnerID string

	// Security
	TokenEncryptionKey string
	FitbitStateSecret  string

	// Fitbit
	FitbitClientID     string
	FitbitClientSecret string
	FitbitRedirectURL  string
	FitbitAPIURL       string
	FitbitTokenURL     string // Optional: overrides the OAuth token endpoint

	// Where the OAuth callback sends the user once the exchange is done
	FitbitAppRedirect string

	// Upstream product database
	OpenFoodFactsURL string

	// CORS
	CORSOrigins []string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services
	S3PresignExpiry time.Duration // Expiry of returned photo URLs
}

// Load reads the relay server configuration.
func Load() *Config {
	loadDotenv()

	cfg := &Config{
		// Application
		AppEnv: envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL: envString("APP_URL", "http://localhost:8090"),
		Port:   envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/relay.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		DefaultOwnerID: envString("DEFAULT_OWNER_ID", PlaceholderOwnerID),

		// Security
		TokenEncryptionKey: envString("TOKEN_ENCRYPTION_KEY", ""),
		FitbitStateSecret:  envString("FITBIT_STATE_SECRET", ""),

		// Fitbit (all optional; the adapter reports "unconfigured" without them)
		FitbitClientID:     envString("FITBIT_CLIENT_ID", ""),
		FitbitClientSecret: envString("FITBIT_CLIENT_SECRET", ""),
		FitbitRedirectURL:  envString("FITBIT_REDIRECT_URL", ""),
		FitbitAPIURL:       envString("FITBIT_API_URL", "https://api.fitbit.com"),
		FitbitTokenURL:     envString("FITBIT_TOKEN_URL", ""),
		FitbitAppRedirect:  envString("FITBIT_APP_REDIRECT", "cherryfit://fitbit-callback"),

		OpenFoodFactsURL: envString("OPENFOODFACTS_URL", "https://world.openfoodfacts.org"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (optional; photo uploads answer 503 without it)
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour),
	}

	if cfg.FitbitRedirectURL == "" {
		cfg.FitbitRedirectURL = cfg.AppURL + "/api/fitbit/callback"
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start a production relay that would store
// Fitbit credentials without a key to encrypt them.
func validateProduction(cfg *Config) {
	if cfg.FitbitClientID != "" && (cfg.TokenEncryptionKey == "" || cfg.FitbitStateSecret == "") {
		slog.Error("production deployment with Fitbit requires TOKEN_ENCRYPTION_KEY and FITBIT_STATE_SECRET")
		os.Exit(1)
	}
}

// AgentConfig configures the device-side agent.
type AgentConfig struct {
	AppEnv string

	LocalDBPath string
	OwnerID     string

	RelayURL       string
	RequestTimeout time.Duration

	SyncInterval       time.Duration
	SyncBatchSize      int
	FitbitPushEnabled  bool
	FitbitPushInterval time.Duration

	LogFile   string
	SentryDSN string
}

// LoadAgent reads the agent configuration. Nothing is required: an agent
// with no relay URL still records locally.
func LoadAgent() *AgentConfig {
	loadDotenv()

	return &AgentConfig{
		AppEnv: envString("APP_ENV", "development"),

		LocalDBPath: envString("LOCAL_DB_PATH", "./data/cherryfit.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		OwnerID:     envString("OWNER_ID", PlaceholderOwnerID),

		RelayURL:       envString("RELAY_URL", "http://localhost:8090"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 15*time.Second),

		SyncInterval:       envDuration("SYNC_INTERVAL", 2*time.Minute),
		SyncBatchSize:      envInt("SYNC_BATCH_SIZE", 100),
		FitbitPushEnabled:  envBool("FITBIT_PUSH_ENABLED", true),
		FitbitPushInterval: envDuration("FITBIT_PUSH_INTERVAL", 5*time.Minute),

		LogFile:   envString("LOG_FILE", ""),
		SentryDSN: envString("SENTRY_DSN", ""),
	}
}

func (c *AgentConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func loadDotenv() {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// FitbitConfigured reports whether every Fitbit credential is present.
func (c *Config) FitbitConfigured() bool {
	return c.FitbitClientID != "" && c.FitbitClientSecret != "" &&
		c.TokenEncryptionKey != "" && c.FitbitStateSecret != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded; safe to log at startup.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppEnv:         c.AppEnv,
		AppURL:         c.AppURL,
		Port:           c.Port,
		DBDriver:       c.DBDriver,
		DefaultOwnerID: c.DefaultOwnerID,

		FitbitClientID:    c.FitbitClientID,
		FitbitRedirectURL: c.FitbitRedirectURL,
		FitbitAPIURL:      c.FitbitAPIURL,
		FitbitAppRedirect: c.FitbitAppRedirect,

		OpenFoodFactsURL: c.OpenFoodFactsURL,
		CORSOrigins:      c.CORSOrigins,

		S3Region:        c.S3Region,
		S3Bucket:        c.S3Bucket,
		S3Endpoint:      c.S3Endpoint,
		S3PresignExpiry: c.S3PresignExpiry,
	}
}
