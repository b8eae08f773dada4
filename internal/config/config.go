package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; envdecode applies defaults and enforces the
// required ones.
type Config struct {
	Env  string `env:"APP_ENV,default=dev"`   // application environment (dev/test/prod)
	Port string `env:"APP_PORT,default=8080"` // HTTP port to listen on

	DatabaseURL     string        `env:"DATABASE_URL,required"`             // postgres connection string
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS,default=25"`      // pool size
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`  // recycle connections after this long
	MigrateOnBoot   bool          `env:"DB_MIGRATE,default=true"`           // apply embedded migrations at startup
	SeedOnBoot      bool          `env:"SEED_ENABLED,default=true"`         // insert reference data into empty tables
	CloseGrantsCron string        `env:"CLOSE_GRANTS_CRON,default=@hourly"` // schedule of the grant closing job

	OIDCIssuer       string `env:"OIDC_ISSUER,required"`        // expected iss of provider ID tokens
	OIDCClientID     string `env:"OIDC_CLIENT_ID,required"`     // expected aud of provider ID tokens
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET,required"` // HS256 key of provider ID tokens

	SessionSecret  string `env:"SESSION_SECRET,required"`            // master secret for session signing keys
	AccessTTLMin   int    `env:"ACCESS_TOKEN_TTL_MIN,default=15"`    // access token time-to-live in minutes
	RefreshTTLDays int    `env:"REFRESH_TOKEN_TTL_DAYS,default=14"`  // refresh token time-to-live in days

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"` // json | text

	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"` // comma separated

	QueueURL             string `env:"RABBITMQ_URL"` // empty disables publishing
	QueueConsumerEnabled bool   `env:"QUEUE_CONSUMER_ENABLED,default=false"`
	ContactLogDir        string `env:"CONTACT_LOG_DIR,default=logs"`
}

// Load reads an optional .env file and decodes the environment into a
// Config.  Missing required variables are reported as an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.AccessTTLMin <= 0 {
		return Config{}, fmt.Errorf("load config: ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if cfg.RefreshTTLDays <= 0 {
		return Config{}, fmt.Errorf("load config: REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if cfg.QueueConsumerEnabled && cfg.QueueURL == "" {
		return Config{}, fmt.Errorf("load config: QUEUE_CONSUMER_ENABLED requires RABBITMQ_URL")
	}
	return cfg, nil
}

// AllowedOrigins splits CORSOrigins into trimmed, non-empty entries.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
