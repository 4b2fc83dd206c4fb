package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// minSecretLength guards against trivially brute-forceable link secrets.
const minSecretLength = 16

// Config holds runtime configuration for the link auth service.
type Config struct {
	Addr            string `env:"ADDR,default=:8080"`
	DBDSN           string `env:"DB_DSN,required"`
	MagicLinkSecret string `env:"MAGIC_LINK_SECRET,required"`

	SessionCookie string `env:"SESSION_COOKIE,default=linkauth_session"`
	CookieDomain  string `env:"COOKIE_DOMAIN"`
	CookieSecure  bool   `env:"COOKIE_SECURE,default=false"`

	LoginPath       string `env:"LOGIN_PATH,default=/login"`
	RedeemPath      string `env:"REDEEM_PATH,default=/complete-login"`
	SentPath        string `env:"SENT_PATH,default=/email-sent"`
	SuccessRedirect string `env:"SUCCESS_REDIRECT,default=/me"`
	SessionUserKey  string `env:"SESSION_USER_KEY,default=user"`

	EmailFrom string `env:"EMAIL_FROM"`

	NATSURL        string        `env:"NATS_URL"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimit      int           `env:"RATE_LIMIT,default=100"`
	RatePeriod     time.Duration `env:"RATE_PERIOD,default=1m"`

	SeedUsers []string `env:"SEED_USERS"`
}

// Load returns a Config populated from environment variables.
// There is no built-in fallback for MAGIC_LINK_SECRET: a deployment
// without one must refuse to boot.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would weaken token or session security.
func (c Config) Validate() error {
	if len(c.MagicLinkSecret) < minSecretLength {
		return errors.New("config: MAGIC_LINK_SECRET must be at least 16 characters")
	}
	if c.LoginPath == "" || c.RedeemPath == "" {
		return errors.New("config: LOGIN_PATH and REDEEM_PATH must not be empty")
	}
	return nil
}
