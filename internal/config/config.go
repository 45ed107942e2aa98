package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/config"
)

// Media backends.
const (
	MediaLocal  = "local"
	MediaRemote = "remote"
	MediaMemory = "memory"
)

// Config holds every setting of the booking service and its CLI.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8000"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	JWTSecret           string   `env:"JWT_SECRET_KEY,required,notEmpty"`
	JWTAlgorithm        string   `env:"JWT_ALGORITHM" envDefault:"HS256"`
	AccessTokenTTLMins  int      `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
	RefreshTokenTTLDays int      `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
	BcryptCost          int      `env:"BCRYPT_COST" envDefault:"12"`
	AuthRateLimitRPS    float64  `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst  int      `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	RedisURL       string        `env:"REDIS_URL"`
	DoctorCacheTTL time.Duration `env:"DOCTOR_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	MediaBackend      string `env:"MEDIA_BACKEND" envDefault:"local"`
	MediaDir          string `env:"MEDIA_DIR" envDefault:"./media"`
	MediaBaseURL      string `env:"MEDIA_BASE_URL" envDefault:"/media"`
	MediaRemoteURL    string `env:"MEDIA_REMOTE_URL"`
	MediaRemoteAPIKey string `env:"MEDIA_REMOTE_API_KEY"`
	MediaMaxUploadMB  int64  `env:"MEDIA_MAX_UPLOAD_MB" envDefault:"10"`

	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRate float64 `env:"OTEL_TRACE_SAMPLE_RATE" envDefault:"1"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@gmail.com"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Admin"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load booking config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings that would only fail later at first use.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q (want HS256, HS384 or HS512)", c.JWTAlgorithm)
	}
	if c.Environment != "development" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters in %q mode, got %d", c.Environment, len(c.JWTSecret))
	}
	if c.AccessTokenTTLMins <= 0 || c.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	switch c.MediaBackend {
	case MediaLocal, MediaMemory:
	case MediaRemote:
		if c.MediaRemoteURL == "" {
			return fmt.Errorf("MEDIA_REMOTE_URL is required when MEDIA_BACKEND=remote")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	if c.MediaMaxUploadMB <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// AccessTokenTTL is the access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMins) * time.Minute
}

// RefreshTokenTTL is the refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.MediaMaxUploadMB << 20
}

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}
