package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SecretEnvVar names the environment variable holding the JWT signing secret.
const SecretEnvVar = "JWT_SECRET"

// ErrMissingSecret is returned when the signing secret is not configured.
// The process must not start serving traffic without it.
var ErrMissingSecret = errors.New(SecretEnvVar + " environment variable is not defined")

// Config aggregates runtime configuration for the GoShop API.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cart      CartConfig
	Catalog   CatalogConfig
	Metrics   MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies []string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// RedisConfig carries the key-value store connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// RateLimitConfig bounds request rates on credential endpoints.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// CartConfig holds cart storage settings.
type CartConfig struct {
	TTL time.Duration
}

// CatalogConfig holds product image settings.
type CatalogConfig struct {
	ImageURLTTL time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
// It fails with ErrMissingSecret when the signing secret is absent.
func Load() (Config, error) {
	authCfg, err := loadAuthConfig(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Host:         getString("GOSHOP_API_HOST", "0.0.0.0"),
			Port:         getInt("GOSHOP_API_PORT", 8080),
			ReadTimeout:  getDuration("GOSHOP_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("GOSHOP_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("GOSHOP_API_IDLE_TIMEOUT", 60*time.Second),

			TrustedProxies: getList("GOSHOP_TRUSTED_PROXIES"),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "goshop_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "goshop"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", "localhost:6379"),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			UseTLS:   getBool("REDIS_USE_TLS", false),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "goshop"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "goshop-products"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Auth: authCfg,
		RateLimit: RateLimitConfig{
			PerSecond: getFloat("GOSHOP_RATE_LIMIT_RPS", 5),
			Burst:     getInt("GOSHOP_RATE_LIMIT_BURST", 10),
		},
		Cart: CartConfig{
			TTL: getDuration("GOSHOP_CART_TTL", 72*time.Hour),
		},
		Catalog: CatalogConfig{
			ImageURLTTL: getDuration("GOSHOP_IMAGE_URL_TTL", 15*time.Minute),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("GOSHOP_METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// Secret resolves the JWT signing secret through lookup. There is no fallback value.
func Secret(lookup func(string) (string, bool)) (string, error) {
	val, ok := lookup(SecretEnvVar)
	if !ok || strings.TrimSpace(val) == "" {
		return "", ErrMissingSecret
	}
	return val, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getList(key string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig(lookup func(string) (string, bool)) (AuthConfig, error) {
	secret, err := Secret(lookup)
	if err != nil {
		return AuthConfig{}, err
	}

	cost := getInt("GOSHOP_AUTH_BCRYPT_COST", 10)
	if cost < 4 || cost > 31 {
		cost = 10
	}

	return AuthConfig{
		JWTSecret:       secret,
		AccessTokenTTL:  getDuration("GOSHOP_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("GOSHOP_AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:      cost,
	}, nil
}
