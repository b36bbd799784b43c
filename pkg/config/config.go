package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rackforge/dashgate/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// SAML configuration
	SAML SAMLConfig

	// Session configuration
	Session SessionConfig

	// Rate limit configuration
	RateLimit RateLimitConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Environment controls production-only behavior such as the
	// Secure flag on the session cookie.
	Environment string

	// FrontendURL is where the browser is sent after a successful
	// SAML callback.
	FrontendURL string

	// AllowedOrigins lists origins permitted to make credentialed
	// cross-origin requests.
	AllowedOrigins []string
}

// SAMLConfig holds SAML service provider configuration
type SAMLConfig struct {
	EntityID        string
	ACSURL          string
	AudienceURI     string
	IDPMetadataPath string
	SPCertPath      string
	SPKeyPath       string
	SignRequests    bool
	RolemapPath     string
}

// SessionConfig holds session lifetime settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	CookieDomain  string
}

// RateLimitConfig holds sliding-window rate limit settings
type RateLimitConfig struct {
	Limit  int
	Window time.Duration

	// RedisAddr enables the Redis-backed limiter when set. Empty
	// selects the in-memory limiter.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	Version        string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		SAML:          loadSAMLConfig(),
		Session:       loadSessionConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("DASHGATE_HOST", "0.0.0.0"),
		Port:            getEnv("DASHGATE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("DASHGATE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("DASHGATE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("DASHGATE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("DASHGATE_SHUTDOWN_TIMEOUT", 30*time.Second),
		Environment:     getEnv("DASHGATE_ENVIRONMENT", "development"),
		FrontendURL:     getEnv("DASHGATE_FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:  splitCSV(getEnv("DASHGATE_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
}

// loadSAMLConfig loads SAML configuration from environment
func loadSAMLConfig() SAMLConfig {
	return SAMLConfig{
		EntityID:        getEnv("DASHGATE_SAML_ENTITY_ID", ""),
		ACSURL:          getEnv("DASHGATE_SAML_ACS_URL", ""),
		AudienceURI:     getEnv("DASHGATE_SAML_AUDIENCE_URI", ""),
		IDPMetadataPath: getEnv("DASHGATE_SAML_IDP_METADATA_PATH", ""),
		SPCertPath:      getEnv("DASHGATE_SAML_SP_CERT_PATH", ""),
		SPKeyPath:       getEnv("DASHGATE_SAML_SP_KEY_PATH", ""),
		SignRequests:    getEnvBool("DASHGATE_SAML_SIGN_REQUESTS", false),
		RolemapPath:     getEnv("DASHGATE_ROLEMAP_PATH", ""),
	}
}

// loadSessionConfig loads session configuration from environment
func loadSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:           getEnvDuration("DASHGATE_SESSION_TTL", 8*time.Hour),
		SweepInterval: getEnvDuration("DASHGATE_SESSION_SWEEP_INTERVAL", 5*time.Minute),
		CookieDomain:  getEnv("DASHGATE_SESSION_COOKIE_DOMAIN", ""),
	}
}

// loadRateLimitConfig loads rate limit configuration from environment
func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:         getEnvInt("DASHGATE_RATE_LIMIT", 100),
		Window:        getEnvDuration("DASHGATE_RATE_WINDOW", time.Minute),
		RedisAddr:     getEnv("DASHGATE_REDIS_ADDR", ""),
		RedisPassword: getEnv("DASHGATE_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("DASHGATE_REDIS_DB", 0),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLevel(getEnv("DASHGATE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("DASHGATE_METRICS_ENABLED", true),
		Version:        getEnv("DASHGATE_VERSION", "dev"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.SAML.EntityID == "" {
		return fmt.Errorf("SAML entity ID is required (DASHGATE_SAML_ENTITY_ID)")
	}
	if c.SAML.ACSURL == "" {
		return fmt.Errorf("SAML ACS URL is required (DASHGATE_SAML_ACS_URL)")
	}
	if c.SAML.IDPMetadataPath == "" {
		return fmt.Errorf("IdP metadata path is required (DASHGATE_SAML_IDP_METADATA_PATH)")
	}
	if c.SAML.SignRequests && (c.SAML.SPCertPath == "" || c.SAML.SPKeyPath == "") {
		return fmt.Errorf("SP certificate and key are required when request signing is enabled")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs with production
// hardening (Secure cookies) enabled.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// splitCSV splits a comma-separated list, trimming whitespace and
// dropping empty entries
func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
