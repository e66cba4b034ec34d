// Package config provides configuration management for the TaaS admin service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Password comparison strategies accepted by AuthConfig.PasswordCompare.
const (
	PasswordComparePlain        = "plain"
	PasswordCompareConstantTime = "constant_time"
)

// EnvironmentProduction enables production-only behaviour such as Secure cookies.
const EnvironmentProduction = "production"

// Config holds all configuration for the admin service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	GitHub      GitHubConfig      `mapstructure:"github"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Cron        CronConfig        `mapstructure:"cron"`
	Preview     PreviewConfig     `mapstructure:"preview"`
	Tenants     []TenantConfig    `mapstructure:"tenants"`
	TenantsFile string            `mapstructure:"tenants_file"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in a production-like deployment.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == EnvironmentProduction
}

// GitHubConfig holds the repository hosting API client configuration.
type GitHubConfig struct {
	Token         string        `mapstructure:"token"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CommitMessage string        `mapstructure:"commit_message"`
}

// AuthConfig holds the session gate configuration.
type AuthConfig struct {
	AdminPassword   string `mapstructure:"admin_password"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	PasswordCompare string `mapstructure:"password_compare"`
}

// CronConfig locates the job list inside each tenant repository.
type CronConfig struct {
	JobsPath string `mapstructure:"jobs_path"`
}

// PreviewConfig holds file preview rendering options.
type PreviewConfig struct {
	Style    string `mapstructure:"style"`
	MaxBytes int    `mapstructure:"max_bytes"`
}

// TenantConfig is one statically configured tenant.
type TenantConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
	Repo string `mapstructure:"repo" yaml:"repo"`
}

// RateLimiterConfig holds the login rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv maps config keys to the environment variable names the
// dashboard has always been deployed with.
var legacyEnv = map[string]string{
	"auth.admin_password": "ADMIN_PASSWORD",
	"auth.jwt_secret":     "JWT_SECRET",
	"github.token":        "GITHUB_TOKEN",
	"server.environment":  "NODE_ENV",
	"logging.level":       "LOG_LEVEL",
	"logging.format":      "LOG_FORMAT",
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/taas-admin/")
	}

	v.SetEnvPrefix("TAAS_ADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Prefixed names win over the legacy ones.
	for key, legacy := range legacyEnv {
		prefixed := "TAAS_ADMIN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// Read config file (ignore if not found, use defaults/env)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "20s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// GitHub defaults
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.timeout", "15s")
	v.SetDefault("github.commit_message", "Update %s via TaaS Admin")

	// Auth defaults
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.password_compare", PasswordCompareConstantTime)

	v.SetDefault("cron.jobs_path", "cron/jobs.json")

	v.SetDefault("preview.style", "github")
	v.SetDefault("preview.max_bytes", 1<<20)

	v.SetDefault("tenants_file", "")

	// Rate limiter defaults (login endpoint)
	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.requests_per_second", 1.0)
	v.SetDefault("rate_limiter.burst_size", 5)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			return fmt.Errorf("server allowed_origins must list origins explicitly, not %q", o)
		}
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request_timeout must be positive")
	}

	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github timeout must be positive")
	}

	if c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth admin_password is required")
	}

	switch c.Auth.PasswordCompare {
	case PasswordComparePlain, PasswordCompareConstantTime:
	default:
		return fmt.Errorf("invalid auth password_compare: %q", c.Auth.PasswordCompare)
	}

	if c.Cron.JobsPath == "" {
		return fmt.Errorf("cron jobs_path is required")
	}

	if c.Preview.MaxBytes <= 0 {
		return fmt.Errorf("preview max_bytes must be positive")
	}

	seen := make(map[string]bool, len(c.Tenants))
	for i, t := range c.Tenants {
		if t.ID == "" {
			return fmt.Errorf("tenant %d: id is required", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("tenant %q: duplicate id", t.ID)
		}
		seen[t.ID] = true
		if owner, name, ok := strings.Cut(t.Repo, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("tenant %q: repo must be owner/name, got %q", t.ID, t.Repo)
		}
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
	}

	return nil
}
