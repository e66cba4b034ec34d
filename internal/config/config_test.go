package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoad_Defaults(t *testing.T) {
	t.Setenv("TAAS_ADMIN_AUTH_ADMIN_PASSWORD", "hunter2")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, 15*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, "Update %s via TaaS Admin", cfg.GitHub.CommitMessage)

	assert.Equal(t, "hunter2", cfg.Auth.AdminPassword)
	assert.Equal(t, config.PasswordCompareConstantTime, cfg.Auth.PasswordCompare)

	assert.Equal(t, "cron/jobs.json", cfg.Cron.JobsPath)
	assert.Equal(t, "github", cfg.Preview.Style)
	assert.Equal(t, 1<<20, cfg.Preview.MaxBytes)
	assert.Empty(t, cfg.Tenants)

	assert.True(t, cfg.RateLimiter.Enabled)
	assert.Equal(t, 1.0, cfg.RateLimiter.RequestsPerSecond)
	assert.Equal(t, 5, cfg.RateLimiter.BurstSize)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestConfigLoad_MissingPassword(t *testing.T) {
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_password is required")
}

func TestConfigLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TAAS_ADMIN_AUTH_ADMIN_PASSWORD", "hunter2")
	t.Setenv("TAAS_ADMIN_SERVER_PORT", "9000")
	t.Setenv("TAAS_ADMIN_GITHUB_TIMEOUT", "60s")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.GitHub.Timeout)
}

func TestConfigLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "legacy")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("NODE_ENV", "production")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.Auth.AdminPassword)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.True(t, cfg.Server.IsProduction())

	t.Run("prefixed name wins", func(t *testing.T) {
		t.Setenv("TAAS_ADMIN_AUTH_ADMIN_PASSWORD", "prefixed")

		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, "prefixed", cfg.Auth.AdminPassword)
	})
}

func TestConfigLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 8181
auth:
  admin_password: from-file
  password_compare: plain
tenants:
  - id: enki
    name: Enki
    repo: MyTechPlan/taas-enki
  - id: vesta
    name: Vesta
    repo: MyTechPlan/taas-vesta
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.AdminPassword)
	assert.Equal(t, config.PasswordComparePlain, cfg.Auth.PasswordCompare)
	require.Len(t, cfg.Tenants, 2)
	assert.Equal(t, config.TenantConfig{ID: "enki", Name: "Enki", Repo: "MyTechPlan/taas-enki"}, cfg.Tenants[0])
	assert.Equal(t, "vesta", cfg.Tenants[1].ID)
}

func TestConfigLoad_ExampleFile(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := config.Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	require.Len(t, cfg.Tenants, 2)
	assert.Equal(t, "MyTechPlan/taas-vesta", cfg.Tenants[1].Repo)
}

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		GitHub: config.GitHubConfig{
			Timeout: 15 * time.Second,
		},
		Auth: config.AuthConfig{
			AdminPassword:   "hunter2",
			PasswordCompare: config.PasswordCompareConstantTime,
		},
		Cron:    config.CronConfig{JobsPath: "cron/jobs.json"},
		Preview: config.PreviewConfig{Style: "github", MaxBytes: 1024},
		Tenants: []config.TenantConfig{
			{ID: "enki", Name: "Enki", Repo: "MyTechPlan/taas-enki"},
		},
		RateLimiter: config.RateLimiterConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			BurstSize:         5,
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

func TestConfigValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfigValidate_InvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"invalid server port", func(c *config.Config) { c.Server.Port = 0 }, "invalid server port"},
		{"server port too large", func(c *config.Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"wildcard origin", func(c *config.Config) { c.Server.AllowedOrigins = []string{"https://admin.example.com", "*"} }, "allowed_origins"},
		{"zero request timeout", func(c *config.Config) { c.Server.RequestTimeout = 0 }, "request_timeout"},
		{"zero github timeout", func(c *config.Config) { c.GitHub.Timeout = 0 }, "github timeout"},
		{"missing password", func(c *config.Config) { c.Auth.AdminPassword = "" }, "admin_password"},
		{"unknown compare", func(c *config.Config) { c.Auth.PasswordCompare = "bcrypt" }, "password_compare"},
		{"missing jobs path", func(c *config.Config) { c.Cron.JobsPath = "" }, "jobs_path"},
		{"zero preview size", func(c *config.Config) { c.Preview.MaxBytes = 0 }, "max_bytes"},
		{"tenant without id", func(c *config.Config) { c.Tenants[0].ID = "" }, "id is required"},
		{"tenant bad repo", func(c *config.Config) { c.Tenants[0].Repo = "no-slash" }, "owner/name"},
		{"tenant nested repo", func(c *config.Config) { c.Tenants[0].Repo = "a/b/c" }, "owner/name"},
		{"duplicate tenant", func(c *config.Config) {
			c.Tenants = append(c.Tenants, config.TenantConfig{ID: "enki", Repo: "x/y"})
		}, "duplicate id"},
		{"rate limiter zero rps", func(c *config.Config) { c.RateLimiter.RequestsPerSecond = 0 }, "requests per second"},
		{"rate limiter zero burst", func(c *config.Config) { c.RateLimiter.BurstSize = 0 }, "burst size"},
		{"invalid metrics port", func(c *config.Config) { c.Metrics.Port = -1 }, "invalid metrics port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("disabled limiter skips its checks", func(t *testing.T) {
		cfg := validConfig()
		cfg.RateLimiter = config.RateLimiterConfig{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})
}
