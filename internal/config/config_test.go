package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "production",
		DBSSLMode:                "require",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		JWTTTL:                   time.Hour,
		DBPassword:               "secure-password",
		Port:                     "8080",
		DBConnMaxLifetimeMinutes: 1,
		TracingSampleRatio:       1,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid production config", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"Short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"Short secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = "short" }, false},
		{"Default DB password in production", func(c *Config) { c.DBPassword = "password" }, true},
		{"Negative token TTL", func(c *Config) { c.JWTTTL = -time.Minute }, true},
		{"Sweep interval too small", func(c *Config) {
			c.ExpirySweepEnabled = true
			c.ExpirySweepInterval = time.Second
		}, true},
		{"Sweep interval ignored when disabled", func(c *Config) { c.ExpirySweepInterval = time.Second }, false},
		{"Sample ratio above one", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", " TEST ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CAMPAIGN_EXPIRY_SWEEP", "true")
	t.Setenv("CAMPAIGN_EXPIRY_SWEEP_INTERVAL", "5m")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 2*time.Hour, c.JWTTTL)
	assert.True(t, c.ExpirySweepEnabled)
	assert.Equal(t, 5*time.Minute, c.ExpirySweepInterval)
	assert.Equal(t, "hybrid", c.DBSchemaMode)
}

func TestLoadConfig_MissingProfileFile(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ProfileNameIsNormalized(t *testing.T) {
	defer viper.Reset()
	dir := t.TempDir()
	profile := "DB_SSLMODE: require\nDB_SCHEMA_MODE: sql\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.production.yml"), []byte(profile), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("APP_ENV", " Production ")
	t.Setenv("JWT_SECRET", "secure-secret-at-least-32-chars-long")
	t.Setenv("DB_PASSWORD", "secure-password")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", c.Env)
	assert.Equal(t, "require", c.DBSSLMode)
	assert.Equal(t, "sql", c.DBSchemaMode)
}
