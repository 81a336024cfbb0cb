package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mongo:
  uri: "mongodb://localhost:27017"
jwt:
  access_secret: "a"
  refresh_secret: "r"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "financebuddy", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10*time.Minute, cfg.OtpTTL)
	assert.Equal(t, 30, cfg.Security.RateLimitPerMinute)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  port: 8080
  env: production
mongo:
  uri: "mongodb://db:27017"
  database: fb_prod
jwt:
  access_secret: "a"
  refresh_secret: "r"
  access_ttl_minutes: 5
security:
  otp_ttl_minutes: 3
  admin_email: "root@example.com"
  cookie_secure: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "fb_prod", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 3*time.Minute, cfg.OtpTTL)
	assert.Equal(t, "root@example.com", cfg.Security.AdminEmail)
	assert.True(t, cfg.Security.CookieSecure)
}

func TestLoadRequiresMongoURI(t *testing.T) {
	path := writeConfig(t, `
jwt:
  access_secret: "a"
  refresh_secret: "r"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "mongo.uri")
}

func TestLoadRequiresJWTSecrets(t *testing.T) {
	path := writeConfig(t, `
mongo:
  uri: "mongodb://localhost:27017"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt.access_secret")
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	path := writeConfig(t, `
mongo:
  uri: "mongodb://localhost:27017"
jwt:
  access_secret: "same"
  refresh_secret: "same"
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "must differ")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
