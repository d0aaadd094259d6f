package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret32 = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", secret32)

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 11520, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "HS256", c.JWT.Algorithm)
	assert.Equal(t, "/api/v1", c.App.APIPrefix)
	assert.Equal(t, 60, c.RateLimit.PerMinute)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, []string{"http://localhost:8000", "http://localhost:3000"}, c.CORS.Origins)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	p := writeYAML(t, `
app:
  name: users
  http:
    port: 9090
jwt:
  secret: "`+secret32+`"
  algorithm: HS512
db:
  driver: sqlite
  dsn: "file::memory:"
`)
	t.Setenv("APP_APP_HTTP_PORT", "9191")
	t.Setenv("APP_CORS_ORIGINS", "https://a.example, https://b.example")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "users", c.App.Name)
	assert.Equal(t, 9191, c.App.HTTP.Port)
	assert.Equal(t, "HS512", c.JWT.Algorithm)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORS.Origins)
}

func TestLoad_RejectsWeakSecret(t *testing.T) {
	p := writeYAML(t, "jwt:\n  secret: short\n")
	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32")
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeYAML(t, "app: [unterminated\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Config{
		App: App{APIPrefix: "/api/v1"},
		JWT: JWT{Secret: secret32, Algorithm: "HS256", AccessTokenTTLMin: 1},
		DB:  DB{Driver: "sqlite"},
	}
	require.NoError(t, c.Validate())

	bad := c
	bad.JWT.Algorithm = "RS256"
	bad.JWT.AccessTokenTTLMin = 0
	bad.DB.Driver = "oracle"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS256")
	assert.Contains(t, err.Error(), "access_token_ttl_min")
	assert.Contains(t, err.Error(), "oracle")
}
