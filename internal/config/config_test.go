package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ProdUsesPrefixedVariables(t *testing.T) {
	t.Setenv("APP_MODE", "prod\r")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "localhost")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")
	t.Setenv("PROD_SMTP_HOST", "smtp.internal")
	t.Setenv("PUBLIC_URL", "https://renewals.example.lk/")
	t.Setenv("UPLOAD_MAX_MB", "5")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxSizeBytes)
	assert.Equal(t, "https://renewals.example.lk", cfg.PublicURL)
	assert.Equal(t, "https://renewals.example.lk", cfg.GetAllowedOrigins())
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	t.Setenv("APP_MODE", "staging")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DevDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("PORT", "8080")
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("DEV_SMTP_HOST", "")
	t.Setenv("ACCESS_TOKEN_MINUTES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 60, cfg.JWT.AccessTokenMins)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
}

func TestLoadPortal(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "https://api.example.lk/")
	t.Setenv("PORTAL_TIMEOUT_SECONDS", "-3")
	t.Setenv("PORTAL_CACHE_TTL_SECONDS", "30")
	t.Setenv("PORTAL_NOTIFY_BUFFER", "")
	t.Setenv("PORTAL_CREDENTIAL_PATH", "/tmp/cred.yaml")

	cfg := LoadPortal()

	assert.Equal(t, "https://api.example.lk", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 64, cfg.NotifyBuffer)
	assert.Equal(t, "/tmp/cred.yaml", cfg.CredentialPath)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{Host: "h", Port: "3306", User: "u", Password: "p", DBName: "passport_portal"})
	assert.Equal(t, "u:p@tcp(h:3306)/passport_portal?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
