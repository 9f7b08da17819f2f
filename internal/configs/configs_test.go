package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDevelopmentDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
	assert.Equal(t, devDatabaseDSN, cfg.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "http://localhost:3000/auth/google/secrets", cfg.CallbackURL())
	assert.False(t, cfg.FederatedEnabled())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestProductionRequiresSecrets(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"ENVIRONMENT": "production", "DATABASE_URL": "postgres://db/secrets"}))
	assert.ErrorContains(t, err, "SESSION_SECRET")

	_, err = FromEnv(envOf(map[string]string{"ENVIRONMENT": "production", "SESSION_SECRET": "s"}))
	assert.ErrorContains(t, err, "DATABASE_URL")

	cfg, err := FromEnv(envOf(map[string]string{
		"ENVIRONMENT":     "production",
		"SESSION_SECRET":  "s",
		"DATABASE_URL":    "postgres://db/secrets",
		"CLIENT_ID":       "id",
		"CLIENT_SECRET":   "secret",
		"ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"BCRYPT_COST":     "12",
		"SESSION_TTL":     "2h",
	}))
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.FederatedEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestInvalidValues(t *testing.T) {
	bad := []map[string]string{
		{"PORT": "eighty"},
		{"PORT": "80"},
		{"BCRYPT_COST": "3"},
		{"BCRYPT_COST": "32"},
		{"SESSION_TTL": "forever"},
		{"REQUEST_TIMEOUT": "-1s"},
		{"CLIENT_ID": "only-id"},
	}
	for _, vars := range bad {
		_, err := FromEnv(envOf(vars))
		assert.Error(t, err, "%v", vars)
	}
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=4321\nBCRYPT_COST=11\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		os.Unsetenv("PORT")
		os.Unsetenv("BCRYPT_COST")
	})
	t.Setenv("BCRYPT_COST", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4321, cfg.Port)
	assert.Equal(t, 12, cfg.BcryptCost, "the real environment wins over .env")
}

func TestOverridePortMovesDefaultCallback(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	require.NoError(t, cfg.OverridePort(8080))
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080/auth/google/secrets", cfg.CallbackURL())

	assert.Error(t, cfg.OverridePort(80))
	assert.Equal(t, 8080, cfg.Port, "a rejected port leaves the config unchanged")

	cfg, err = FromEnv(envOf(map[string]string{"OAUTH_CALLBACK_URL": "https://secrets.example.com/auth/google/secrets"}))
	require.NoError(t, err)
	require.NoError(t, cfg.OverridePort(8080))
	assert.Equal(t, "https://secrets.example.com/auth/google/secrets", cfg.CallbackURL(), "an explicit callback is kept")
}
