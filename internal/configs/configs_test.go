package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "ENVIRONMENT", "PORT", "STATIC_DIR", "JWT_SECRET", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("ALLOWED_ORIGINS", "")
	os.Unsetenv("ALLOWED_ORIGINS")
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "public", cfg.StaticDir)
	assert.Equal(t, defaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, defaultDatabaseDSN, cfg.DatabaseDSN)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/chat")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "postgres://u:p@db:5432/chat", cfg.DatabaseDSN)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{name: "not a number", port: "eighty"},
		{name: "privileged", port: "80"},
		{name: "too large", port: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", tt.port)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadConfig_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_CHAT_DB_PASSWORD", "hunter2")

	path := writeTempFile(t, `
environment: staging
port: 9100
static_dir: /srv/chat/public
allowed_origins:
  - https://chat.example
jwt_secret: from-file
database_url: postgres://chat:${TEST_CHAT_DB_PASSWORD}@db:5432/chat
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9200")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9200, cfg.Port)
	assert.Equal(t, "/srv/chat/public", cfg.StaticDir)
	assert.Equal(t, []string{"https://chat.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "postgres://chat:hunter2@db:5432/chat", cfg.DatabaseDSN)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeTempFile(t, "port: [not, an, int"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
