package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFilesMergesJSONThenDotEnv(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"db_driver":"postgres","app_port":"9000","ignored":42}`), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("APP_PORT=9100\n# comment\nJWT_SECRET=\"s3cret\"\n"), 0o644))

	require.NoError(t, loadFromFiles(jsonPath, envPath))
	t.Cleanup(func() { require.NoError(t, loadFromFiles("missing.json", "missing.env")) })

	assert.Equal(t, "postgres", get("DB_DRIVER", ""))
	assert.Equal(t, "9100", get("APP_PORT", ""))
	assert.Equal(t, "s3cret", get("JWT_SECRET", ""))
}

func TestMissingFilesFallBackToDefaults(t *testing.T) {
	require.NoError(t, loadFromFiles("nope.json", "nope.env"))
	assert.Equal(t, defaultAppEnv, get("APP_ENV", "x"))
	assert.Equal(t, "fallback", get("UNKNOWN_KEY", "fallback"))
}

func TestEnvironmentOverridesFiles(t *testing.T) {
	t.Setenv("MAX_BODY_BYTES", "1024")
	assert.Equal(t, "1024", Get("MAX_BODY_BYTES", "0"))
}

func TestTokenTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	assert.Equal(t, 31*24*time.Hour, TokenTTL())

	t.Setenv("TOKEN_TTL", "2h")
	assert.Equal(t, 2*time.Hour, TokenTTL())

	t.Setenv("TOKEN_TTL", "garbage")
	assert.Equal(t, 31*24*time.Hour, TokenTTL())
}

func TestDatabaseDriverRejectsUnknown(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())

	t.Setenv("DB_DRIVER", "MONGO")
	assert.Equal(t, "mongo", DatabaseDriver())
}
