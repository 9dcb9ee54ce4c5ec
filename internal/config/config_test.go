package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpaulino/pushrelay/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VAPID_PUBLIC_KEY", "BPublic")
	t.Setenv("VAPID_PRIVATE_KEY", "private")
	t.Setenv("PUSH_API_KEY", "secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("VAPID_SUBJECT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "")
	t.Setenv("STATIC_DIR", "")

	cfg := config.FromEnv()

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, config.DefaultVAPIDSubject, cfg.VAPIDSubject)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.Persistent())
}

func TestFromEnv_ExplicitValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "3001")
	t.Setenv("VAPID_SUBJECT", "mailto:ops@example.com")
	t.Setenv("DATABASE_URL", "postgres://relay:pw@localhost:5432/relay")
	t.Setenv("STATIC_DIR", "/srv/app/dist")

	cfg := config.FromEnv()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mailto:ops@example.com", cfg.VAPIDSubject)
	assert.Equal(t, "postgres://relay:pw@localhost:5432/relay", cfg.DatabaseURL)
	assert.Equal(t, "/srv/app/dist", cfg.StaticDir)
	assert.True(t, cfg.Persistent())
}

func TestFromEnv_SupabaseFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "postgres://relay:pw@db.supabase.co:5432/postgres")

	cfg := config.FromEnv()

	assert.Equal(t, "postgres://relay:pw@db.supabase.co:5432/postgres", cfg.DatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		VAPIDPublicKey:  "BPublic",
		VAPIDPrivateKey: "private",
		APIKey:          "secret",
	}
	require.NoError(t, valid.Validate())

	missingKeys := valid
	missingKeys.VAPIDPrivateKey = ""
	assert.ErrorIs(t, missingKeys.Validate(), config.ErrMissingVAPIDKeys)

	missingAPIKey := valid
	missingAPIKey.APIKey = ""
	assert.ErrorIs(t, missingAPIKey.Validate(), config.ErrMissingAPIKey)
}
