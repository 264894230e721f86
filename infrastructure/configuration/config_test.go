package configuration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConfiguration tests the configuration package basic functionality
func TestConfiguration(t *testing.T) {
	t.Run("configuration_struct_exists", func(t *testing.T) {
		require.NotNil(t, &C, "Configuration should not be nil")
		require.NotNil(t, &C.App, "App configuration should exist")
		require.NotNil(t, &C.Database, "Database configuration should exist")
	})

	t.Run("configuration_has_required_fields", func(t *testing.T) {
		config := &C
		require.NotNil(t, config.Database.Psql, "PostgreSQL config should be present")
		require.NotNil(t, config.Database.Mssql, "MSSQL config should be present")
		require.NotNil(t, config.Database.Mongo, "MongoDB config should be present")
		require.NotNil(t, config.Google, "Google config should be present")
	})
}

func TestGetGoogleConfig_DefaultRedirect(t *testing.T) {
	require.NoError(t, os.Unsetenv("GOOGLE_REDIRECT_URL"))
	cfg := GetGoogleConfig()
	require.Contains(t, cfg.DefaultRedirectURI, "/auth/youtube/callback")
}

func TestGetGoogleConfig_EnvOverride(t *testing.T) {
	t.Setenv("GOOGLE_REDIRECT_URL", "https://app.example.com/auth/youtube/callback")
	cfg := GetGoogleConfig()
	require.Equal(t, "https://app.example.com/auth/youtube/callback", cfg.DefaultRedirectURI)
}

func TestGetConfigValue_PlaceholderIgnored(t *testing.T) {
	require.Equal(t, "fallback", getConfigValue("YOUR_CLIENT_ID", "UNSET_ENV_KEY_FOR_TEST", "fallback"))
	require.Equal(t, "configured", getConfigValue("configured", "UNSET_ENV_KEY_FOR_TEST", "fallback"))
}
