package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.SeafileServer)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "https", cfg.PublicScheme)
	require.False(t, cfg.IsProduction())
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("SEAFILE_SERVER", "https://seafile.example.com")
	t.Setenv("PUBLIC_SCHEME", "http")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://seafile.example.com", cfg.SeafileServer)
	require.Equal(t, "http", cfg.PublicScheme)
	require.True(t, cfg.IsProduction())
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	viper.Reset()

	_, err := Load("/nonexistent/config.toml")
	require.Error(t, err)
}
