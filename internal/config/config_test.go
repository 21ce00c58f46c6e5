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

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "_pawn_plugin.lic", cfg.LicenseSuffix)
	assert.Equal(t, "https://yourserver.com/verify", cfg.VerifyURL)
	assert.Equal(t, 30*time.Second, cfg.VerifyTimeout)
	assert.Equal(t, `SOFTWARE\MetaQuotes\MetaTrader 5`, cfg.RegistryKey)
	assert.Equal(t, "InstallDir", cfg.RegistryValue)
	assert.Equal(t, "Plugins", cfg.PluginsSubdir)
	assert.Equal(t, "PawnPlugin64.dll", cfg.PayloadName)
	assert.Equal(t, cfg.PayloadName, cfg.PayloadS3Key)
	assert.Equal(t, cfg.LicenseSearchDir, cfg.SystemDataDir)
	assert.False(t, cfg.PlaceholderIdentity)
	assert.True(t, cfg.Interactive)
	assert.True(t, cfg.Journal)
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, int64(1024*1024), cfg.MaxLicenseSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PAWN_VERIFY_URL", "https://license.whitebeard.test/verify")
	t.Setenv("PAWN_VERIFY_TIMEOUT", "5s")
	t.Setenv("PAWN_PLACEHOLDER_IDENTITY", "true")
	t.Setenv("PAWN_PAYLOAD_S3_BUCKET", "whitebeard-releases")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://license.whitebeard.test/verify", cfg.VerifyURL)
	assert.Equal(t, 5*time.Second, cfg.VerifyTimeout)
	assert.True(t, cfg.PlaceholderIdentity)
	assert.True(t, cfg.S3Enabled())
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	wd, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config.yaml"),
		[]byte("payload-name: PawnPluginTest.dll\nlog-level: debug\n"), 0o644))

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "PawnPluginTest.dll", cfg.PayloadName)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty verify url", func(c *Config) { c.VerifyURL = "" }},
		{"relative verify url", func(c *Config) { c.VerifyURL = "verify" }},
		{"zero timeout", func(c *Config) { c.VerifyTimeout = 0 }},
		{"bad product version", func(c *Config) { c.ProductVersion = "one" }},
		{"bad plugin version", func(c *Config) { c.PluginVersion = "1.x.y" }},
		{"payload path", func(c *Config) { c.PayloadName = "bin/PawnPlugin64.dll" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"no license size", func(c *Config) { c.MaxLicenseSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(viper.New())
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
