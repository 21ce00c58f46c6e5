package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-version"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// License discovery
	LicenseSearchDir    string `mapstructure:"license-search-dir" validate:"required"`
	LicenseSuffix       string `mapstructure:"license-suffix" validate:"required"`
	PlaceholderIdentity bool   `mapstructure:"placeholder-identity"`

	// Remote verification
	VerifyURL     string        `mapstructure:"verify-url" validate:"required,url"`
	VerifyTimeout time.Duration `mapstructure:"verify-timeout" validate:"gt=0"`

	// MetaTrader 5 detection
	RegistryKey       string `mapstructure:"registry-key" validate:"required"`
	RegistryValue     string `mapstructure:"registry-value" validate:"required"`
	TargetDefaultPath string `mapstructure:"target-default-path"`

	// Installation layout
	SystemDataDir    string `mapstructure:"system-data-dir" validate:"required"`
	PluginsSubdir    string `mapstructure:"plugins-subdir" validate:"required"`
	PayloadName      string `mapstructure:"payload-name" validate:"required"`
	InstallSourceDir string `mapstructure:"install-source-dir" validate:"required"`

	// Run mode
	Interactive bool `mapstructure:"interactive"`
	Journal     bool `mapstructure:"journal"`

	// Database paths
	StateDBPath string `mapstructure:"state-db-path" validate:"required"`
	FSMDBPath   string `mapstructure:"fsm-db-path" validate:"required"`

	// Optional S3 payload source
	PayloadS3Bucket string `mapstructure:"payload-s3-bucket"`
	PayloadS3Region string `mapstructure:"payload-s3-region" validate:"required_with=PayloadS3Bucket"`
	PayloadS3Key    string `mapstructure:"payload-s3-key"`

	// Security limits
	MaxLicenseSize int64 `mapstructure:"max-license-size" validate:"gt=0"`
	MaxPayloadSize int64 `mapstructure:"max-payload-size" validate:"gt=0"`

	// Reported registration values
	ProductVersion string `mapstructure:"product-version" validate:"required"`
	PluginVersion  string `mapstructure:"plugin-version" validate:"required"`

	// Logging
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFile  string `mapstructure:"log-file"`
}

// Platform defaults. The Windows values are where the WhiteBeard and
// MetaQuotes installers put things.
func defaultDataDir() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\WhiteBeard`
	}
	return "/var/lib/whitebeard"
}

func defaultTargetPath() string {
	if runtime.GOOS == "windows" {
		return `C:\MetaTrader 5 Platform\TradeMain`
	}
	return "/opt/metatrader5"
}

func defaultSourceDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("license-search-dir", defaultDataDir())
	v.SetDefault("license-suffix", "_pawn_plugin.lic")
	v.SetDefault("placeholder-identity", false)
	v.SetDefault("verify-url", "https://yourserver.com/verify")
	v.SetDefault("verify-timeout", 30*time.Second)
	v.SetDefault("registry-key", `SOFTWARE\MetaQuotes\MetaTrader 5`)
	v.SetDefault("registry-value", "InstallDir")
	v.SetDefault("target-default-path", defaultTargetPath())
	v.SetDefault("system-data-dir", defaultDataDir())
	v.SetDefault("plugins-subdir", "Plugins")
	v.SetDefault("payload-name", "PawnPlugin64.dll")
	v.SetDefault("install-source-dir", defaultSourceDir())
	v.SetDefault("interactive", true)
	v.SetDefault("journal", true)
	v.SetDefault("state-db-path", ".artifacts/installs.db")
	v.SetDefault("fsm-db-path", ".artifacts/fsm")
	v.SetDefault("payload-s3-bucket", "")
	v.SetDefault("payload-s3-region", "us-east-1")
	v.SetDefault("payload-s3-key", "")
	v.SetDefault("max-license-size", 1024*1024)
	v.SetDefault("max-payload-size", 512*1024*1024)
	v.SetDefault("product-version", "1.0.0")
	v.SetDefault("plugin-version", "1.0.0")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration through v, which may carry bound flags.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Environment variables (will be PAWN_VERIFY_URL, etc.)
	v.SetEnvPrefix("PAWN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.whitebeard")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.PayloadS3Key == "" {
		cfg.PayloadS3Key = cfg.PayloadName
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := version.NewVersion(c.ProductVersion); err != nil {
		return fmt.Errorf("product-version %q: %w", c.ProductVersion, err)
	}
	if _, err := version.NewVersion(c.PluginVersion); err != nil {
		return fmt.Errorf("plugin-version %q: %w", c.PluginVersion, err)
	}
	if strings.ContainsAny(c.PayloadName, `/\`) {
		return fmt.Errorf("payload-name must be a file name, got %q", c.PayloadName)
	}
	return nil
}

// S3Enabled reports whether payloads may be fetched from S3.
func (c *Config) S3Enabled() bool {
	return c.PayloadS3Bucket != ""
}
