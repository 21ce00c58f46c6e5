package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/whitebeard-ai/pawn-installer/internal/config"
	"github.com/whitebeard-ai/pawn-installer/internal/logging"
	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// loadConfig loads and validates the configuration and applies its logging
// settings. The returned closer flushes the log file.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "config invalid")
	}

	closer, err := logging.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "logging init failed")
	}
	return cfg, closer, nil
}

// ensureDirectories creates all necessary directories for the application
func ensureDirectories(stateDBPath, fsmDBPath string) error {
	// Create database directory
	if err := os.MkdirAll(filepath.Dir(stateDBPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	// Create FSM database directory (only needed for install)
	if fsmDBPath != "" {
		if err := os.MkdirAll(fsmDBPath, 0755); err != nil {
			return errors.Wrap(err, "failed to create FSM directory")
		}
	}

	return nil
}
