package security

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Validator enforces limits on the files the installer reads and the names
// it writes into shared directories.
type Validator struct {
	maxPayloadSize int64
}

// NewValidator creates a new security validator
func NewValidator(maxPayloadSize int64) *Validator {
	slog.Info("security_validator_init", "max_payload_size_mb", maxPayloadSize/1024/1024)

	return &Validator{maxPayloadSize: maxPayloadSize}
}

// ValidateFileName checks a name that will be joined onto a trusted
// directory. It must be a single, non-special path element.
func (v *Validator) ValidateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		slog.Error("security_name_validation_failed", "name", name, "reason", "empty_or_special")
		return fmt.Errorf("security: invalid file name %q", name)
	}

	if filepath.IsAbs(name) {
		slog.Error("security_name_validation_failed", "name", name, "reason", "absolute_path")
		return fmt.Errorf("security: absolute path not allowed: %s", name)
	}

	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		slog.Error("security_name_validation_failed", "name", name, "reason", "path_separator")
		return fmt.Errorf("security: file name must not contain path separators: %s", name)
	}

	return nil
}

// ValidatePath rejects relative paths that escape their base directory.
func (v *Validator) ValidatePath(relPath string) error {
	if filepath.IsAbs(relPath) {
		slog.Error("security_path_validation_failed", "path", relPath, "reason", "absolute_path")
		return fmt.Errorf("security: absolute path not allowed: %s", relPath)
	}

	clean := filepath.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		slog.Error("security_path_validation_failed", "path", relPath, "reason", "path_traversal")
		return fmt.Errorf("security: path traversal detected: %s", relPath)
	}

	return nil
}

// ValidatePayloadSize checks a payload binary against the size limit
func (v *Validator) ValidatePayloadSize(size int64) error {
	if size > v.maxPayloadSize {
		slog.Error("security_payload_size_exceeded",
			"payload_size_mb", size/1024/1024,
			"max_payload_size_mb", v.maxPayloadSize/1024/1024)
		return fmt.Errorf("security: payload size %d exceeds max %d", size, v.maxPayloadSize)
	}
	return nil
}
