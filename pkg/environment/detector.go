package environment

import (
	"context"
	"log/slog"
	"os"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
)

// Source names the tier that produced a target root.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceDefault  Source = "default_path"
	SourcePrompt   Source = "prompt"
)

// PickerTitle is shown on the directory prompt.
const PickerTitle = "Select MetaTrader 5 Installation Folder"

// Options configures a Detector.
type Options struct {
	RegistryKey   string
	RegistryValue string
	DefaultPath   string
	PromptRoot    string
}

// Detector finds the target root by registry lookup, then the conventional
// default path, then a directory prompt. Every candidate must be an
// existing directory.
type Detector struct {
	opts     Options
	registry Registry
	prompter prompt.Prompter
}

// NewDetector creates a detector. Nil collaborators fall back to the
// system registry and a non-interactive prompter.
func NewDetector(opts Options, reg Registry, prompter prompt.Prompter) *Detector {
	if reg == nil {
		reg = SystemRegistry()
	}
	if prompter == nil {
		prompter = prompt.None{}
	}
	if opts.PromptRoot == "" {
		opts.PromptRoot = prompt.ProgramFilesDir()
	}
	return &Detector{opts: opts, registry: reg, prompter: prompter}
}

// Detect returns the resolved target root and the tier it came from.
func (d *Detector) Detect(ctx context.Context) (string, Source, error) {
	slog.Info("mt5_detect_start",
		"registry_key", d.opts.RegistryKey,
		"default_path", d.opts.DefaultPath)

	path, ok, err := d.registry.LookupString(d.opts.RegistryKey, d.opts.RegistryValue)
	switch {
	case err != nil:
		slog.Warn("mt5_registry_lookup_failed", "key", d.opts.RegistryKey, "error", err)
	case !ok:
		slog.Info("mt5_registry_absent", "key", d.opts.RegistryKey, "value", d.opts.RegistryValue)
	case isDir(path):
		slog.Info("mt5_found", "source", SourceRegistry, "path", path)
		return path, SourceRegistry, nil
	default:
		slog.Warn("mt5_registry_path_missing", "path", path)
	}

	if d.opts.DefaultPath != "" && isDir(d.opts.DefaultPath) {
		slog.Info("mt5_found", "source", SourceDefault, "path", d.opts.DefaultPath)
		return d.opts.DefaultPath, SourceDefault, nil
	}
	slog.Info("mt5_default_path_missing", "path", d.opts.DefaultPath)

	path, ok, err = d.prompter.SelectDirectory(ctx, prompt.DirectoryRequest{
		Title:   PickerTitle,
		RootDir: d.opts.PromptRoot,
	})
	if err != nil {
		return "", "", errors.New(errors.KindNotFound, "select mt5 directory", err)
	}
	if ok && isDir(path) {
		slog.Info("mt5_found", "source", SourcePrompt, "path", path)
		return path, SourcePrompt, nil
	}

	slog.Error("mt5_not_found", "selected", path)
	return "", "", errors.Newf(errors.KindNotFound, "detect mt5", "no MetaTrader 5 installation directory found")
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
