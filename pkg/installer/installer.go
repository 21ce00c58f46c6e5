// Package installer places the Pawn plugin into the MetaTrader 5 tree and
// the license into the WhiteBeard data directory.
package installer

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/privilege"
	"github.com/whitebeard-ai/pawn-installer/pkg/security"
	"github.com/whitebeard-ai/pawn-installer/pkg/storage"
)

var errNotDir = stderrors.New("path exists and is not a directory")

// PayloadFetcher downloads the payload when it is not shipped beside the
// installer. *storage.Client satisfies it.
type PayloadFetcher interface {
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key, localPath string, maxSize int64) (*storage.DownloadResult, error)
}

// Options configures an Installer.
type Options struct {
	SystemDataDir  string
	PluginsSubdir  string
	PayloadName    string
	PayloadKey     string
	MaxPayloadSize int64
}

// Request carries the upstream results the install step consumes.
type Request struct {
	TargetRoot  string
	SourceDir   string
	LicensePath string
}

// Report summarises what the install step did.
type Report struct {
	Elevated      bool
	PluginsDir    string
	PluginsDirNew bool
	DataDirNew    bool
	// Plugin is nil when no payload was available.
	Plugin *CopyResult
	// License is nil when the license was gone by install time.
	License  *CopyResult
	Warnings []string
}

// Installer copies payload and license files with backup-before-overwrite.
type Installer struct {
	opts      Options
	probe     privilege.Probe
	validator *security.Validator
	fetcher   PayloadFetcher
}

// New creates an installer. fetcher may be nil.
func New(opts Options, probe privilege.Probe, validator *security.Validator, fetcher PayloadFetcher) *Installer {
	if probe == nil {
		probe = privilege.System()
	}
	return &Installer{opts: opts, probe: probe, validator: validator, fetcher: fetcher}
}

// Install runs the four install steps in order and stops at the first
// fatal error. Directories and files written before a failure stay on disk.
func (i *Installer) Install(ctx context.Context, req Request) (*Report, error) {
	report := &Report{Elevated: i.probe.Elevated()}
	if !report.Elevated {
		slog.Error("install_not_elevated")
		return report, errors.Newf(errors.KindPermissionDenied, "install files",
			"administrator rights are required to write %s", i.opts.SystemDataDir)
	}

	if err := i.validateNames(); err != nil {
		return report, err
	}

	slog.Info("install_start",
		"target_root", req.TargetRoot,
		"source_dir", req.SourceDir,
		"license_path", req.LicensePath)

	report.PluginsDir = filepath.Join(req.TargetRoot, i.opts.PluginsSubdir)
	created, err := EnsureDir(report.PluginsDir)
	if err != nil {
		return report, err
	}
	report.PluginsDirNew = created

	if report.DataDirNew, err = EnsureDir(i.opts.SystemDataDir); err != nil {
		return report, err
	}

	if err := i.installPayload(ctx, req, report); err != nil {
		return report, err
	}

	if err := i.installLicense(req, report); err != nil {
		return report, err
	}

	slog.Info("install_complete",
		"plugin_installed", report.Plugin != nil,
		"license_installed", report.License != nil,
		"warnings", len(report.Warnings))
	return report, nil
}

func (i *Installer) validateNames() error {
	if i.validator == nil {
		return nil
	}
	if err := i.validator.ValidatePath(i.opts.PluginsSubdir); err != nil {
		return errors.New(errors.KindInternal, "validate plugins dir", err)
	}
	if err := i.validator.ValidateFileName(i.opts.PayloadName); err != nil {
		return errors.New(errors.KindInternal, "validate payload name", err)
	}
	return nil
}

func (i *Installer) installPayload(ctx context.Context, req Request, report *Report) error {
	src := filepath.Join(req.SourceDir, i.opts.PayloadName)
	dst := filepath.Join(report.PluginsDir, i.opts.PayloadName)

	if !isFile(src) {
		staged, cleanup := i.fetchPayload(ctx)
		if staged == "" {
			slog.Warn("payload_missing", "path", src, "outcome", "license_only")
			report.Warnings = append(report.Warnings, "plugin payload not found at "+src+"; installing license only")
			return nil
		}
		defer cleanup()
		src = staged
	}

	if i.validator != nil {
		info, err := os.Stat(src)
		if err != nil {
			return errors.IO("copy plugin", src, dst, err)
		}
		if err := i.validator.ValidatePayloadSize(info.Size()); err != nil {
			return errors.IO("copy plugin", src, dst, err)
		}
	}

	res, err := CopyWithBackup("copy plugin", src, dst)
	if err != nil {
		return err
	}
	report.Plugin = res
	return nil
}

// fetchPayload stages the payload from object storage. It returns an empty
// path when no fetcher is configured or the download fails.
func (i *Installer) fetchPayload(ctx context.Context) (string, func()) {
	if i.fetcher == nil || i.opts.PayloadKey == "" {
		return "", nil
	}

	exists, err := i.fetcher.Exists(ctx, i.opts.PayloadKey)
	if err != nil || !exists {
		slog.Warn("payload_fetch_skipped", "key", i.opts.PayloadKey, "exists", exists, "error", err)
		return "", nil
	}

	staging, err := os.MkdirTemp("", "pawn-payload-")
	if err != nil {
		slog.Warn("payload_staging_failed", "error", err)
		return "", nil
	}
	cleanup := func() { os.RemoveAll(staging) }

	local := filepath.Join(staging, i.opts.PayloadName)
	res, err := i.fetcher.Download(ctx, i.opts.PayloadKey, local, i.opts.MaxPayloadSize)
	if err != nil {
		slog.Warn("payload_fetch_failed", "key", i.opts.PayloadKey, "error", err)
		cleanup()
		return "", nil
	}

	slog.Info("payload_fetched", "key", i.opts.PayloadKey, "sha256", res.SHA256, "size_bytes", res.Size)
	return res.LocalPath, cleanup
}

func (i *Installer) installLicense(req Request, report *Report) error {
	if req.LicensePath == "" || !isFile(req.LicensePath) {
		slog.Warn("license_missing_at_install", "path", req.LicensePath)
		report.Warnings = append(report.Warnings, "license file not found at install time: "+req.LicensePath)
		return nil
	}

	name := filepath.Base(req.LicensePath)
	if i.validator != nil {
		if err := i.validator.ValidateFileName(name); err != nil {
			return errors.New(errors.KindIOFailure, "copy license", err)
		}
	}

	res, err := CopyWithBackup("copy license", req.LicensePath, filepath.Join(i.opts.SystemDataDir, name))
	if err != nil {
		return err
	}
	report.License = res
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
