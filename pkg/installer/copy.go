package installer

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// BackupSuffix is appended to a destination file before it is overwritten.
const BackupSuffix = ".backup"

// CopyResult describes one guarded copy.
type CopyResult struct {
	Source  string
	Dest    string
	Backup  string // empty when nothing was overwritten
	Size    int64
	ModTime time.Time
	// InPlace is set when source and destination are the same file.
	InPlace bool
}

// EnsureDir creates dir if it is missing and reports whether it did.
func EnsureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, errors.IO("create directory", "", dir, errNotDir)
		}
		slog.Info("directory_exists", "path", dir)
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, errors.IO("stat directory", "", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("directory_create_failed", "path", dir, "error", err)
		return false, errors.IO("create directory", "", dir, err)
	}
	slog.Info("directory_created", "path", dir)
	return true, nil
}

// CopyWithBackup copies src over dst. An existing dst is first copied to
// dst+BackupSuffix, replacing any earlier backup. The written file is
// stat'ed afterwards to confirm it landed.
func CopyWithBackup(op, src, dst string) (*CopyResult, error) {
	res := &CopyResult{Source: src, Dest: dst}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return nil, errors.IO(op, src, dst, err)
	}

	if dstInfo, err := os.Stat(dst); err == nil {
		if os.SameFile(srcInfo, dstInfo) {
			slog.Info("copy_in_place", "op", op, "path", dst)
			res.InPlace = true
			res.Size = dstInfo.Size()
			res.ModTime = dstInfo.ModTime()
			return res, nil
		}

		backup := dst + BackupSuffix
		if err := copyFile(dst, backup); err != nil {
			slog.Error("backup_failed", "op", op, "path", dst, "error", err)
			return nil, errors.IO(op+" backup", dst, backup, err)
		}
		slog.Info("backup_created", "op", op, "path", backup)
		res.Backup = backup
	} else if !os.IsNotExist(err) {
		return nil, errors.IO(op, src, dst, err)
	}

	slog.Info("copy_start", "op", op, "from", src, "to", dst)
	if err := copyFile(src, dst); err != nil {
		slog.Error("copy_failed", "op", op, "from", src, "to", dst, "error", err)
		return nil, errors.IO(op, src, dst, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		slog.Error("copy_verification_failed", "op", op, "path", dst, "error", err)
		return nil, errors.IO(op+" verify", src, dst, err)
	}
	res.Size = info.Size()
	res.ModTime = info.ModTime()

	slog.Info("copy_verified",
		"op", op,
		"path", dst,
		"size_bytes", res.Size,
		"mod_time", res.ModTime.Format(time.RFC3339))
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
