package license

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
)

// PickerTitle is shown on the license file prompt.
const PickerTitle = "Select WhiteBeard Pawn Plugin License File"

// Locator finds the license file in the system data directory and falls
// back to asking the user.
type Locator struct {
	dir      string
	suffix   string
	maxSize  int64
	prompter prompt.Prompter
}

// NewLocator creates a locator for files ending in suffix under dir. Files
// larger than maxSize are ignored when maxSize is positive.
func NewLocator(dir, suffix string, maxSize int64, prompter prompt.Prompter) *Locator {
	if prompter == nil {
		prompter = prompt.None{}
	}
	return &Locator{dir: dir, suffix: suffix, maxSize: maxSize, prompter: prompter}
}

type candidate struct {
	path    string
	name    string
	modTime time.Time
}

// Locate returns the path of the license to install. When several files
// match, the most recently modified one wins and ties go to the lexically
// smallest name. The prompt is consulted at most once, and only when the
// directory yields nothing.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	slog.Info("license_search_start", "dir", l.dir, "suffix", l.suffix)

	candidates, err := l.scan()
	if err != nil {
		slog.Warn("license_search_dir_unreadable", "dir", l.dir, "error", err)
	}

	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			if !candidates[i].modTime.Equal(candidates[j].modTime) {
				return candidates[i].modTime.After(candidates[j].modTime)
			}
			return candidates[i].name < candidates[j].name
		})
		chosen := candidates[0]
		slog.Info("license_found",
			"path", chosen.path,
			"candidates", len(candidates),
			"mod_time", chosen.modTime.Format(time.RFC3339))
		return chosen.path, nil
	}

	slog.Info("license_prompt", "reason", "no_match_in_search_dir")
	path, ok, err := l.prompter.SelectFile(ctx, prompt.FileRequest{
		Title:      PickerTitle,
		Extensions: []string{".lic"},
		StartDir:   prompt.DocumentsDir(),
	})
	if err != nil {
		return "", errors.New(errors.KindNotFound, "select license", err)
	}
	if !ok || path == "" {
		slog.Error("license_not_found", "dir", l.dir)
		return "", errors.Newf(errors.KindNotFound, "locate license",
			"no *%s in %s and no file selected", l.suffix, l.dir)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		slog.Error("license_selection_invalid", "path", path, "error", err)
		return "", errors.Newf(errors.KindNotFound, "locate license", "selected license %s is not a file", path)
	}

	slog.Info("license_selected", "path", path)
	return path, nil
}

func (l *Locator) scan() ([]candidate, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), strings.ToLower(l.suffix)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("license_candidate_skipped", "name", entry.Name(), "error", err)
			continue
		}
		if l.maxSize > 0 && info.Size() > l.maxSize {
			slog.Warn("license_candidate_skipped", "name", entry.Name(), "reason", "too_large", "size", info.Size())
			continue
		}
		out = append(out, candidate{
			path:    filepath.Join(l.dir, entry.Name()),
			name:    entry.Name(),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}
