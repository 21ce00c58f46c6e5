// Package prompt abstracts the interactive surfaces the installer needs: a
// license file picker, a directory picker and a modal error notice.
package prompt

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

// FileRequest describes a file selection.
type FileRequest struct {
	Title string
	// Extensions restricts selectable files, e.g. ".lic". Empty allows all.
	Extensions []string
	StartDir   string
}

// DirectoryRequest describes a directory selection.
type DirectoryRequest struct {
	Title   string
	RootDir string
}

// Prompter is the injected interactive selection capability. A false
// second return means the user made no selection.
type Prompter interface {
	SelectFile(ctx context.Context, req FileRequest) (string, bool, error)
	SelectDirectory(ctx context.Context, req DirectoryRequest) (string, bool, error)
}

// Notifier shows a blocking error notice to the person running the installer.
type Notifier interface {
	Alert(title, message string)
}

// None never selects anything. It is the prompter for non-interactive runs.
type None struct{}

func (None) SelectFile(context.Context, FileRequest) (string, bool, error) {
	slog.Info("prompt_skipped", "kind", "file", "reason", "non_interactive")
	return "", false, nil
}

func (None) SelectDirectory(context.Context, DirectoryRequest) (string, bool, error) {
	slog.Info("prompt_skipped", "kind", "directory", "reason", "non_interactive")
	return "", false, nil
}

// LogNotifier records alerts in the log only.
type LogNotifier struct{}

func (LogNotifier) Alert(title, message string) {
	slog.Error("user_alert", "title", title, "message", message)
}

// DocumentsDir returns the user's documents folder, falling back to the home
// directory when it does not exist.
func DocumentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	docs := filepath.Join(home, "Documents")
	if info, err := os.Stat(docs); err == nil && info.IsDir() {
		return docs
	}
	return home
}

// ProgramFilesDir returns the program-files equivalent for the platform.
func ProgramFilesDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("ProgramFiles"); dir != "" {
			return dir
		}
		return `C:\Program Files`
	}
	return "/opt"
}

// Static answers prompts with preset paths and counts how often each was
// asked. It backs unattended installs and headless tests.
type Static struct {
	File      string
	Directory string
	Err       error

	FileCalls      int
	DirectoryCalls int
}

func (s *Static) SelectFile(_ context.Context, req FileRequest) (string, bool, error) {
	s.FileCalls++
	if s.Err != nil {
		return "", false, s.Err
	}
	slog.Info("prompt_preset", "kind", "file", "title", req.Title, "path", s.File)
	return s.File, s.File != "", nil
}

func (s *Static) SelectDirectory(_ context.Context, req DirectoryRequest) (string, bool, error) {
	s.DirectoryCalls++
	if s.Err != nil {
		return "", false, s.Err
	}
	slog.Info("prompt_preset", "kind", "directory", "title", req.Title, "path", s.Directory)
	return s.Directory, s.Directory != "", nil
}
