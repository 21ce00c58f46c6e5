package prompt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)
	alertTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
)

// Terminal implements Prompter and Notifier on top of a bubbletea file picker.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a terminal prompter writing notices to stderr.
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stderr}
}

func (t *Terminal) SelectFile(ctx context.Context, req FileRequest) (string, bool, error) {
	fp := filepicker.New()
	fp.CurrentDirectory = req.StartDir
	fp.AllowedTypes = req.Extensions
	fp.FileAllowed = true
	fp.DirAllowed = false
	return t.run(ctx, pickerModel{picker: fp, title: req.Title, hint: "enter: select · q: cancel"})
}

func (t *Terminal) SelectDirectory(ctx context.Context, req DirectoryRequest) (string, bool, error) {
	fp := filepicker.New()
	fp.CurrentDirectory = req.RootDir
	fp.FileAllowed = false
	fp.DirAllowed = true
	return t.run(ctx, pickerModel{picker: fp, title: req.Title, hint: "enter: select folder · →: open · q: cancel"})
}

func (t *Terminal) run(ctx context.Context, model pickerModel) (string, bool, error) {
	slog.Info("prompt_open", "title", model.title, "start_dir", model.picker.CurrentDirectory)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		slog.Error("prompt_failed", "title", model.title, "error", err)
		return "", false, fmt.Errorf("prompt %q: %w", model.title, err)
	}

	m, ok := final.(pickerModel)
	if !ok || m.selected == "" {
		slog.Info("prompt_cancelled", "title", model.title)
		return "", false, nil
	}

	slog.Info("prompt_selected", "title", model.title, "path", m.selected)
	return m.selected, true, nil
}

// Alert renders a bordered error box.
func (t *Terminal) Alert(title, message string) {
	slog.Error("user_alert", "title", title, "message", message)
	fmt.Fprintln(t.out, renderAlert(title, message))
}

func renderAlert(title, message string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, alertTitleStyle.Render(title), "", message)
	return alertStyle.Render(body)
}

// pickerModel wraps the file picker and quits once a path is chosen.
type pickerModel struct {
	picker   filepicker.Model
	title    string
	hint     string
	selected string
}

func (m pickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.selected = path
		return m, tea.Quit
	}

	return m, cmd
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(m.hint))
	return b.String()
}
