package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNone_NeverSelects(t *testing.T) {
	ctx := context.Background()

	path, ok, err := None{}.SelectFile(ctx, FileRequest{Title: "license"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)

	path, ok, err = None{}.SelectDirectory(ctx, DirectoryRequest{Title: "mt5"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestStatic_CountsCalls(t *testing.T) {
	ctx := context.Background()
	s := &Static{File: "/tmp/acme_pawn_plugin.lic"}

	path, ok, err := s.SelectFile(ctx, FileRequest{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/acme_pawn_plugin.lic", path)

	_, ok, err = s.SelectDirectory(ctx, DirectoryRequest{})
	require.NoError(t, err)
	assert.False(t, ok, "no directory preset")

	assert.Equal(t, 1, s.FileCalls)
	assert.Equal(t, 1, s.DirectoryCalls)
}

func TestStatic_Error(t *testing.T) {
	s := &Static{File: "x", Err: errors.New("dialog crashed")}
	_, ok, err := s.SelectFile(context.Background(), FileRequest{})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPickerModel_QuitWithoutSelection(t *testing.T) {
	m := pickerModel{picker: filepicker.New(), title: "Select license"}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(pickerModel).selected)
}

func TestPickerModel_ViewShowsTitle(t *testing.T) {
	m := pickerModel{picker: filepicker.New(), title: "Select your MetaTrader 5 installation directory", hint: "q: cancel"}
	view := m.View()
	assert.Contains(t, view, "Select your MetaTrader 5 installation directory")
	assert.Contains(t, view, "q: cancel")
}

func TestRenderAlert(t *testing.T) {
	out := renderAlert("MT5 Not Found", "Please install MetaTrader 5 before continuing.")
	assert.Contains(t, out, "MT5 Not Found")
	assert.Contains(t, out, "Please install MetaTrader 5 before continuing.")
}
