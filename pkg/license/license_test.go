package license

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
)

const suffix = "_pawn_plugin.lic"

func writeFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestLocate_PrefersSearchDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(dir, "old"+suffix), "x", now.Add(-time.Hour))
	writeFile(t, filepath.Join(dir, "new"+suffix), "x", now)
	writeFile(t, filepath.Join(dir, "notes.txt"), "x", now.Add(time.Hour))

	stub := &prompt.Static{File: "/should/not/be/used.lic"}
	path, err := NewLocator(dir, suffix, 0, stub).Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new"+suffix), path)
	assert.Zero(t, stub.FileCalls)
}

func TestLocate_TieBreaksOnName(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Truncate(time.Second)
	writeFile(t, filepath.Join(dir, "zeta"+suffix), "x", mod)
	writeFile(t, filepath.Join(dir, "alpha"+suffix), "x", mod)

	path, err := NewLocator(dir, suffix, 0, nil).Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alpha"+suffix), path)
}

func TestLocate_SkipsOversized(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(dir, "big"+suffix), "0123456789", now)
	writeFile(t, filepath.Join(dir, "small"+suffix), "0", now.Add(-time.Hour))

	path, err := NewLocator(dir, suffix, 5, nil).Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "small"+suffix), path)
}

func TestLocate_PromptsOnceWhenEmptyOrMissing(t *testing.T) {
	picked := filepath.Join(t.TempDir(), "picked.lic")
	writeFile(t, picked, "x", time.Now())

	dirs := map[string]string{
		"empty":   t.TempDir(),
		"missing": filepath.Join(t.TempDir(), "absent"),
	}

	for name, dir := range dirs {
		t.Run(name, func(t *testing.T) {
			stub := &prompt.Static{File: picked}
			path, err := NewLocator(dir, suffix, 0, stub).Locate(context.Background())

			require.NoError(t, err)
			assert.Equal(t, picked, path)
			assert.Equal(t, 1, stub.FileCalls)
		})
	}
}

func TestLocate_NotFound(t *testing.T) {
	stub := &prompt.Static{}
	_, err := NewLocator(t.TempDir(), suffix, 0, stub).Locate(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	assert.Equal(t, 1, stub.FileCalls)
}

func TestLocate_PromptError(t *testing.T) {
	stub := &prompt.Static{Err: fmt.Errorf("terminal gone")}
	_, err := NewLocator(t.TempDir(), suffix, 0, stub).Locate(context.Background())

	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestParse_RoundTrip(t *testing.T) {
	identities := []Identity{
		{OrganizationName: "Acme", ContactEmail: "ops@acme.test"},
		{OrganizationName: "Smith & Sons Trading LLC", ContactEmail: "desk@smith.example"},
		{OrganizationName: "Zürich Capital", ContactEmail: "it@zc.example"},
	}

	formats := map[string]func(Identity) string{
		"xml": func(id Identity) string {
			return fmt.Sprintf("<?xml version=\"1.0\"?>\n<License>\n  <CompanyName>%s</CompanyName>\n  <CompanyEmail>%s</CompanyEmail>\n</License>\n",
				xmlEscape(id.OrganizationName), xmlEscape(id.ContactEmail))
		},
		"key_value_lf": func(id Identity) string {
			return fmt.Sprintf("CompanyName=%s\nCompanyEmail=%s\n", id.OrganizationName, id.ContactEmail)
		},
		"key_value_crlf": func(id Identity) string {
			return fmt.Sprintf("Licensee\r\ncompanyname= %s \r\nCOMPANYEMAIL=%s\r\n", id.OrganizationName, id.ContactEmail)
		},
	}

	p := NewParser(false)
	for format, encode := range formats {
		for _, want := range identities {
			t.Run(format+"/"+want.OrganizationName, func(t *testing.T) {
				got, err := p.Parse(&Artifact{SourcePath: "acme" + suffix, RawBytes: []byte(encode(want))})
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestParse_XMLMissingFieldFallsBack(t *testing.T) {
	content := "<License><CompanyName>Acme</CompanyName></License>"
	_, err := NewParser(false).Parse(&Artifact{RawBytes: []byte(content)})

	assert.Equal(t, errors.KindParseDegraded, errors.KindOf(err))
}

func TestParse_ByteOrderMark(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, "CompanyName=Acme\nCompanyEmail=ops@acme.test"...)
	got, err := NewParser(false).Parse(&Artifact{RawBytes: content})

	require.NoError(t, err)
	assert.Equal(t, "Acme", got.OrganizationName)
}

func TestParse_LastKeyWins(t *testing.T) {
	content := "CompanyName=Old\nCompanyEmail=a@b.test\nCompanyName=New\n"
	got, err := NewParser(false).Parse(&Artifact{RawBytes: []byte(content)})

	require.NoError(t, err)
	assert.Equal(t, "New", got.OrganizationName)
}

func TestParse_Unreadable(t *testing.T) {
	garbage := &Artifact{SourcePath: "broken" + suffix, RawBytes: []byte{0x00, 0x01, 0x02, 'z'}}

	t.Run("strict", func(t *testing.T) {
		_, err := NewParser(false).Parse(garbage)
		require.Error(t, err)
		assert.Equal(t, errors.KindParseDegraded, errors.KindOf(err))
	})

	// Compatibility mode lets an unreadable license through with synthetic
	// values. Kept only behind the placeholder-identity flag.
	t.Run("placeholder", func(t *testing.T) {
		got, err := NewParser(true).Parse(garbage)
		require.NoError(t, err)
		assert.True(t, got.IsPlaceholder())
		assert.Equal(t, PlaceholderOrganization, got.OrganizationName)
		assert.Equal(t, PlaceholderEmail, got.ContactEmail)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acme"+suffix)
	writeFile(t, path, "CompanyName=Acme", time.Now())

	art, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, path, art.SourcePath)
	assert.Equal(t, "CompanyName=Acme", string(art.RawBytes))

	_, err = Load(path, 4)
	assert.Equal(t, errors.KindParseDegraded, errors.KindOf(err))

	_, err = Load(filepath.Join(dir, "missing.lic"), 0)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
