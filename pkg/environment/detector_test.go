package environment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
	"github.com/whitebeard-ai/pawn-installer/pkg/prompt"
)

const (
	regKey   = `SOFTWARE\MetaQuotes\MetaTrader 5`
	regValue = "InstallDir"
)

type countingRegistry struct {
	MapRegistry
	calls int
}

func (c *countingRegistry) LookupString(key, value string) (string, bool, error) {
	c.calls++
	return c.MapRegistry.LookupString(key, value)
}

func TestDetect_Precedence(t *testing.T) {
	fromRegistry := t.TempDir()
	fromDefault := t.TempDir()
	fromPrompt := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone")

	tests := []struct {
		name        string
		registry    MapRegistry
		defaultPath string
		want        string
		wantSource  Source
		wantPrompts int
	}{
		{
			name:        "registry wins",
			registry:    MapRegistry{regKey + `\` + regValue: fromRegistry},
			defaultPath: fromDefault,
			want:        fromRegistry,
			wantSource:  SourceRegistry,
		},
		{
			name:        "registry absent uses default",
			registry:    MapRegistry{},
			defaultPath: fromDefault,
			want:        fromDefault,
			wantSource:  SourceDefault,
		},
		{
			name:        "registry path missing uses default",
			registry:    MapRegistry{regKey + `\` + regValue: missing},
			defaultPath: fromDefault,
			want:        fromDefault,
			wantSource:  SourceDefault,
		},
		{
			name:        "both missing prompts",
			registry:    MapRegistry{regKey + `\` + regValue: missing},
			defaultPath: missing,
			want:        fromPrompt,
			wantSource:  SourcePrompt,
			wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &countingRegistry{MapRegistry: tt.registry}
			stub := &prompt.Static{Directory: fromPrompt}
			d := NewDetector(Options{
				RegistryKey:   regKey,
				RegistryValue: regValue,
				DefaultPath:   tt.defaultPath,
			}, reg, stub)

			got, source, err := d.Detect(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSource, source)
			assert.Equal(t, 1, reg.calls)
			assert.Equal(t, tt.wantPrompts, stub.DirectoryCalls)
		})
	}
}

func TestDetect_NotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	tests := []struct {
		name   string
		prompt *prompt.Static
	}{
		{"cancelled", &prompt.Static{}},
		{"selection missing", &prompt.Static{Directory: missing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(Options{RegistryKey: regKey, RegistryValue: regValue, DefaultPath: missing}, MapRegistry{}, tt.prompt)

			_, _, err := d.Detect(context.Background())

			require.Error(t, err)
			assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
			assert.Equal(t, 1, tt.prompt.DirectoryCalls)
		})
	}
}
