package pipeline

import (
	"path/filepath"
)

// RegistrationKey is where the installer package records the product.
const RegistrationKey = `HKLM\Software\WhiteBeard\PawnPlugin`

// Registration holds the values the installer package persists after a
// successful run. The pipeline only computes them.
type Registration struct {
	Key           string `yaml:"key"`
	Installed     int    `yaml:"Installed"`
	Version       string `yaml:"Version"`
	InstallDir    string `yaml:"InstallDir"`
	MT5Root       string `yaml:"MT5Root"`
	MT5PluginPath string `yaml:"MT5PluginPath"`
	PluginVersion string `yaml:"PluginVersion"`
}

// ComputeRegistration derives registration values from a finished context.
func ComputeRegistration(s Snapshot, opts Options) *Registration {
	return &Registration{
		Key:           RegistrationKey,
		Installed:     1,
		Version:       opts.ProductVersion,
		InstallDir:    s.InstallSourceDir,
		MT5Root:       s.TargetRoot,
		MT5PluginPath: filepath.Join(s.TargetRoot, opts.PluginsSubdir, opts.PayloadName),
		PluginVersion: opts.PluginVersion,
	}
}
