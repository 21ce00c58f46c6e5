// Package privilege reports whether the installer runs with elevated rights.
package privilege

import "log/slog"

// Probe reports whether the current execution context has elevated rights.
type Probe interface {
	Elevated() bool
}

// System returns the probe for the running operating system.
func System() Probe {
	return systemProbe{}
}

type systemProbe struct{}

func (systemProbe) Elevated() bool {
	elevated := isElevated()
	slog.Info("privilege_check", "elevated", elevated)
	return elevated
}

// Static is a fixed answer, used for headless runs and tests.
type Static bool

func (s Static) Elevated() bool {
	return bool(s)
}
