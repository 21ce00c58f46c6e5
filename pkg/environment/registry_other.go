//go:build !windows

package environment

type systemRegistry struct{}

// SystemRegistry has no backing store outside Windows and reports every
// value as absent.
func SystemRegistry() Registry {
	return systemRegistry{}
}

func (systemRegistry) LookupString(string, string) (string, bool, error) {
	return "", false, nil
}
