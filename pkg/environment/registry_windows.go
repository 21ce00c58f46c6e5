//go:build windows

package environment

import (
	"errors"

	"golang.org/x/sys/windows/registry"
)

type systemRegistry struct{}

// SystemRegistry reads HKEY_LOCAL_MACHINE.
func SystemRegistry() Registry {
	return systemRegistry{}
}

func (systemRegistry) LookupString(key, value string) (string, bool, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, key, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	defer k.Close()

	v, _, err := k.GetStringValue(value)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, v != "", nil
}
