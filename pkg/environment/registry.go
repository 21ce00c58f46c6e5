// Package environment resolves the MetaTrader 5 installation root.
package environment

// Registry reads string values from the machine-wide registry hive.
type Registry interface {
	// LookupString returns the value and true when it exists. A missing key
	// or value is not an error.
	LookupString(key, value string) (string, bool, error)
}

// MapRegistry is an in-memory registry keyed by "key\value".
type MapRegistry map[string]string

func (m MapRegistry) LookupString(key, value string) (string, bool, error) {
	v, ok := m[key+`\`+value]
	return v, ok, nil
}
