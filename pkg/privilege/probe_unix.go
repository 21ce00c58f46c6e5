//go:build !windows

package privilege

import "os"

// isElevated returns true if the process runs as root
func isElevated() bool {
	return os.Geteuid() == 0
}
