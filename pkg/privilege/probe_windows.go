//go:build windows

package privilege

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

// isElevated checks the process token for elevation (UAC "Run as administrator").
func isElevated() bool {
	token := windows.GetCurrentProcessToken()
	if token.IsElevated() {
		return true
	}

	// Fall back to Administrators group membership for tokens without a
	// linked elevation (UAC disabled).
	adminSID, err := windows.CreateWellKnownSid(windows.WinBuiltinAdministratorsSid)
	if err != nil {
		slog.Error("privilege_admin_sid_failed", "error", err)
		return false
	}
	member, err := windows.Token(0).IsMember(adminSID)
	if err != nil {
		slog.Error("privilege_membership_check_failed", "error", err)
		return false
	}
	return member
}
