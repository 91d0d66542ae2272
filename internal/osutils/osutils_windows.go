//go:build windows

package osutils

import (
	"golang.org/x/sys/windows"
)

// IsElevated reports whether the process token is elevated. AttachConsole
// into an elevated target fails with access denied unless the caller is
// elevated too.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
