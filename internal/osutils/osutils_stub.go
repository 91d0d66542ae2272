//go:build !windows

package osutils

import "os"

// IsElevated reports whether the process runs as root
func IsElevated() bool {
	return os.Geteuid() == 0
}
