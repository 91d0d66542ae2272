// Package osutils resolves process-level facts used for diagnostics.
package osutils

import (
	"os"
	"path/filepath"
)

// ExeDir returns the directory holding the running executable
func ExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// BesideExe returns name joined to the executable directory, or name
// itself when the executable path cannot be resolved
func BesideExe(name string) string {
	dir, err := ExeDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}
