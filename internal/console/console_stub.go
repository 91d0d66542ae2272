//go:build !windows

package console

import (
	"fmt"

	"coninject/internal/capture"
	"coninject/internal/input"
)

// Stub implementation for non-Windows platforms

// Console represents a stub console attachment
type Console struct{}

// Attach always fails: there is no Win32 console to attach to
func Attach(pid uint32) (*Console, error) {
	return nil, fmt.Errorf("attach to PID %d: %w", pid, ErrUnsupportedPlatform)
}

// Release is a no-op (stub)
func (c *Console) Release() error {
	return nil
}

// WriteInput writes nothing (stub)
func (c *Console) WriteInput(seq input.Sequence) (int, error) {
	return 0, ErrUnsupportedPlatform
}

// Snapshot reads nothing (stub)
func (c *Console) Snapshot() (capture.Snapshot, error) {
	return capture.Snapshot{}, ErrUnsupportedPlatform
}
