//go:build !windows

package input

// Stub implementation for non-Windows platforms

// SystemLayout reports every character as unmapped
type SystemLayout struct{}

// NewSystemLayout returns the stub layout
func NewSystemLayout() *SystemLayout {
	return &SystemLayout{}
}

// KeyScan has no layout to consult (stub)
func (SystemLayout) KeyScan(ch uint16) (uint16, uint8, bool) {
	return 0, 0, false
}

// ScanCode has no layout to consult (stub)
func (SystemLayout) ScanCode(vk uint16) uint16 {
	return 0
}
