// Package input builds the synthetic keyboard records that type a command
// line into a console input buffer.
package input

// Virtual-key codes used by the fixed frames of a sequence
const (
	VK_RETURN = 0x0D
	VK_ESCAPE = 0x1B
)

// Console control-key state bits (dwControlKeyState)
const (
	LEFT_ALT_PRESSED  = 0x0002
	LEFT_CTRL_PRESSED = 0x0008
	SHIFT_PRESSED     = 0x0010
)

// Modifier bits reported in the high byte of VkKeyScanW
const (
	modShift = 1 << iota
	modCtrl
	modAlt
)

// KeyEvent represents one console key record
type KeyEvent struct {
	Pressed      bool
	VirtualKey   uint16
	ScanCode     uint16
	Char         uint16 // UTF-16 code unit consumed by the console line reader
	ControlState uint32
}

// Sequence is an ordered batch of key events written in a single call
type Sequence []KeyEvent

// Layout translates characters through the active keyboard layout
type Layout interface {
	// KeyScan returns the virtual key and modifier byte that produce ch.
	// ok is false when the layout has no key for ch.
	KeyScan(ch uint16) (vk uint16, mods uint8, ok bool)

	// ScanCode maps a virtual key to its hardware scan code.
	ScanCode(vk uint16) uint16
}
