//go:build windows

package input

import (
	"golang.org/x/sys/windows"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procVkKeyScanW     = user32.NewProc("VkKeyScanW")
	procMapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const MAPVK_VK_TO_VSC = 0

// SystemLayout translates through the keyboard layout of the calling thread
type SystemLayout struct{}

// NewSystemLayout returns the active keyboard layout
func NewSystemLayout() *SystemLayout {
	return &SystemLayout{}
}

// KeyScan wraps VkKeyScanW. A result of -1 means no key produces ch.
func (SystemLayout) KeyScan(ch uint16) (uint16, uint8, bool) {
	r, _, _ := procVkKeyScanW.Call(uintptr(ch))
	vkScan := int16(r)
	if vkScan == -1 {
		return 0, 0, false
	}
	return uint16(vkScan) & 0xFF, uint8(uint16(vkScan) >> 8), true
}

// ScanCode wraps MapVirtualKeyW(vk, MAPVK_VK_TO_VSC)
func (SystemLayout) ScanCode(vk uint16) uint16 {
	r, _, _ := procMapVirtualKeyW.Call(uintptr(vk), MAPVK_VK_TO_VSC)
	return uint16(r)
}
