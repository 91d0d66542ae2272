package input

import "unicode/utf16"

// FrameCount is the number of events surrounding the typed characters:
// the Escape press/release that clears the pending line and the Enter
// press/release that submits it.
const FrameCount = 4

// BuildSequence returns the records that clear the current line, type
// command one UTF-16 code unit at a time and press Enter.
func BuildSequence(command string, layout Layout) Sequence {
	units := utf16.Encode([]rune(command))

	escScan := layout.ScanCode(VK_ESCAPE)
	retScan := layout.ScanCode(VK_RETURN)

	seq := make(Sequence, 0, len(units)+FrameCount)
	seq = append(seq,
		KeyEvent{Pressed: true, VirtualKey: VK_ESCAPE, ScanCode: escScan, Char: VK_ESCAPE},
		KeyEvent{Pressed: false, VirtualKey: VK_ESCAPE, ScanCode: escScan, Char: VK_ESCAPE},
	)

	for _, ch := range units {
		seq = append(seq, charEvent(ch, layout))
	}

	seq = append(seq,
		KeyEvent{Pressed: true, VirtualKey: VK_RETURN, ScanCode: retScan, Char: VK_RETURN},
		KeyEvent{Pressed: false, VirtualKey: VK_RETURN, ScanCode: retScan, Char: VK_RETURN},
	)
	return seq
}

// charEvent builds the single key-down record for a typed character.
// The console's line reader consumes Char directly, so an unmapped key
// still types correctly.
func charEvent(ch uint16, layout Layout) KeyEvent {
	vk, mods, ok := layout.KeyScan(ch)
	if !ok {
		return KeyEvent{Pressed: true, Char: ch}
	}
	return KeyEvent{
		Pressed:      true,
		VirtualKey:   vk,
		ScanCode:     layout.ScanCode(vk),
		Char:         ch,
		ControlState: ControlState(mods),
	}
}

// ControlState converts a VkKeyScanW modifier byte to console
// control-key state bits.
func ControlState(mods uint8) uint32 {
	var state uint32
	if mods&modShift != 0 {
		state |= SHIFT_PRESSED
	}
	if mods&modCtrl != 0 {
		state |= LEFT_CTRL_PRESSED
	}
	if mods&modAlt != 0 {
		state |= LEFT_ALT_PRESSED
	}
	return state
}

// Text returns the characters typed by the sequence, skipping the
// Escape and Enter frames.
func (s Sequence) Text() string {
	if len(s) < FrameCount {
		return ""
	}
	body := s[2 : len(s)-2]
	units := make([]uint16, len(body))
	for i, ev := range body {
		units[i] = ev.Char
	}
	return string(utf16.Decode(units))
}
