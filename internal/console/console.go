// Package console binds to another process's Win32 console: attach and
// release, batched key-record input, and screen-buffer reads.
package console

// Console device names opened after attaching
const (
	InputDevice  = "CONIN$"
	OutputDevice = "CONOUT$"
)

// ERROR_ACCESS_DENIED is the code AttachConsole reports for a target the
// caller may not attach to
const ERROR_ACCESS_DENIED = 5
