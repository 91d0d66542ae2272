//go:build windows

package console

import (
	"errors"
	"fmt"
	"log"
	"unsafe"

	"golang.org/x/sys/windows"

	"coninject/internal/capture"
	"coninject/internal/input"
)

// Windows console API functions not wrapped by x/sys/windows
var (
	kernel32                        = windows.NewLazySystemDLL("kernel32.dll")
	procAttachConsole               = kernel32.NewProc("AttachConsole")
	procFreeConsole                 = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler       = kernel32.NewProc("SetConsoleCtrlHandler")
	procWriteConsoleInputW          = kernel32.NewProc("WriteConsoleInputW")
	procReadConsoleOutputCharacterW = kernel32.NewProc("ReadConsoleOutputCharacterW")
)

const KEY_EVENT = 0x0001

// INPUT_RECORD with the KEY_EVENT_RECORD arm of the union (20 bytes)
type inputRecord struct {
	EventType       uint16
	_               uint16
	KeyDown         int32
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	UnicodeChar     uint16
	ControlKeyState uint32
}

// Console is an attachment to another process's console
type Console struct {
	pid      uint32
	attached bool
}

// Attach detaches from any console this process owns and attaches to the
// console of pid. The caller must Release the returned Console.
func Attach(pid uint32) (*Console, error) {
	procFreeConsole.Call()

	r, _, err := procAttachConsole.Call(uintptr(pid))
	if r == 0 {
		return nil, &AttachError{
			PID:       pid,
			CallerPID: windows.GetCurrentProcessId(),
			Code:      errnoCode(err),
		}
	}

	// Ctrl+C typed into the shared console belongs to the target
	procSetConsoleCtrlHandler.Call(0, 1)

	log.Printf("Console: attached to PID %d", pid)
	return &Console{pid: pid, attached: true}, nil
}

// Release restores control-signal handling and detaches. Calling it more
// than once is harmless.
func (c *Console) Release() error {
	if c == nil || !c.attached {
		return nil
	}
	c.attached = false

	procSetConsoleCtrlHandler.Call(0, 0)
	r, _, err := procFreeConsole.Call()
	if r == 0 {
		return fmt.Errorf("FreeConsole failed: %w", err)
	}
	log.Printf("Console: released PID %d", c.pid)
	return nil
}

// WriteInput writes the whole sequence to the console input buffer in one
// WriteConsoleInputW call and returns the number of records accepted.
func (c *Console) WriteInput(seq input.Sequence) (int, error) {
	h, err := openDevice(InputDevice)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(h)

	if len(seq) == 0 {
		return 0, nil
	}

	records := make([]inputRecord, len(seq))
	for i, ev := range seq {
		records[i] = toRecord(ev)
	}

	var written uint32
	r, _, err := procWriteConsoleInputW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&records[0])),
		uintptr(len(records)),
		uintptr(unsafe.Pointer(&written)),
	)
	if r == 0 {
		return int(written), &WriteError{
			Written:  int(written),
			Expected: len(records),
			Code:     errnoCode(err),
		}
	}
	return int(written), nil
}

// Snapshot reads the full screen buffer of the attached console
func (c *Console) Snapshot() (capture.Snapshot, error) {
	h, err := openDevice(OutputDevice)
	if err != nil {
		return capture.Snapshot{}, err
	}
	defer windows.CloseHandle(h)

	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(h, &info); err != nil {
		return capture.Snapshot{}, &QueryError{Op: "GetConsoleScreenBufferInfo", Code: errnoCode(err)}
	}

	cols, rows := int(info.Size.X), int(info.Size.Y)
	if cols <= 0 || rows <= 0 {
		return capture.Snapshot{}, &QueryError{Op: "GetConsoleScreenBufferInfo"}
	}

	// Reading from (0,0) wraps across rows, so one call covers the buffer
	cells := make([]uint16, cols*rows)
	var read uint32
	r, _, err := procReadConsoleOutputCharacterW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&cells[0])),
		uintptr(len(cells)),
		0, // COORD{X: 0, Y: 0} passed by value
		uintptr(unsafe.Pointer(&read)),
	)
	if r == 0 {
		return capture.Snapshot{}, &QueryError{Op: "ReadConsoleOutputCharacterW", Code: errnoCode(err)}
	}

	return capture.FromCells(cells[:read], cols), nil
}

func openDevice(name string) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return windows.InvalidHandle, &HandleError{Name: name}
	}
	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return windows.InvalidHandle, &HandleError{Name: name, Code: errnoCode(err)}
	}
	return h, nil
}

func toRecord(ev input.KeyEvent) inputRecord {
	rec := inputRecord{
		EventType:       KEY_EVENT,
		RepeatCount:     1,
		VirtualKeyCode:  ev.VirtualKey,
		VirtualScanCode: ev.ScanCode,
		UnicodeChar:     ev.Char,
		ControlKeyState: ev.ControlState,
	}
	if ev.Pressed {
		rec.KeyDown = 1
	}
	return rec
}

func errnoCode(err error) uint32 {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return uint32(errno)
	}
	return 0
}
