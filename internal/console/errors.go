package console

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned when running on an OS without Win32 consoles
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrAttach is returned when the OS refuses to attach to the target console
	ErrAttach = errors.New("console attach failed")

	// ErrHandleOpen is returned when CONIN$ or CONOUT$ cannot be opened
	ErrHandleOpen = errors.New("console handle open failed")

	// ErrQuery is returned when screen-buffer metadata or contents cannot be read
	ErrQuery = errors.New("console query failed")

	// ErrWrite is returned when the input batch was not delivered in full
	ErrWrite = errors.New("console input write failed")

	// ErrPartialWrite is returned when the OS accepted fewer records than sent
	ErrPartialWrite = errors.New("console input partially written")
)

// AttachError describes a failed AttachConsole call
type AttachError struct {
	PID       uint32
	CallerPID uint32
	Code      uint32
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("AttachConsole failed for PID %d (error %d, caller PID %d)", e.PID, e.Code, e.CallerPID)
}

func (e *AttachError) Unwrap() error { return ErrAttach }

// HandleError describes a console handle that could not be opened
type HandleError struct {
	Name string
	Code uint32
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("CreateFile(%s) failed (error %d)", e.Name, e.Code)
}

func (e *HandleError) Unwrap() error { return ErrHandleOpen }

// QueryError describes a failed screen-buffer read
type QueryError struct {
	Op   string
	Code uint32
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s failed (error %d)", e.Op, e.Code)
}

func (e *QueryError) Unwrap() error { return ErrQuery }

// WriteError describes an input batch that did not fully reach the console.
// Code is zero when the call succeeded but accepted fewer records.
type WriteError struct {
	Written  int
	Expected int
	Code     uint32
}

func (e *WriteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("WriteConsoleInputW failed (error %d)", e.Code)
	}
	return fmt.Sprintf("WriteConsoleInputW wrote %d of %d records", e.Written, e.Expected)
}

func (e *WriteError) Unwrap() error { return ErrWrite }

// Is matches ErrPartialWrite for short writes
func (e *WriteError) Is(target error) bool {
	return target == ErrPartialWrite && e.Code == 0 && e.Written < e.Expected
}

// Code extracts the OS error code carried by a console error
func Code(err error) (uint32, bool) {
	var (
		attach *AttachError
		handle *HandleError
		query  *QueryError
		write  *WriteError
	)
	switch {
	case errors.As(err, &attach):
		return attach.Code, true
	case errors.As(err, &handle):
		return handle.Code, true
	case errors.As(err, &query):
		return query.Code, true
	case errors.As(err, &write):
		return write.Code, write.Code != 0
	}
	return 0, false
}
