package injector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coninject/internal/capture"
	"coninject/internal/console"
	"coninject/internal/diag"
	"coninject/internal/input"
)

// asciiLayout maps printable ASCII to itself
type asciiLayout struct{}

func (asciiLayout) KeyScan(ch uint16) (uint16, uint8, bool) {
	if ch >= 0x20 && ch < 0x7F {
		return ch, 0, true
	}
	return 0, 0, false
}

func (asciiLayout) ScanCode(vk uint16) uint16 { return vk & 0x7F }

// fakeTarget is an attached console whose screen changes once input arrives
type fakeTarget struct {
	before    string
	after     []string
	snapErr   error
	writeErr  error
	accept    int // records accepted; -1 means all
	written   input.Sequence
	releases  int
	afterSeen int
}

func (f *fakeTarget) Snapshot() (capture.Snapshot, error) {
	if f.snapErr != nil {
		return capture.Snapshot{}, f.snapErr
	}
	text := f.before
	if f.written != nil && len(f.after) > 0 {
		i := f.afterSeen
		if i >= len(f.after) {
			i = len(f.after) - 1
		}
		f.afterSeen++
		text = f.after[i]
	}
	lines := strings.Split(text, "\n")
	return capture.Snapshot{Rows: len(lines), Cols: 80, Lines: lines}, nil
}

func (f *fakeTarget) WriteInput(seq input.Sequence) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = seq
	if f.accept >= 0 && f.accept < len(seq) {
		return f.accept, nil
	}
	return len(seq), nil
}

func (f *fakeTarget) Release() error {
	f.releases++
	return nil
}

// memRecorder keeps diagnostics entries in memory
type memRecorder struct {
	entries []string
}

func (m *memRecorder) Printf(format string, args ...any) {
	m.entries = append(m.entries, fmt.Sprintf(format, args...))
}

func attachTo(target *fakeTarget) AttachFunc {
	return func(pid uint32) (Target, error) {
		return target, nil
	}
}

func noSleep(time.Duration) {}

func TestRunTypesCommand(t *testing.T) {
	target := &fakeTarget{accept: -1}
	rec := &memRecorder{}
	inj := New(attachTo(target), asciiLayout{}, rec, Options{})

	res, err := inj.Run(Request{PID: 100, Command: "echo hi"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Written != len("echo hi")+input.FrameCount {
		t.Errorf("Expected %d records written, got %d", len("echo hi")+input.FrameCount, res.Written)
	}
	seq := target.written
	if seq[0].VirtualKey != input.VK_ESCAPE || !seq[0].Pressed || seq[1].Pressed {
		t.Errorf("Expected Escape down/up first, got %+v %+v", seq[0], seq[1])
	}
	if got := seq.Text(); got != "echo hi" {
		t.Errorf("Expected typed text 'echo hi', got '%s'", got)
	}
	n := len(seq)
	if seq[n-2].VirtualKey != input.VK_RETURN || !seq[n-2].Pressed || seq[n-1].Pressed {
		t.Errorf("Expected Enter down/up last, got %+v %+v", seq[n-2], seq[n-1])
	}
	if target.releases != 1 {
		t.Errorf("Expected 1 release, got %d", target.releases)
	}
	if res.Captured || res.Output != "" {
		t.Errorf("Expected no capture, got %+v", res)
	}
	if len(rec.entries) != 0 {
		t.Errorf("Expected no diagnostics, got %q", rec.entries)
	}
}

func TestRunAttachFailureLogsOneEntry(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-injector.log")
	attachErr := &console.AttachError{PID: 4242, CallerPID: 77, Code: 6}
	attach := func(pid uint32) (Target, error) { return nil, attachErr }

	inj := New(attach, asciiLayout{}, diag.New(logPath), Options{})
	_, err := inj.Run(Request{PID: 4242, Command: "dir"})

	if !errors.Is(err, console.ErrAttach) {
		t.Fatalf("Expected ErrAttach, got %v", err)
	}
	data, rerr := os.ReadFile(logPath)
	if rerr != nil {
		t.Fatalf("Expected log file: %v", rerr)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log entry, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "4242") || !strings.Contains(lines[0], "error 6") {
		t.Errorf("Expected PID and error code in entry, got %q", lines[0])
	}
}

func TestRunHandleOpenFailure(t *testing.T) {
	target := &fakeTarget{writeErr: &console.HandleError{Name: console.InputDevice, Code: 6}}
	rec := &memRecorder{}
	inj := New(attachTo(target), asciiLayout{}, rec, Options{})

	_, err := inj.Run(Request{PID: 9, Command: "x"})

	if !errors.Is(err, console.ErrHandleOpen) {
		t.Fatalf("Expected ErrHandleOpen, got %v", err)
	}
	if target.releases != 1 {
		t.Errorf("Expected release on failure path, got %d", target.releases)
	}
	if len(rec.entries) != 1 || !strings.Contains(rec.entries[0], "CONIN$") || !strings.Contains(rec.entries[0], "PID 9") {
		t.Errorf("Unexpected diagnostics: %q", rec.entries)
	}
}

func TestRunPartialWrite(t *testing.T) {
	target := &fakeTarget{accept: 3}
	rec := &memRecorder{}
	inj := New(attachTo(target), asciiLayout{}, rec, Options{})

	res, err := inj.Run(Request{PID: 9, Command: "hello"})

	if !errors.Is(err, console.ErrPartialWrite) || !errors.Is(err, console.ErrWrite) {
		t.Fatalf("Expected partial write error, got %v", err)
	}
	if res.Written != 3 {
		t.Errorf("Expected 3 written, got %d", res.Written)
	}
	if len(rec.entries) != 1 || !strings.Contains(rec.entries[0], "3 of 9") {
		t.Errorf("Unexpected diagnostics: %q", rec.entries)
	}
	if target.releases != 1 {
		t.Errorf("Expected release, got %d", target.releases)
	}
}

func TestRunCapturesEchoedOutput(t *testing.T) {
	target := &fakeTarget{
		accept: -1,
		before: "C:\\>",
		after:  []string{"C:\\>", "C:\\>echo hi\r\nhi\r\n"},
	}
	var waits int
	inj := New(attachTo(target), asciiLayout{}, &memRecorder{}, Options{
		Sleep: func(time.Duration) { waits++ },
	})

	res, err := inj.Run(Request{PID: 1, Command: "echo hi", Capture: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Captured {
		t.Error("Expected capture to be active")
	}
	if res.Output != "hi" {
		t.Errorf("Expected output 'hi', got %q", res.Output)
	}
	if waits != 2 {
		t.Errorf("Expected 2 poll attempts, got %d", waits)
	}
}

func TestRunCaptureNothingObserved(t *testing.T) {
	target := &fakeTarget{
		accept: -1,
		before: "  \n   ",
		after:  []string{"  \n   "},
	}
	var waits int
	inj := New(attachTo(target), asciiLayout{}, &memRecorder{}, Options{
		Sleep: func(time.Duration) { waits++ },
	})

	res, err := inj.Run(Request{PID: 1, Command: "noop", Capture: true})
	if err != nil {
		t.Fatalf("Expected success when nothing is observed, got %v", err)
	}
	if res.Output != "" {
		t.Errorf("Expected empty output, got %q", res.Output)
	}
	if waits != capture.DefaultAttempts {
		t.Errorf("Expected %d attempts, got %d", capture.DefaultAttempts, waits)
	}
}

func TestRunCapturePrimeFailureDegrades(t *testing.T) {
	target := &fakeTarget{
		accept:  -1,
		snapErr: &console.QueryError{Op: "GetConsoleScreenBufferInfo", Code: 6},
	}
	rec := &memRecorder{}
	inj := New(attachTo(target), asciiLayout{}, rec, Options{Sleep: noSleep})

	res, err := inj.Run(Request{PID: 1, Command: "dir", Capture: true})
	if err != nil {
		t.Fatalf("Capture failure must not fail injection: %v", err)
	}
	if res.Captured || res.Output != "" {
		t.Errorf("Expected degraded capture, got %+v", res)
	}
	if target.written == nil {
		t.Error("Command should still be typed")
	}
	if len(rec.entries) != 0 {
		t.Errorf("Capture failures are not diagnostics entries, got %q", rec.entries)
	}
}

func TestRunCaptureOptions(t *testing.T) {
	target := &fakeTarget{accept: -1, before: "a", after: []string{"a"}}
	var waits []time.Duration
	inj := New(attachTo(target), asciiLayout{}, nil, Options{
		Capture: capture.Options{Attempts: 2, Interval: 5 * time.Millisecond},
		Sleep:   func(d time.Duration) { waits = append(waits, d) },
	})

	if _, err := inj.Run(Request{PID: 1, Command: "b", Capture: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(waits) != 2 || waits[0] != 5*time.Millisecond {
		t.Errorf("Expected two 5ms waits, got %v", waits)
	}
}
