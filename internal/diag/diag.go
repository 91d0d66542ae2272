// Package diag writes the append-only diagnostics log kept beside the
// injector executable. Logging is best-effort: a log that cannot be opened
// is skipped so it never hides the failure being reported.
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"coninject/internal/osutils"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	lockTimeout     = 250 * time.Millisecond
	lockRetry       = 25 * time.Millisecond
)

// Logger appends timestamped entries to a log file
type Logger struct {
	path  string
	runID string
	now   func() time.Time
}

// New creates a logger writing to path. A relative path is resolved
// beside the executable; an empty path yields a logger that discards
// everything.
func New(path string) *Logger {
	if path != "" && !filepath.IsAbs(path) {
		path = osutils.BesideExe(path)
	}
	return &Logger{
		path:  path,
		runID: uuid.NewString()[:8],
		now:   time.Now,
	}
}

// Discard returns a logger that writes nothing
func Discard() *Logger {
	return &Logger{now: time.Now}
}

// Path returns the log file path, empty when discarding
func (l *Logger) Path() string {
	return l.path
}

// RunID identifies the entries written by this process
func (l *Logger) RunID() string {
	return l.runID
}

// Printf appends one entry. Newlines in the message are folded so every
// entry stays on a single line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.path == "" {
		return
	}

	msg := strings.ReplaceAll(fmt.Sprintf(format, args...), "\r", "")
	msg = strings.ReplaceAll(msg, "\n", " ")
	line := fmt.Sprintf("[%s] (%s) %s\n", l.now().Format(timestampLayout), l.runID, msg)

	unlock := l.lock()
	defer unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// Swallowed: an unwritable log must not change the exit path.
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}

// lock serializes appends from concurrent injectors through a sibling lock
// file. When the lock cannot be taken in time the entry is written anyway.
func (l *Logger) lock() func() {
	fl := flock.New(l.path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		return func() {}
	}
	return func() { _ = fl.Unlock() }
}
