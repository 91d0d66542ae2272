package capture

import (
	"log"
	"strings"
	"time"
)

// Defaults for the poll loop
const (
	DefaultAttempts = 6
	DefaultInterval = 200 * time.Millisecond
)

// Options tunes the poll loop and output bound
type Options struct {
	Attempts int
	Interval time.Duration
	MaxChars int
}

// Capturer snapshots a screen before injection and extracts the new
// output afterwards
type Capturer struct {
	screen Screen
	opts   Options
	sleep  func(time.Duration)

	before Snapshot
	primed bool
}

// NewCapturer creates a capturer reading from screen. Zero option values
// take the package defaults.
func NewCapturer(screen Screen, opts Options) *Capturer {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = MaxChars
	}
	return &Capturer{
		screen: screen,
		opts:   opts,
		sleep:  time.Sleep,
	}
}

// SetSleep replaces the wait between poll attempts
func (c *Capturer) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

// Prime takes the pre-injection snapshot. A failed prime leaves the
// capturer disabled; Collect then returns an empty string.
func (c *Capturer) Prime() error {
	snap, err := c.screen.Snapshot()
	if err != nil {
		c.primed = false
		return err
	}
	c.before = snap
	c.primed = true
	return nil
}

// Primed reports whether a pre-injection snapshot is held
func (c *Capturer) Primed() bool {
	return c.primed
}

// Collect polls for new screen content, strips the echoed command line and
// returns the sanitized output. An empty result is a valid outcome.
func (c *Capturer) Collect() string {
	if !c.primed {
		return ""
	}
	before := c.before.Text()

	diff := c.poll(before)
	output := StripEcho(diff)
	if output == "" {
		output = c.fallback()
	}
	return Sanitize(output, c.opts.MaxChars)
}

// poll waits for the target to render something new. The target draws
// asynchronously, so this is a bounded wait rather than a sync point.
func (c *Capturer) poll(before string) string {
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		c.sleep(c.opts.Interval)

		snap, err := c.screen.Snapshot()
		if err != nil {
			log.Printf("Capture: snapshot attempt %d/%d failed: %v", attempt, c.opts.Attempts, err)
			continue
		}
		if diff := Diff(before, snap.Text()); diff != "" {
			log.Printf("Capture: new output after attempt %d/%d (%d bytes)", attempt, c.opts.Attempts, len(diff))
			return diff
		}
	}
	log.Printf("Capture: no new output after %d attempts", c.opts.Attempts)
	return ""
}

// fallback covers targets that clear or redraw the screen instead of
// appending: the whole current screen becomes the output.
func (c *Capturer) fallback() string {
	snap, err := c.screen.Snapshot()
	if err != nil {
		log.Printf("Capture: fallback snapshot failed: %v", err)
		return ""
	}
	return strings.TrimSpace(snap.Text())
}
