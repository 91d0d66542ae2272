// Package injector runs one command injection: attach to the target
// console, type the command, optionally capture what it printed, release.
package injector

import (
	"errors"
	"fmt"
	"log"
	"time"

	"coninject/internal/capture"
	"coninject/internal/console"
	"coninject/internal/input"
	"coninject/internal/osutils"
)

// Target is an attached console
type Target interface {
	capture.Screen
	WriteInput(seq input.Sequence) (int, error)
	Release() error
}

// AttachFunc attaches to the console of a process
type AttachFunc func(pid uint32) (Target, error)

// Recorder receives diagnostics entries
type Recorder interface {
	Printf(format string, args ...any)
}

// Request describes one injection
type Request struct {
	PID     uint32
	Command string
	Capture bool
}

// Result reports what an injection did
type Result struct {
	// Written is the number of key records the console accepted
	Written int

	// Captured is true when a pre-injection snapshot was taken
	Captured bool

	// Output is the sanitized captured output, possibly empty
	Output string
}

// Options tunes output capture
type Options struct {
	Capture capture.Options

	// Sleep replaces time.Sleep between capture attempts
	Sleep func(time.Duration)
}

// Injector sequences the attach, write and capture steps
type Injector struct {
	attach AttachFunc
	layout input.Layout
	diag   Recorder
	opts   Options
}

// New creates an injector
func New(attach AttachFunc, layout input.Layout, diag Recorder, opts Options) *Injector {
	return &Injector{
		attach: attach,
		layout: layout,
		diag:   diag,
		opts:   opts,
	}
}

// SystemAttach attaches through the OS console API
func SystemAttach(pid uint32) (Target, error) {
	c, err := console.Attach(pid)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run performs the injection. Console failures are recorded to the
// diagnostics log and returned; a failed capture only empties the output.
func (inj *Injector) Run(req Request) (res Result, err error) {
	target, err := inj.attach(req.PID)
	if err != nil {
		inj.record(err, req.PID)
		return res, fmt.Errorf("attaching to PID %d: %w", req.PID, err)
	}
	defer func() {
		if rerr := target.Release(); rerr != nil {
			log.Printf("Injector: release failed: %v", rerr)
		}
	}()

	var capturer *capture.Capturer
	if req.Capture {
		capturer = capture.NewCapturer(target, inj.opts.Capture)
		if inj.opts.Sleep != nil {
			capturer.SetSleep(inj.opts.Sleep)
		}
		if perr := capturer.Prime(); perr != nil {
			// Capture is optional; typing the command still proceeds.
			log.Printf("Injector: capture disabled, pre-snapshot failed: %v", perr)
		}
	}

	seq := input.BuildSequence(req.Command, inj.layout)
	written, err := target.WriteInput(seq)
	res.Written = written
	if err == nil && written < len(seq) {
		err = &console.WriteError{Written: written, Expected: len(seq)}
	}
	if err != nil {
		inj.record(err, req.PID)
		return res, fmt.Errorf("typing command into PID %d: %w", req.PID, err)
	}
	log.Printf("Injector: wrote %d key records to PID %d", written, req.PID)

	if capturer != nil && capturer.Primed() {
		res.Captured = true
		res.Output = capturer.Collect()
	}
	return res, nil
}

// record writes one failure entry carrying the target PID and OS error code
func (inj *Injector) record(err error, pid uint32) {
	if inj.diag == nil {
		return
	}

	var attach *console.AttachError
	if !errors.As(err, &attach) {
		inj.diag.Printf("%v (target PID %d)", err, pid)
		return
	}
	if attach.Code == console.ERROR_ACCESS_DENIED {
		inj.diag.Printf("%v; injector elevated: %v", err, osutils.IsElevated())
		return
	}
	inj.diag.Printf("%v", err)
}
