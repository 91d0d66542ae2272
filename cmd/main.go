// Console Injector - types a command line into another process's console
// and optionally reports what the command printed
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coninject/internal/capture"
	"coninject/internal/config"
	"coninject/internal/diag"
	"coninject/internal/injector"
	"coninject/internal/input"
)

var version = "0.1.0"

const usageLine = "Usage: console-injector <pid> <command> [--capture|-c]"

// UsageError reports bad command-line arguments. It is raised before any
// console call and never reaches the diagnostics log.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// app holds the flag values and collaborators of one invocation
type app struct {
	attach injector.AttachFunc
	layout input.Layout
	stdout io.Writer
	stderr io.Writer

	capture    bool
	verbose    bool
	configPath string
}

func main() {
	a := &app{
		attach: injector.SystemAttach,
		layout: input.NewSystemLayout(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(a.execute(os.Args[1:]))
}

// execute runs the root command and maps the outcome to an exit code
func (a *app) execute(args []string) int {
	cmd := a.newRootCmd()
	cmd.SetArgs(literalArgs(args))

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(a.stderr, uerr.Msg)
		fmt.Fprintln(a.stderr, usageLine)
		return 1
	}
	fmt.Fprintln(a.stderr, err)
	return 1
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console-injector <pid> <command>",
		Short: "Type a command into another process's console",
		Long: `Attach to the console of <pid>, clear its current input line, type
<command> and press Enter. The argument after <pid> is always taken as
the command, even when it looks like a flag.

With --capture the screen buffer is compared before and after the command
and the new output, minus the echoed command line, is written to stdout.
Capture is best-effort and may legitimately be empty.

Failures are appended to console-injector.log beside the executable.

Exit codes:
  0 - Command typed (and output captured, if requested)
  1 - Usage error or console failure

Examples:
  console-injector 4242 "RESET_MAPPINGS"
  console-injector 4242 "echo hi" --capture`,
		Version:       version,
		Args:          validateArgs,
		RunE:          a.runInject,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})

	cmd.Flags().BoolVarP(&a.capture, "capture", "c", false, "Write the command's console output to stdout")
	cmd.Flags().BoolVarP(&a.verbose, "verbose", "v", false, "Log progress to stderr")
	cmd.Flags().StringVar(&a.configPath, "config", "", "Config file (default: console-injector.toml beside the executable)")

	return cmd
}

// literalArgs moves the <pid> <command> pair behind a "--" so the token
// after the PID is always the command, even when it starts with a dash.
// Flags are recognized before the PID and after the command.
func literalArgs(args []string) []string {
	var flags []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(flags, args[i:]...)
		}
		if len(arg) > 1 && strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if arg == "--config" && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}

		end := min(i+2, len(args))
		flags = append(flags, args[end:]...)
		flags = append(flags, "--")
		return append(flags, args[i:end]...)
	}
	return flags
}

// validateArgs checks the positional arguments without touching the console
func validateArgs(_ *cobra.Command, args []string) error {
	_, err := parseRequest(args, false)
	return err
}

// parseRequest turns <pid> <command> into an injection request
func parseRequest(args []string, captureOutput bool) (injector.Request, error) {
	if len(args) != 2 {
		return injector.Request{}, &UsageError{Msg: fmt.Sprintf("Expected 2 arguments, got %d.", len(args))}
	}

	pid, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || pid == 0 {
		return injector.Request{}, &UsageError{Msg: "Invalid PID provided."}
	}

	if args[1] == "" {
		return injector.Request{}, &UsageError{Msg: "Command may not be empty."}
	}

	return injector.Request{
		PID:     uint32(pid),
		Command: args[1],
		Capture: captureOutput,
	}, nil
}

func (a *app) runInject(cmd *cobra.Command, args []string) error {
	if a.verbose {
		log.SetOutput(a.stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	req, err := parseRequest(args, a.capture)
	if err != nil {
		return err
	}

	cfgMgr := config.NewManager(a.configPath)
	if err := cfgMgr.Load(); err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	logger := diag.Discard()
	if !cfg.Log.Disabled {
		logger = diag.New(cfg.Log.File)
		log.Printf("Diagnostics: %s (run %s)", logger.Path(), logger.RunID())
	}

	inj := injector.New(a.attach, a.layout, logger, injector.Options{
		Capture: capture.Options{
			Attempts: cfg.Capture.Attempts,
			Interval: cfg.Capture.Interval(),
			MaxChars: cfg.Capture.MaxChars,
		},
	})

	res, err := inj.Run(req)
	if err != nil {
		return err
	}

	if req.Capture && res.Output != "" {
		a.writeOutput(res.Output)
	}
	return nil
}

// writeOutput prints captured text as is for pipes and ends the line for
// interactive terminals
func (a *app) writeOutput(text string) {
	fmt.Fprint(a.stdout, text)
	if f, ok := a.stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(a.stdout)
	}
}
