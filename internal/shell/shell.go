// Package shell implements the job-control core of the tsh shell: launching
// child processes in their own process groups, tracking them in a
// fixed-capacity job table, reaping them as the kernel reports state changes,
// and forwarding keyboard signals to the foreground job.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/nixpig/tsh/internal/jobs"
	"github.com/nixpig/tsh/internal/parse"
)

// Shell owns the job Registry and coordinates the launcher, the reaper, the
// foreground synchronizer, and the signal forwarder around it.
type Shell struct {
	registry *jobs.Registry

	// mu is the shell's one guard: the launcher holds it from before process
	// creation until registration completes, the reaper holds it for its
	// whole drain, and every command path takes it before touching the
	// registry. There is no other mutual exclusion in the system.
	mu   sync.Mutex
	cond sync.Cond

	out    io.Writer
	logger *slog.Logger
	prompt string

	// fatal is invoked when the reaper sees a child status the model doesn't
	// recognize, after which the job table can no longer be trusted.
	fatal func(format string, args ...any)
}

// Options configures a Shell. Zero values select the defaults.
type Options struct {
	// Capacity is the number of job table slots. Defaults to
	// jobs.DefaultCapacity.
	Capacity int

	// Prompt is printed before each command line read. Empty suppresses it.
	Prompt string

	// Out receives user-facing status lines. Defaults to os.Stdout.
	Out io.Writer

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a Shell ready to run jobs.
func New(opts Options) *Shell {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Shell{
		registry: jobs.NewRegistry(opts.Capacity),
		out:      opts.Out,
		logger:   opts.Logger,
		prompt:   opts.Prompt,
	}

	s.cond.L = &s.mu

	s.fatal = func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		os.Exit(1)
	}

	return s
}

// Run executes the read-eval loop until the quit builtin or end of input.
// Signal handling must be started separately; see HandleSignals.
func (s *Shell) Run(stdin io.Reader) error {
	scanner := bufio.NewScanner(stdin)

	for {
		if s.prompt != "" {
			fmt.Fprint(s.out, s.prompt)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read command line: %w", err)
			}

			// End of input (ctrl-d).
			return nil
		}

		if quit := s.Eval(scanner.Text()); quit {
			return nil
		}
	}
}

// Eval dispatches one command line: builtins are executed in place and
// anything else is handed to the launcher. It reports whether the quit
// builtin was invoked.
func (s *Shell) Eval(line string) bool {
	argv, background := parse.Parse(line)
	if len(argv) == 0 {
		return false
	}

	if handled, quit := s.runBuiltin(argv); handled {
		return quit
	}

	if err := s.Launch(argv[0], argv, background, strings.TrimSpace(line)); err != nil {
		// Already reported to the user at the point of detection.
		s.logger.Debug("launch failed", "error", err)
	}

	return false
}

// WaitForeground blocks, without spinning, until the registry no longer
// reports pid as the foreground job: either the reaper removed it or marked
// it stopped, or a command moved it to the background. Every wakeup
// re-validates the predicate against the registry, so spurious broadcasts are
// harmless.
func (s *Shell) WaitForeground(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		fg, ok := s.registry.ForegroundPID()
		if !ok || fg != pid {
			return
		}

		s.cond.Wait()
	}
}

// Jobs returns a snapshot of the live jobs in slot order.
func (s *Shell) Jobs() []jobs.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.Jobs()
}
