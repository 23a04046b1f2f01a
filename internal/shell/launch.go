package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/nixpig/tsh/internal/jobs"
)

// Launch starts path with argv as a new job and registers it in the job
// table. A background job is acknowledged with a status line and tracking
// returns immediately; a foreground job blocks the caller until it leaves the
// foreground.
//
// The shell guard is held from before process creation until registration
// completes, so a child that exits immediately cannot be reaped before its
// job entry exists.
func (s *Shell) Launch(
	path string,
	argv []string,
	background bool,
	commandLine string,
) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// The child gets its own process group so keyboard-generated signals
	// aimed at the shell's group never reach it directly; the forwarder
	// addresses the group explicitly instead.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	s.mu.Lock()

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()

		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(s.out, "%s: Command not found\n", path)
		} else {
			fmt.Fprintf(s.out, "Unable to start child process for: %s\n", commandLine)
		}

		return fmt.Errorf("launch %s: %w", path, err)
	}

	pid := cmd.Process.Pid

	state := jobs.StateForeground
	if background {
		state = jobs.StateBackground
	}

	jid, err := s.registry.Add(pid, state, commandLine)
	if err != nil {
		s.mu.Unlock()

		// The child keeps running but is not tracked: it will be reaped on
		// exit and the failed Remove logged, nothing more.
		fmt.Fprintf(s.out, "Failed to create job for %s\n", commandLine)

		return fmt.Errorf("register job for pid %d: %w", pid, err)
	}

	s.mu.Unlock()

	// Reaping is done exclusively through Wait4 in the reaper, so the process
	// handle is never waited on again.
	cmd.Process.Release()

	s.logger.Debug(
		"job started",
		"jid", jid,
		"pid", pid,
		"background", background,
	)

	if background {
		fmt.Fprintf(s.out, "[%d] (%d) %s\n", jid, pid, commandLine)

		return nil
	}

	s.WaitForeground(pid)

	return nil
}
