package shell

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// HandleSignals subscribes to the shell's job-control signals and consumes
// them on a dedicated goroutine: SIGCHLD drives the reaper, SIGINT and
// SIGTSTP are forwarded to the foreground job's process group, and SIGQUIT
// terminates the shell. The returned stop function unsubscribes and waits for
// the goroutine to finish.
func (s *Shell) HandleSignals() (stop func()) {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD, unix.SIGQUIT)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for sig := range ch {
			switch sig {
			case unix.SIGCHLD:
				s.Reap()
			case unix.SIGINT:
				s.ForwardInterrupt()
			case unix.SIGTSTP:
				s.ForwardStop()
			case unix.SIGQUIT:
				fmt.Fprintln(s.out, "Terminating after receipt of SIGQUIT signal")
				os.Exit(1)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
		<-done
	}
}

// ForwardInterrupt relays a keyboard interrupt to the foreground job's entire
// process group. The job is not removed here: removal happens in the reaper
// once the child has actually terminated.
func (s *Shell) ForwardInterrupt() {
	s.forwardToForeground(unix.SIGINT)
}

// ForwardStop relays a keyboard suspend to the foreground job's process
// group. The transition to Stopped happens only once the reaper observes it,
// not at forward time.
func (s *Shell) ForwardStop() {
	s.forwardToForeground(unix.SIGTSTP)
}

func (s *Shell) forwardToForeground(sig unix.Signal) {
	s.mu.Lock()

	pid, ok := s.registry.ForegroundPID()
	if !ok {
		s.mu.Unlock()

		fmt.Fprintln(s.out, "no foreground job exists")

		return
	}

	job, err := s.registry.FindByPID(pid)
	if err != nil {
		// Unreachable: the foreground pid comes from a live slot.
		s.mu.Unlock()

		return
	}

	jid := job.JID

	s.mu.Unlock()

	// Negative pid addresses the whole process group.
	if err := unix.Kill(-pid, sig); err != nil {
		if sig == unix.SIGINT {
			fmt.Fprintf(s.out, "Interrupt error: failed to kill %d\n", pid)
		} else {
			fmt.Fprintf(s.out, "Stop error: failed to stop %d\n", pid)
		}

		s.logger.Warn(
			"signal delivery failed",
			"pid", pid,
			"signal", int(sig),
			"error", err,
		)

		return
	}

	// Termination is confirmed here at forward time; a child killed by a
	// signal the forwarder didn't send is removed silently by the reaper.
	if sig == unix.SIGINT {
		fmt.Fprintf(
			s.out,
			"Job [%d] (%d) terminated by signal %d\n",
			jid,
			pid,
			int(sig),
		)
	}
}
