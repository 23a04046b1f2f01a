package shell

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/nixpig/tsh/internal/jobs"
)

// reapAction is what the reaper does to a job's registry entry in response to
// one reported child status.
type reapAction int

const (
	// reapRemove clears the job's slot: the process exited or was killed.
	reapRemove reapAction = iota

	// reapStop marks the job stopped and reports the stopping signal.
	reapStop

	// reapFatal means the kernel reported a status the model doesn't
	// recognize; correct operation can no longer be guaranteed.
	reapFatal
)

// childTransition maps a reported wait status to the action taken on the
// job's registry entry, plus the signal involved where there is one. It is a
// pure function of the status.
func childTransition(ws unix.WaitStatus) (reapAction, unix.Signal) {
	switch {
	case ws.Exited():
		return reapRemove, 0
	case ws.Signaled():
		return reapRemove, ws.Signal()
	case ws.Stopped():
		return reapStop, ws.StopSignal()
	default:
		return reapFatal, 0
	}
}

// Reap drains every child status change currently available and reconciles
// the job table: exited or killed children are removed, stopped children are
// marked stopped with a notice. It never blocks waiting for children that
// haven't changed state.
//
// One SIGCHLD can stand for several children, so the loop keeps polling until
// the kernel has nothing more to report. The shell guard is held for the
// whole drain so no other path can observe a half-applied transition, and any
// foreground waiter is woken at the end.
func (s *Shell) Reap() {
	s.mu.Lock()
	defer func() {
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	for {
		var ws unix.WaitStatus

		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			// 0 when remaining children haven't changed state, ECHILD when
			// there are no children at all. Either way the drain is done.
			return
		}

		action, sig := childTransition(ws)

		switch action {
		case reapRemove:
			if !s.registry.Remove(pid) {
				s.logger.Warn("reaped a child with no job entry", "pid", pid)
				continue
			}

			s.logger.Debug("job reaped", "pid", pid, "signal", int(sig))

		case reapStop:
			job, err := s.registry.FindByPID(pid)
			if err != nil {
				s.logger.Warn("stopped child has no job entry", "pid", pid)
				continue
			}

			job.State = jobs.StateStopped

			fmt.Fprintf(
				s.out,
				"Job [%d] (%d) stopped by signal %d\n",
				job.JID,
				pid,
				int(sig),
			)

		case reapFatal:
			s.fatal("unhandled status %#x for child %d, unable to continue", uint32(ws), pid)

			return
		}
	}
}
