package shell

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/nixpig/tsh/internal/jobs"
)

// runBuiltin executes argv if it names a builtin command. It reports whether
// the command was a builtin and whether it was quit.
func (s *Shell) runBuiltin(argv []string) (handled, quit bool) {
	switch argv[0] {
	case "quit":
		return true, true
	case "jobs":
		s.ListJobs()
		return true, false
	case "bg", "fg":
		s.resumeJob(argv)
		return true, false
	}

	return false, false
}

// ListJobs prints one line per live job in slot order.
func (s *Shell) ListJobs() {
	for _, job := range s.Jobs() {
		fmt.Fprintf(
			s.out,
			"[%d] (%d) %s %s\n",
			job.JID,
			job.PID,
			job.State.StatusWord(),
			job.CommandLine,
		)
	}
}

// Foreground resumes the job named by ref, a pid or a %-prefixed jid, moves
// it to the foreground, and blocks until it leaves the foreground again.
func (s *Shell) Foreground(ref string) {
	s.resumeJob([]string{"fg", ref})
}

// Background resumes the job named by ref, a pid or a %-prefixed jid, in the
// background.
func (s *Shell) Background(ref string) {
	s.resumeJob([]string{"bg", ref})
}

func (s *Shell) resumeJob(argv []string) {
	name := argv[0]

	if len(argv) != 2 {
		fmt.Fprintf(s.out, "%s command requires PID or %%jobid argument\n", name)

		return
	}

	ref := argv[1]
	byJID := strings.HasPrefix(ref, "%")

	id, err := strconv.Atoi(strings.TrimPrefix(ref, "%"))
	if err != nil {
		fmt.Fprintf(s.out, "%s: argument must be a PID or %%jobid\n", name)

		return
	}

	s.mu.Lock()

	var job *jobs.Job
	if byJID {
		job, err = s.registry.FindByJID(id)
	} else {
		job, err = s.registry.FindByPID(id)
	}

	if err != nil {
		s.mu.Unlock()

		if byJID {
			fmt.Fprintf(s.out, "%%%d: No such job\n", id)
		} else {
			fmt.Fprintf(s.out, "(%d): No such process\n", id)
		}

		return
	}

	pid, jid, commandLine := job.PID, job.JID, job.CommandLine

	// Resume the whole group. Harmless if it's already running.
	if err := unix.Kill(-pid, unix.SIGCONT); err != nil {
		s.logger.Warn(
			"failed to resume process group",
			"pid", pid,
			"error", err,
		)
	}

	if name == "bg" {
		job.State = jobs.StateBackground

		// Wake a foreground waiter in case its job was just backgrounded.
		s.cond.Broadcast()
		s.mu.Unlock()

		fmt.Fprintf(s.out, "[%d] (%d) %s\n", jid, pid, commandLine)

		return
	}

	job.State = jobs.StateForeground

	s.mu.Unlock()

	s.WaitForeground(pid)
}
