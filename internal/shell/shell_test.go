package shell_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nixpig/tsh/internal/jobs"
	"github.com/nixpig/tsh/internal/shell"
)

// syncBuffer collects shell output that may be written from both the test
// goroutine and the signal-handling goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestShell(t *testing.T, capacity int) (*shell.Shell, *syncBuffer) {
	t.Helper()

	out := &syncBuffer{}

	s := shell.New(shell.Options{
		Capacity: capacity,
		Out:      out,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return s, out
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", desc)
}

func closed(ch <-chan struct{}) func() bool {
	return func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

// reapUntilEmpty drives the reaper directly for tests that don't run the
// signal handler.
func reapUntilEmpty(t *testing.T, s *shell.Shell) {
	t.Helper()

	waitFor(t, "job table to drain", func() bool {
		s.Reap()

		return len(s.Jobs()) == 0
	})
}

func TestLaunchBackgroundJob(t *testing.T) {
	s, out := newTestShell(t, 0)

	err := s.Launch("sleep", []string{"sleep", "30"}, true, "sleep 30 &")
	if err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	got := s.Jobs()
	if len(got) != 1 {
		t.Fatalf("expected one job: got '%d'", len(got))
	}

	job := got[0]

	if job.JID != 1 {
		t.Errorf("expected jid: got '%d', want '1'", job.JID)
	}

	if job.State != jobs.StateBackground {
		t.Errorf("expected state: got '%s', want 'Background'", job.State)
	}

	wantAck := fmt.Sprintf("[1] (%d) sleep 30 &\n", job.PID)
	if !strings.Contains(out.String(), wantAck) {
		t.Errorf(
			"expected acknowledgment: got '%s', want to contain '%s'",
			out.String(),
			wantAck,
		)
	}

	s.ListJobs()

	wantListing := fmt.Sprintf("[1] (%d) Running sleep 30 &\n", job.PID)
	if !strings.Contains(out.String(), wantListing) {
		t.Errorf(
			"expected listing: got '%s', want to contain '%s'",
			out.String(),
			wantListing,
		)
	}

	unix.Kill(-job.PID, unix.SIGKILL)
	reapUntilEmpty(t, s)
}

func TestLaunchCommandNotFound(t *testing.T) {
	t.Run("Test bare name not in PATH", func(t *testing.T) {
		s, out := newTestShell(t, 0)

		err := s.Launch(
			"tsh-no-such-command",
			[]string{"tsh-no-such-command"},
			false,
			"tsh-no-such-command",
		)
		if err == nil {
			t.Fatal("expected to receive error")
		}

		if !strings.Contains(out.String(), "tsh-no-such-command: Command not found\n") {
			t.Errorf("expected not-found report: got '%s'", out.String())
		}

		if len(s.Jobs()) != 0 {
			t.Error("expected no registry mutation on launch failure")
		}
	})

	t.Run("Test nonexistent path", func(t *testing.T) {
		s, out := newTestShell(t, 0)

		err := s.Launch(
			"/no/such/binary",
			[]string{"/no/such/binary"},
			false,
			"/no/such/binary",
		)
		if err == nil {
			t.Fatal("expected to receive error")
		}

		if !strings.Contains(out.String(), "/no/such/binary: Command not found\n") {
			t.Errorf("expected not-found report: got '%s'", out.String())
		}
	})
}

func TestLaunchForegroundWaitsForExit(t *testing.T) {
	s, _ := newTestShell(t, 0)

	stop := s.HandleSignals()
	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)

		s.Launch("true", []string{"true"}, false, "true")
	}()

	waitFor(t, "foreground launch to return", closed(done))

	waitFor(t, "job table to drain", func() bool {
		return len(s.Jobs()) == 0
	})
}

func TestForwardInterruptTerminatesForeground(t *testing.T) {
	s, out := newTestShell(t, 0)

	stop := s.HandleSignals()
	defer stop()

	done := make(chan struct{})

	go func() {
		defer close(done)

		s.Launch("sleep", []string{"sleep", "30"}, false, "sleep 30")
	}()

	var pid int

	waitFor(t, "foreground job to appear", func() bool {
		got := s.Jobs()
		if len(got) == 1 && got[0].State == jobs.StateForeground {
			pid = got[0].PID

			return true
		}

		return false
	})

	s.ForwardInterrupt()

	waitFor(t, "foreground launch to return", closed(done))

	wantConfirmation := fmt.Sprintf("Job [1] (%d) terminated by signal 2\n", pid)
	if !strings.Contains(out.String(), wantConfirmation) {
		t.Errorf(
			"expected termination confirmation: got '%s', want to contain '%s'",
			out.String(),
			wantConfirmation,
		)
	}

	waitFor(t, "job table to drain", func() bool {
		return len(s.Jobs()) == 0
	})
}

func TestForwardWithNoForegroundJob(t *testing.T) {
	s, out := newTestShell(t, 0)

	s.ForwardInterrupt()
	s.ForwardStop()

	want := "no foreground job exists\nno foreground job exists\n"
	if out.String() != want {
		t.Errorf("expected no-op reports: got '%s', want '%s'", out.String(), want)
	}

	if len(s.Jobs()) != 0 {
		t.Error("expected no registry mutation")
	}
}

func TestStopThenResumeForeground(t *testing.T) {
	s, out := newTestShell(t, 0)

	stop := s.HandleSignals()
	defer stop()

	launchDone := make(chan struct{})

	go func() {
		defer close(launchDone)

		s.Launch("sleep", []string{"sleep", "30"}, false, "sleep 30")
	}()

	var pid int

	waitFor(t, "foreground job to appear", func() bool {
		got := s.Jobs()
		if len(got) == 1 && got[0].State == jobs.StateForeground {
			pid = got[0].PID

			return true
		}

		return false
	})

	s.ForwardStop()

	// The launcher unblocks only once the reaper has observed the stop.
	waitFor(t, "foreground launch to return", closed(launchDone))

	got := s.Jobs()
	if len(got) != 1 || got[0].State != jobs.StateStopped {
		t.Fatalf("expected one stopped job: got '%+v'", got)
	}

	wantNotice := fmt.Sprintf(
		"Job [1] (%d) stopped by signal %d\n",
		pid,
		int(unix.SIGTSTP),
	)
	if !strings.Contains(out.String(), wantNotice) {
		t.Errorf(
			"expected stop notice: got '%s', want to contain '%s'",
			out.String(),
			wantNotice,
		)
	}

	fgDone := make(chan struct{})

	go func() {
		defer close(fgDone)

		s.Foreground("%1")
	}()

	waitFor(t, "job to return to the foreground", func() bool {
		got := s.Jobs()

		return len(got) == 1 && got[0].State == jobs.StateForeground
	})

	// The resumed job is still running, so fg must still be blocked.
	select {
	case <-fgDone:
		t.Fatal("expected fg to block until the job exits")
	case <-time.After(200 * time.Millisecond):
	}

	s.ForwardInterrupt()

	waitFor(t, "fg to return after the job exits", closed(fgDone))

	waitFor(t, "job table to drain", func() bool {
		return len(s.Jobs()) == 0
	})
}

func TestResumeStoppedJobInBackground(t *testing.T) {
	s, out := newTestShell(t, 0)

	stop := s.HandleSignals()
	defer stop()

	launchDone := make(chan struct{})

	go func() {
		defer close(launchDone)

		s.Launch("sleep", []string{"sleep", "30"}, false, "sleep 30")
	}()

	waitFor(t, "foreground job to appear", func() bool {
		got := s.Jobs()

		return len(got) == 1 && got[0].State == jobs.StateForeground
	})

	s.ForwardStop()

	waitFor(t, "foreground launch to return", closed(launchDone))

	s.Background("%1")

	got := s.Jobs()
	if len(got) != 1 || got[0].State != jobs.StateBackground {
		t.Fatalf("expected one background job: got '%+v'", got)
	}

	pid := got[0].PID

	wantAck := fmt.Sprintf("[1] (%d) sleep 30\n", pid)
	if !strings.Contains(out.String(), wantAck) {
		t.Errorf(
			"expected resume acknowledgment: got '%s', want to contain '%s'",
			out.String(),
			wantAck,
		)
	}

	unix.Kill(-pid, unix.SIGKILL)

	waitFor(t, "job table to drain", func() bool {
		return len(s.Jobs()) == 0
	})
}

func TestLaunchWithFullJobTable(t *testing.T) {
	s, out := newTestShell(t, 1)

	err := s.Launch("sleep", []string{"sleep", "30"}, true, "sleep 30 &")
	if err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	// The second child starts but is left untracked.
	err = s.Launch("sleep", []string{"sleep", "0.2"}, true, "sleep 0.2 &")
	if err == nil {
		t.Fatal("expected to receive error")
	}

	if !strings.Contains(out.String(), "Failed to create job for sleep 0.2 &\n") {
		t.Errorf("expected full-table report: got '%s'", out.String())
	}

	got := s.Jobs()
	if len(got) != 1 {
		t.Fatalf("expected one tracked job: got '%d'", len(got))
	}

	unix.Kill(-got[0].PID, unix.SIGKILL)
	reapUntilEmpty(t, s)
}

func TestRunQuitAndPrompt(t *testing.T) {
	out := &syncBuffer{}

	s := shell.New(shell.Options{
		Prompt: "tsh> ",
		Out:    out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	if err := s.Run(strings.NewReader("quit\n")); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	if !strings.HasPrefix(out.String(), "tsh> ") {
		t.Errorf("expected prompt: got '%s'", out.String())
	}
}

func TestRunEndOfInput(t *testing.T) {
	s, _ := newTestShell(t, 0)

	if err := s.Run(strings.NewReader("")); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}
}

func TestBackgroundAckFormat(t *testing.T) {
	s, out := newTestShell(t, 0)

	if err := s.Launch("sleep", []string{"sleep", "5"}, true, "sleep 5 &"); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	ack := regexp.MustCompile(`^\[1\] \(\d+\) sleep 5 &\n`)
	if !ack.MatchString(out.String()) {
		t.Errorf("expected acknowledgment format: got '%s'", out.String())
	}

	got := s.Jobs()
	if len(got) != 1 {
		t.Fatalf("expected one job: got '%d'", len(got))
	}

	unix.Kill(-got[0].PID, unix.SIGKILL)
	reapUntilEmpty(t, s)
}
