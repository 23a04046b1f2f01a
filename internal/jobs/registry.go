package jobs

// DefaultCapacity is the number of job slots when no capacity is configured.
const DefaultCapacity = 16

// Job represents one tracked child process.
type Job struct {
	// PID is the operating system process id. Never below 1 for a live job.
	PID int

	// JID is the shell-local job id, assigned from 1 upward.
	JID int

	// State is the job's run state.
	State State

	// CommandLine is the original text used to launch the job. Display only.
	CommandLine string
}

// Registry is a fixed-capacity table of Job slots and the single source of
// truth for job state. Live jobs have pairwise-distinct pids and jids, and at
// most one of them is in the foreground.
//
// A Registry is not safe for concurrent use: the shell serializes every
// access through one guard, and the *Job handles returned by the Find methods
// are only valid under that same guard.
type Registry struct {
	slots   []Job
	nextJID int
}

// NewRegistry creates a Registry with the given number of job slots, or
// DefaultCapacity if capacity is below 1.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Registry{
		slots:   make([]Job, capacity),
		nextJID: 1,
	}
}

// Add occupies the first free slot with a new job and returns the job id it
// assigned. It returns an InvalidIDError for pids below 1 and ErrRegistryFull
// when no free slot exists, in which case nothing is mutated.
func (r *Registry) Add(pid int, state State, commandLine string) (int, error) {
	if pid < 1 {
		return 0, NewInvalidIDError(pid)
	}

	for i := range r.slots {
		if r.slots[i].State != StateUndefined {
			continue
		}

		jid := r.nextJID
		r.nextJID++

		r.slots[i] = Job{
			PID:         pid,
			JID:         jid,
			State:       state,
			CommandLine: commandLine,
		}

		return jid, nil
	}

	return 0, ErrRegistryFull
}

// Remove clears the slot holding pid and recomputes the next job id as one
// above the highest live job id, so removed ids below the current maximum can
// be handed out again. It reports whether a job was found.
func (r *Registry) Remove(pid int) bool {
	if pid < 1 {
		return false
	}

	for i := range r.slots {
		if r.slots[i].State != StateUndefined && r.slots[i].PID == pid {
			r.slots[i] = Job{}
			r.nextJID = r.maxJID() + 1

			return true
		}
	}

	return false
}

// FindByPID returns the live job with the given pid or ErrJobNotFound if it
// doesn't exist.
func (r *Registry) FindByPID(pid int) (*Job, error) {
	if pid < 1 {
		return nil, ErrJobNotFound
	}

	for i := range r.slots {
		if r.slots[i].State != StateUndefined && r.slots[i].PID == pid {
			return &r.slots[i], nil
		}
	}

	return nil, ErrJobNotFound
}

// FindByJID returns the live job with the given job id or ErrJobNotFound if
// it doesn't exist.
func (r *Registry) FindByJID(jid int) (*Job, error) {
	if jid < 1 {
		return nil, ErrJobNotFound
	}

	for i := range r.slots {
		if r.slots[i].State != StateUndefined && r.slots[i].JID == jid {
			return &r.slots[i], nil
		}
	}

	return nil, ErrJobNotFound
}

// ForegroundPID returns the pid of the foreground job, if there is one.
func (r *Registry) ForegroundPID() (int, bool) {
	for i := range r.slots {
		if r.slots[i].State == StateForeground {
			return r.slots[i].PID, true
		}
	}

	return 0, false
}

// Jobs returns a snapshot of the live jobs in slot order, which is neither
// insertion nor jid order once slots have been reused.
func (r *Registry) Jobs() []Job {
	var snapshot []Job

	for i := range r.slots {
		if r.slots[i].State != StateUndefined {
			snapshot = append(snapshot, r.slots[i])
		}
	}

	return snapshot
}

func (r *Registry) maxJID() int {
	max := 0

	for i := range r.slots {
		if r.slots[i].JID > max {
			max = r.slots[i].JID
		}
	}

	return max
}
