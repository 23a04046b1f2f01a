package jobs

// State is the run state of a tracked job.
//
// State transitions and enabling actions:
//
//	Foreground -> Stopped    : suspend request observed by the reaper
//	Stopped    -> Foreground : fg command
//	Stopped    -> Background : bg command
//	Background -> Foreground : fg command
//
// At most one job is in StateForeground at any instant. Jobs never move
// directly between Foreground and Background except through an explicit
// command; the reaper only ever stops or removes them.
type State int

const (
	// StateUndefined marks an unused registry slot. It's the zero value.
	StateUndefined State = iota

	// StateForeground indicates the job is running in the foreground and the
	// shell's main flow is blocked on it.
	StateForeground

	// StateBackground indicates the job is running in the background.
	StateBackground

	// StateStopped indicates the job's process group has been stopped by a
	// signal. It can be resumed with the bg or fg commands.
	StateStopped
)

// NOTE: This slice needs to be kept in sync with any changes to the State
// values.
var stateNames = []string{
	"Undefined",
	"Foreground",
	"Background",
	"Stopped",
}

// String implements the Stringer interface for State.
func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return stateNames[0]
	}

	return stateNames[s]
}

// StatusWord returns the word used for the state in the jobs listing, where
// a background job reads as Running.
func (s State) StatusWord() string {
	if s == StateBackground {
		return "Running"
	}

	return s.String()
}
