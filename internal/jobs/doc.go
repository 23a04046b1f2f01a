// Package jobs provides the fixed-capacity job table the shell uses to track
// its child processes.
//
// A Job represents one tracked process: its pid, the shell-local job id, its
// run state, and the command line that launched it. The Registry holds Jobs
// in a fixed number of slots and is the single source of truth for job state.
//
// The Registry is not safe for concurrent use on its own. The shell funnels
// every access, from command handling and from signal handling alike, through
// one guard; see the shell package.
package jobs
