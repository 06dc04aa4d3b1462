package loginflow

import (
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// State is where the login flow currently stands.
type State int

const (
	Idle State = iota
	Submitting
	Success
	NeedsStepUp
	NeedsConflictResolution
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case NeedsStepUp:
		return "needs_step_up"
	case NeedsConflictResolution:
		return "needs_conflict_resolution"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Credentials are held only until the flow succeeds or is cancelled.
type Credentials struct {
	EmailAddress string
	Password     string
}

// Snapshot is a read-only view of the flow. A UI renders from it alone.
type Snapshot struct {
	State      State
	Generation uint64

	// Last server classification, with the fixed wording for it.
	Status      authsdk.LoginStatus
	Message     string
	Explanation string

	// Success only.
	Token     string
	SessionID string

	// NeedsStepUp only.
	ChallengeID string

	// Set on success and during conflict resolution.
	UserID string

	// Failed only.
	Failure *Failure

	// Outcome of the last ConfirmTerminateOthers.
	Termination *TerminationResult
}

// TerminationResult reports a terminate-others attempt. Success is true only
// when the server acknowledged it.
type TerminationResult struct {
	Success      bool
	Message      string
	ErrorMessage string
	Terminated   int
}
