package loginflow

import (
	"context"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// Challenge is what the user is shown when asked for a code.
type Challenge struct {
	ID          string
	Status      authsdk.LoginStatus
	Message     string
	Explanation string
}

// CodePrompter collects a verification code from the user.
type CodePrompter interface {
	PromptCode(ctx context.Context, c Challenge) (string, error)
}

// CodePrompterFunc adapts a function to CodePrompter.
type CodePrompterFunc func(ctx context.Context, c Challenge) (string, error)

func (f CodePrompterFunc) PromptCode(ctx context.Context, c Challenge) (string, error) {
	return f(ctx, c)
}

// StepUpVerifier presents the pending challenge and hands the code to the
// orchestrator. It does not judge the code; the server does.
type StepUpVerifier struct {
	flow     *Orchestrator
	prompter CodePrompter
}

func NewStepUpVerifier(flow *Orchestrator, prompter CodePrompter) *StepUpVerifier {
	return &StepUpVerifier{flow: flow, prompter: prompter}
}

// Verify prompts once and submits the answer. The returned snapshot is
// NeedsStepUp again if the code was wrong.
func (v *StepUpVerifier) Verify(ctx context.Context) (Snapshot, error) {
	snap := v.flow.Snapshot()
	if snap.State != NeedsStepUp {
		return snap, ErrInvalidTransition
	}

	code, err := v.prompter.PromptCode(ctx, Challenge{
		ID:          snap.ChallengeID,
		Status:      snap.Status,
		Message:     snap.Message,
		Explanation: snap.Explanation,
	})
	if err != nil {
		return snap, err
	}
	return v.flow.SubmitStepUp(ctx, code)
}
