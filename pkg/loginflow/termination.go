package loginflow

import (
	"context"
	"log/slog"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

const (
	terminatedMessage      = "All other devices have been logged out."
	terminationFailMessage = "We couldn't log out your other devices. Please try again."
)

// TerminationService ends a user's other sessions through the auth
// service.
type TerminationService struct {
	client *authsdk.SDKClient
	log    *slog.Logger
}

func NewTerminationService(client *authsdk.SDKClient, log *slog.Logger) *TerminationService {
	if log == nil {
		log = slog.Default()
	}
	return &TerminationService{client: client, log: log}
}

// TerminateOtherSessions never returns an error: every failure is reported
// as Success=false with a generic message, and Success=true requires the
// server to have said so.
func (s *TerminationService) TerminateOtherSessions(ctx context.Context, userID, bearer string) TerminationResult {
	if userID == "" || bearer == "" {
		s.log.Warn("terminate others called without user or token")
		return TerminationResult{ErrorMessage: terminationFailMessage}
	}

	resp, err := s.client.WithBearer(bearer).TerminateOtherSessions(ctx, userID, "")
	if err != nil {
		s.log.Warn("terminate others failed", "user_id", userID, "status", authsdk.StatusCode(err), "err", err)
		return TerminationResult{ErrorMessage: terminationFailMessage}
	}
	if !resp.Success {
		s.log.Warn("terminate others not acknowledged", "user_id", userID, "message", resp.Message)
		return TerminationResult{ErrorMessage: terminationFailMessage}
	}

	msg := resp.Message
	if msg == "" {
		msg = terminatedMessage
	}
	return TerminationResult{Success: true, Message: msg, Terminated: resp.Terminated}
}
