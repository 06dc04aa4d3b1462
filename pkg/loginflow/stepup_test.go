package loginflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/loginflow"
	"github.com/stretchr/testify/require"
)

func TestStepUpVerifier(t *testing.T) {
	t.Parallel()

	t.Run("presents challenge and submits code", func(t *testing.T) {
		t.Parallel()
		api := (&scriptedAPI{}).
			push(stepUpResponse(authsdk.StatusSuspiciousLocation, "c1"), nil).
			push(okResponse("abc"), nil)
		flow := newFlow(api, nil)
		_, err := flow.Submit(context.Background(), creds)
		require.NoError(t, err)

		var shown loginflow.Challenge
		v := loginflow.NewStepUpVerifier(flow, loginflow.CodePrompterFunc(func(_ context.Context, c loginflow.Challenge) (string, error) {
			shown = c
			return "123456", nil
		}))

		snap, err := v.Verify(context.Background())
		require.NoError(t, err)
		require.Equal(t, loginflow.Success, snap.State)

		want, _ := authsdk.Details(authsdk.StatusSuspiciousLocation)
		require.Equal(t, "c1", shown.ID)
		require.Equal(t, authsdk.StatusSuspiciousLocation, shown.Status)
		require.Equal(t, want.Message, shown.Message)
		require.Equal(t, "123456", api.calls()[1].Code)
	})

	t.Run("wrong code is judged by the server", func(t *testing.T) {
		t.Parallel()
		api := (&scriptedAPI{}).
			push(stepUpResponse(authsdk.StatusOTPRequired, "c1"), nil).
			push(stepUpResponse(authsdk.StatusOTPRequired, "c2"), nil)
		flow := newFlow(api, nil)
		_, err := flow.Submit(context.Background(), creds)
		require.NoError(t, err)

		v := loginflow.NewStepUpVerifier(flow, loginflow.CodePrompterFunc(func(context.Context, loginflow.Challenge) (string, error) {
			return "000000", nil
		}))
		snap, err := v.Verify(context.Background())
		require.NoError(t, err)
		require.Equal(t, loginflow.NeedsStepUp, snap.State)
		require.Equal(t, "c2", snap.ChallengeID)
	})

	t.Run("prompt aborted", func(t *testing.T) {
		t.Parallel()
		api := (&scriptedAPI{}).push(stepUpResponse(authsdk.StatusNewDevice, "c1"), nil)
		flow := newFlow(api, nil)
		_, err := flow.Submit(context.Background(), creds)
		require.NoError(t, err)

		aborted := errors.New("user closed prompt")
		v := loginflow.NewStepUpVerifier(flow, loginflow.CodePrompterFunc(func(context.Context, loginflow.Challenge) (string, error) {
			return "", aborted
		}))
		snap, err := v.Verify(context.Background())
		require.ErrorIs(t, err, aborted)
		require.Equal(t, loginflow.NeedsStepUp, snap.State)
		require.Len(t, api.calls(), 1)
	})

	t.Run("not waiting for a code", func(t *testing.T) {
		t.Parallel()
		flow := newFlow(&scriptedAPI{}, nil)
		v := loginflow.NewStepUpVerifier(flow, loginflow.CodePrompterFunc(func(context.Context, loginflow.Challenge) (string, error) {
			t.Fatal("prompted outside step up")
			return "", nil
		}))
		_, err := v.Verify(context.Background())
		require.ErrorIs(t, err, loginflow.ErrInvalidTransition)
	})
}
