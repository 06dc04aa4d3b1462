package loginflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"bad request", authsdk.ErrInvalidRequest, KindValidation},
		{"bad credentials", authsdk.ErrInvalidCredentials, KindRejected},
		{"forbidden", authsdk.ErrForbidden, KindRejected},
		{"rate limited", authsdk.NewError(http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited, ""), KindRateLimited},
		{"internal", authsdk.ErrServerError, KindServer},
		{"unavailable", authsdk.NewError(http.StatusServiceUnavailable, authsdk.ErrorCodeServerError, ""), KindServer},
		{"malformed", fmt.Errorf("decode: %w", authsdk.ErrMalformedResponse), KindServer},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", timeoutErr{}, KindTimeout},
		{"refused", errors.New("dial tcp: connection refused"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := classify(tt.err)
			require.Equal(t, tt.want, f.Kind)
			require.ErrorIs(t, f, tt.err)
			require.Equal(t, failureTable[tt.want], f.Details)
		})
	}
}

func TestClassifyCataloguedRejection(t *testing.T) {
	t.Parallel()

	f := classify(fmt.Errorf("login: %w", authsdk.ErrMaxDevices))
	require.Equal(t, KindRejected, f.Kind)
	require.Equal(t, authsdk.MaxDevicesDetails, f.Details)
	require.Equal(t, "SESS_006", f.Details.Code)
}
