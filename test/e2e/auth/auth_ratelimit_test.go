package auth_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// strictBudget is the production request budget for credential endpoints.
const strictBudget = 10

// TestRateLimitLoginEndpoint verifies that repeated password guesses against
// one account are throttled.
func TestRateLimitLoginEndpoint(t *testing.T) {
	s := setupAuthContainer(t, containerOpts{defaultRateLimits: true})

	for i := range strictBudget {
		_, err := s.client.Login(t.Context(), loginRequest("victim@pharmhub.test", "wrong-password", "device-a"))
		require.Error(t, err)
		require.NotEqual(t, http.StatusTooManyRequests, authsdk.StatusCode(err), "request %d should not be rate limited yet", i+1)
	}

	_, err := s.client.Login(t.Context(), loginRequest("victim@pharmhub.test", "wrong-password", "device-a"))
	assertStatus(t, err, http.StatusTooManyRequests, fmt.Sprintf("request %d", strictBudget+1))

	// The budget is per account, so another address is still served.
	_, err = s.client.Login(t.Context(), loginRequest("someone-else@pharmhub.test", "wrong-password", "device-a"))
	assertStatus(t, err, http.StatusUnauthorized, "different account")
}

// TestRateLimitBootstrapEndpoint verifies that the one-time setup endpoint is
// rate limited.
func TestRateLimitBootstrapEndpoint(t *testing.T) {
	s := setupAuthContainer(t, containerOpts{defaultRateLimits: true})

	req := authsdk.BootstrapRequest{
		EmailAddress: adminEmail,
		Password:     adminPassword,
		DisplayName:  adminDisplayName,
	}

	for range strictBudget {
		_, err := s.client.Bootstrap(t.Context(), "wrong-token", req)
		assertStatus(t, err, http.StatusUnauthorized, "wrong bootstrap token")
	}

	_, err := s.client.Bootstrap(t.Context(), bootstrapToken, req)
	assertStatus(t, err, http.StatusTooManyRequests, "bootstrap after budget")
}

// TestRateLimitHealthEndpoints verifies that probes stay available under the
// lenient limit.
func TestRateLimitHealthEndpoints(t *testing.T) {
	s := setupAuthContainer(t, containerOpts{defaultRateLimits: true})

	for range 2 * strictBudget {
		health, err := s.client.GetLiveness(t.Context())
		assertHealthy(t, health, err)
	}
}
