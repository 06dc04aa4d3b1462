package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// AuthClient makes bearer-authenticated calls. The token is either a
// session token, a resolution token (terminate-others only) or an admin
// session token.
type AuthClient struct {
	client *SDKClient
	token  string
}

// Token returns the bearer token.
func (a *AuthClient) Token() string { return a.token }

// TerminateOtherSessions ends every session of userID except the one named
// by the token's sid (and currentSessionID if set). Calling it again when
// nothing is left to end still succeeds.
func (a *AuthClient) TerminateOtherSessions(ctx context.Context, userID, currentSessionID string) (*TerminateOthersResponse, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPost,
		"/users/"+url.PathEscape(userID)+"/terminate-others", a.token,
		TerminateOthersRequest{CurrentSessionID: currentSessionID}, nil)
	if err != nil {
		return nil, err
	}

	var out TerminateOthersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Heartbeat marks the token's session as active now.
func (a *AuthClient) Heartbeat(ctx context.Context) error {
	return a.action(ctx, "/sessions/heartbeat")
}

// Logout ends the token's session. The device ID is kept.
func (a *AuthClient) Logout(ctx context.Context) error {
	return a.action(ctx, "/logout")
}

// ListSessions requires sessions:admin.
func (a *AuthClient) ListSessions(ctx context.Context, q SessionQuery) ([]Session, error) {
	path := "/sessions"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}

	resp, err := a.client.doRequest(ctx, http.MethodGet, path, a.token, nil, nil)
	if err != nil {
		return nil, err
	}

	var out []Session
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserSessions returns userID's sessions. Works with the user's own
// session token or an admin token; q.UserID is ignored.
func (a *AuthClient) ListUserSessions(ctx context.Context, userID string, q SessionQuery) ([]Session, error) {
	q.UserID = ""
	path := "/users/" + url.PathEscape(userID) + "/sessions"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}

	resp, err := a.client.doRequest(ctx, http.MethodGet, path, a.token, nil, nil)
	if err != nil {
		return nil, err
	}

	var out []Session
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// TerminateSession ends one session regardless of owner. Requires
// sessions:admin.
func (a *AuthClient) TerminateSession(ctx context.Context, sessionID string) error {
	return a.action(ctx, "/sessions/"+url.PathEscape(sessionID)+"/terminate")
}

// RequireOTP flags userID so the next login must pass step-up. Requires
// sessions:admin.
func (a *AuthClient) RequireOTP(ctx context.Context, userID string) error {
	return a.action(ctx, "/users/"+url.PathEscape(userID)+"/require-otp")
}

// CreateUser requires sessions:admin.
func (a *AuthClient) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPost, "/users", a.token, req, nil)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) action(ctx context.Context, path string) error {
	resp, err := a.client.doRequest(ctx, http.MethodPost, path, a.token, nil, nil)
	if err != nil {
		return err
	}

	var out ActionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return err
	}
	if !out.Success {
		return &Error{StatusCode: resp.StatusCode, Code: ErrorCodeServerError, Description: out.Message}
	}
	return nil
}
