package authsdk

import (
	"context"
	"net/http"
)

// Login submits credentials. A 200 answer is returned only after it passes
// LoginResponse.Check; rejections come back as *Error.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var headers map[string]string
	if req.PreviousSessionID != "" {
		headers = map[string]string{SessionHeader: req.PreviousSessionID}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/login", "", req, headers)
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if err := out.Check(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bootstrap creates the first administrator using the server's one-time
// bootstrap token.
func (c *SDKClient) Bootstrap(ctx context.Context, bootstrapToken string, req BootstrapRequest) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/bootstrap", "", req,
		map[string]string{"X-Bootstrap-Token": bootstrapToken})
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
