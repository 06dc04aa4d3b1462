package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds each request when no HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

// SDKClient talks to the PharmHub auth service. Unauthenticated calls live
// on SDKClient; calls needing a bearer token go through WithBearer.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

type Option func(*SDKClient)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SDKClient) { c.HTTPClient = hc }
}

// WithTimeout sets the request timeout. A client passed with
// WithHTTPClient is copied rather than changed.
func WithTimeout(d time.Duration) Option {
	return func(c *SDKClient) {
		hc := &http.Client{}
		if c.HTTPClient != nil {
			cp := *c.HTTPClient
			hc = &cp
		}
		hc.Timeout = d
		c.HTTPClient = hc
	}
}

func NewSDKClient(baseURL string, opts ...Option) *SDKClient {
	c := &SDKClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	return c
}

// WithBearer returns a handle that authenticates every call with token.
func (c *SDKClient) WithBearer(token string) *AuthClient {
	return &AuthClient{client: c, token: token}
}
