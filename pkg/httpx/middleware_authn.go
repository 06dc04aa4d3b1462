package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

// ClaimsCheck runs after signature and expiry verification. A non-nil error
// rejects the request with 401. The auth server uses one to refuse tokens
// whose session has been terminated.
type ClaimsCheck func(ctx context.Context, c jwtx.Claims) error

// CodedError lets a ClaimsCheck pick the "error" code of the 401 body so
// clients can tell why the token stopped working.
type CodedError interface {
	error
	ErrorCode() string
}

func AuthnMiddleware(v jwtx.Verifier, checks ...ClaimsCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "invalid_token", "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "invalid_token", "token verification failed")
				return
			}

			for _, check := range checks {
				if err := check(ctx, claims); err != nil {
					log.Warn("token rejected", "sub", claims.Subject, "sid", claims.SID, "err", err)
					code := "invalid_token"
					var coded CodedError
					if errors.As(err, &coded) {
						code = coded.ErrorCode()
					}
					writeBearerError(w, code, "token is no longer valid")
					return
				}
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.With(ctx, "user_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

// RFC 6750 error response for bearer auth. The header always says
// invalid_token; the body may carry a more specific code.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
