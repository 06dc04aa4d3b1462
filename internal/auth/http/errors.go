package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const maxBodyBytes = 64 << 10

// writeServiceError maps service and store errors to wire errors. Anything
// unrecognised is logged and reported as a generic server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WriteError(w)
	case errors.Is(err, service.ErrSessionTerminated):
		authsdk.NewError(http.StatusUnauthorized, authsdk.ErrorCodeSessionTerminated, "the session was ended by another login or an administrator").WriteError(w)
	case errors.Is(err, service.ErrSessionExpired):
		authsdk.NewError(http.StatusUnauthorized, authsdk.ErrorCodeSessionExpired, "the session expired after a period of inactivity").WriteError(w)
	case errors.Is(err, service.ErrMaxDevices):
		authsdk.ErrMaxDevices.WriteError(w)
	case errors.Is(err, service.ErrSessionInactive):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrUserExists):
		authsdk.ErrConflict.WithDescription("a user with this email address already exists").WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
	}
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	authsdk.ErrInvalidRequest.WithDescription("request body must be valid JSON").WriteError(w)
	return false
}
