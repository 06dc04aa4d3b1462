package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const bootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first administrator. Only available when a bootstrap token is configured, and only once.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string						true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest	true	"First administrator"
//	@Success		201					{object}	authsdk.User
//	@Failure		400					{object}	authsdk.Error	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.Error	"Missing or invalid bootstrap token, or system already bootstrapped"
//	@Failure		404					{object}	authsdk.Error	"Bootstrap not enabled (no token configured)"
//	@Failure		500					{object}	authsdk.Error	"Failed to create admin user"
//	@Router			/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		authsdk.ErrNotFound.WithDescription("Bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(bootstrapTokenHeader)
	if token == "" {
		authsdk.NewError(http.StatusUnauthorized, "unauthorized",
			"Bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.ErrInvalidRequest.WithFields(errs).WriteError(w)
		return
	}

	// 4. Perform bootstrap
	u, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminEmail:       strings.TrimSpace(req.EmailAddress),
		AdminDisplayName: strings.TrimSpace(req.DisplayName),
		AdminPassword:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			authsdk.NewError(http.StatusUnauthorized, "unauthorized", "System has already been bootstrapped").WriteError(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			authsdk.NewError(http.StatusUnauthorized, "unauthorized", "Invalid bootstrap token").WriteError(w)
		case errors.Is(err, service.ErrBootstrapFailedToCreateAdmin):
			authsdk.ErrServerError.WithDescription("Failed to create admin user").WriteError(w)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, toSDKUser(u))
}
