package http

import (
	"net/http"

	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

type LoginHandler struct {
	LoginService *service.LoginService
}

// ServeHTTP classifies a login attempt.
//
//	@Summary		Log in
//	@Description	Authenticates the user and classifies the attempt into exactly one status. OK carries a session token; NEW_DEVICE, SUSPICIOUS_LOCATION and OTP_REQUIRED carry a challengeId to answer with a code; TOO_MANY_DEVICES carries a resolutionToken for terminate-others.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-ID	header		string					false	"Session this client held before, retired instead of counted as a conflict"
//	@Param			request			body		authsdk.LoginRequest	true	"Credentials, device and optional challenge answer"
//	@Success		200				{object}	authsdk.LoginResponse
//	@Failure		400				{object}	authsdk.Error	"Malformed request"
//	@Failure		401				{object}	authsdk.Error	"Invalid credentials"
//	@Failure		403				{object}	authsdk.Error	"New device refused because the user has reached the device limit (max_devices_reached)"
//	@Failure		429				{object}	authsdk.Error	"Too many login attempts"
//	@Failure		500				{object}	authsdk.Error
//	@Router			/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	req.PreviousSessionID = r.Header.Get(authsdk.SessionHeader)
	if errs := req.Validate(); errs != nil {
		authsdk.ErrInvalidRequest.WithFields(errs).WriteError(w)
		return
	}

	resp, err := h.LoginService.Login(r.Context(), service.LoginInput{
		Email:             req.EmailAddress,
		Password:          req.Password,
		DeviceID:          req.DeviceID,
		Metadata:          req.DeviceMetadata,
		ChallengeID:       req.ChallengeID,
		Code:              req.Code,
		PreviousSessionID: req.PreviousSessionID,
		IPAddress:         httpx.IPKeyExtractor(r),
		UserAgent:         r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := resp.Check(); err != nil {
		slogx.FromContext(r.Context()).Error("refusing to send inconsistent login response", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
