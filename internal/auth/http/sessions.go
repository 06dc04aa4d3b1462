package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
)

type SessionsHandler struct {
	SessionService *service.SessionService
}

// HandleTerminateOthers ends every session of the user except the caller's.
//
//	@Summary		Log out other devices
//	@Description	Ends every active session of the user except the one the bearer token belongs to. Accepts a session token or the resolution token returned with TOO_MANY_DEVICES. Calling it with nothing to end still succeeds.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string							true	"User ID"
//	@Param			request	body		authsdk.TerminateOthersRequest	false	"Session to keep when the token has none"
//	@Success		200		{object}	authsdk.TerminateOthersResponse
//	@Failure		401		{object}	authsdk.Error
//	@Failure		403		{object}	authsdk.Error	"Token subject is not userId"
//	@Failure		404		{object}	authsdk.Error	"Unknown user"
//	@Router			/users/{userId}/terminate-others [post].
func (h *SessionsHandler) HandleTerminateOthers(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFrom(r.Context())

	var req authsdk.TerminateOthersRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	n, err := h.SessionService.TerminateOthers(r.Context(), claims, r.PathValue("userId"), req.CurrentSessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "All other devices have been logged out."
	if n == 0 {
		msg = "There were no other active sessions."
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TerminateOthersResponse{
		Success:    true,
		Message:    msg,
		Terminated: n,
	})
}

// HandleHeartbeat godoc
//
//	@Summary		Keep the session alive
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ActionResponse
//	@Failure		401	{object}	authsdk.Error	"Session ended (session_terminated) or idle (session_expired)"
//	@Router			/sessions/heartbeat [post].
func (h *SessionsHandler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFrom(r.Context())
	if err := h.SessionService.Heartbeat(r.Context(), claims.SID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ActionResponse{Success: true, Message: "Session is active."})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ActionResponse
//	@Failure		401	{object}	authsdk.Error
//	@Router			/logout [post].
func (h *SessionsHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFrom(r.Context())
	if err := h.SessionService.Logout(r.Context(), claims.SID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ActionResponse{Success: true, Message: "You have been logged out."})
}

// HandleList returns sessions for administrators.
//
//	@Summary		List sessions
//	@Description	All filters are optional and combine with AND. from and to bound the creation time (RFC 3339).
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			active		query		bool	false	"Only active (true) or ended (false) sessions"
//	@Param			suspicious	query		bool	false	"Only sessions flagged suspicious"
//	@Param			userId		query		string	false	"Only this user's sessions"
//	@Param			from		query		string	false	"Created at or after"
//	@Param			to			query		string	false	"Created at or before"
//	@Success		200			{array}		authsdk.Session
//	@Failure		400			{object}	authsdk.Error
//	@Failure		403			{object}	authsdk.Error
//	@Router			/sessions [get].
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, errs := parseSessionFilter(r)
	if errs != nil {
		authsdk.ErrInvalidRequest.WithFields(errs).WriteError(w)
		return
	}

	sessions, err := h.SessionService.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSDKSession(s))
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleListForUser returns one user's sessions to that user or an
// administrator. The userId query parameter is ignored.
//
//	@Summary		List a user's sessions
//	@Description	The caller must be the user or hold sessions:admin. Accepts the same active, suspicious, from and to filters as GET /sessions.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId		path		string	true	"User ID"
//	@Param			active		query		bool	false	"Only active (true) or ended (false) sessions"
//	@Param			suspicious	query		bool	false	"Only sessions flagged suspicious"
//	@Param			from		query		string	false	"Created at or after"
//	@Param			to			query		string	false	"Created at or before"
//	@Success		200			{array}		authsdk.Session
//	@Failure		400			{object}	authsdk.Error
//	@Failure		401			{object}	authsdk.Error
//	@Failure		403			{object}	authsdk.Error	"Token subject is not userId"
//	@Router			/users/{userId}/sessions [get].
func (h *SessionsHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	f, errs := parseSessionFilter(r)
	if errs != nil {
		authsdk.ErrInvalidRequest.WithFields(errs).WriteError(w)
		return
	}
	f.UserID = r.PathValue("userId")

	sessions, err := h.SessionService.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]authsdk.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSDKSession(s))
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleTerminate godoc
//
//	@Summary		Terminate a session
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			sessionId	path		string	true	"Session ID"
//	@Success		200			{object}	authsdk.ActionResponse
//	@Failure		403			{object}	authsdk.Error
//	@Failure		404			{object}	authsdk.Error
//	@Router			/sessions/{sessionId}/terminate [post].
func (h *SessionsHandler) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionService.Terminate(r.Context(), r.PathValue("sessionId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ActionResponse{Success: true, Message: "Session terminated."})
}

func parseSessionFilter(r *http.Request) (domain.SessionFilter, map[string]string) {
	q := r.URL.Query()
	errs := map[string]string{}
	var f domain.SessionFilter

	var err error
	if f.Active, err = httpx.ParseOptionalBool(q.Get("active")); err != nil {
		errs["active"] = "must be true or false"
	}
	if f.Suspicious, err = httpx.ParseOptionalBool(q.Get("suspicious")); err != nil {
		errs["suspicious"] = "must be true or false"
	}
	f.UserID = strings.TrimSpace(q.Get("userId"))
	if f.From, err = parseOptionalTime(q.Get("from")); err != nil {
		errs["from"] = "must be an RFC 3339 timestamp"
	}
	if f.To, err = parseOptionalTime(q.Get("to")); err != nil {
		errs["to"] = "must be an RFC 3339 timestamp"
	}
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}

func parseOptionalTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toSDKSession(s domain.Session) authsdk.Session {
	return authsdk.Session{
		SessionID:    s.ID,
		UserID:       s.UserID,
		DeviceID:     s.DeviceID,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		IsActive:     s.IsActive,
		IsSuspicious: s.IsSuspicious,
	}
}
