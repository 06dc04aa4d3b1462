package http

import (
	"net/http"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
)

type UsersHandler struct {
	UserService *service.UserService
}

// HandleCreate godoc
//
//	@Summary		Create a user
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.CreateUserRequest	true	"New account"
//	@Success		201		{object}	authsdk.User
//	@Failure		400		{object}	authsdk.Error
//	@Failure		403		{object}	authsdk.Error
//	@Failure		409		{object}	authsdk.Error	"Email already registered"
//	@Router			/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateUserRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if errs := req.Validate(); errs != nil {
		authsdk.ErrInvalidRequest.WithFields(errs).WriteError(w)
		return
	}

	u, err := h.UserService.CreateUser(r.Context(), service.NewUser{
		Email:       req.EmailAddress,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Admin:       req.Admin,
		RequireOTP:  req.RequireOTP,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSDKUser(u))
}

// HandleRequireOTP godoc
//
//	@Summary		Require step-up on next login
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string	true	"User ID"
//	@Success		200		{object}	authsdk.ActionResponse
//	@Failure		403		{object}	authsdk.Error
//	@Failure		404		{object}	authsdk.Error
//	@Router			/users/{userId}/require-otp [post].
func (h *UsersHandler) HandleRequireOTP(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.RequireOTP(r.Context(), r.PathValue("userId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ActionResponse{
		Success: true,
		Message: "The user will be asked for a verification code at their next login.",
	})
}

func toSDKUser(u domain.User) authsdk.User {
	return authsdk.User{
		UserID:       u.ID,
		EmailAddress: u.Email,
		DisplayName:  u.DisplayName,
		Admin:        u.IsAdmin,
		RequireOTP:   u.RequireOTP,
		CreatedAt:    u.CreatedAt,
	}
}
