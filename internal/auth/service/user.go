package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/idx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const minPasswordLength = 8

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// NewUser is an account to provision.
type NewUser struct {
	Email       string
	Password    string
	DisplayName string
	Admin       bool
	RequireOTP  bool
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// CreateUser provisions an account. Emails are unique ignoring case.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	u, err := s.newUser(in, time.Now().UTC())
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	slogx.FromContext(ctx).Info("user created",
		slog.String("user_id", u.ID),
		slog.Bool("admin", u.IsAdmin),
	)
	return u, nil
}

func (s *UserService) newUser(in NewUser, now time.Time) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || len(in.Password) < minPasswordLength {
		return domain.User{}, ErrInvalidRequest
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		IsAdmin:      in.Admin,
		RequireOTP:   in.RequireOTP,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// RequireOTP flags the user for step-up on their next login.
func (s *UserService) RequireOTP(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidRequest
	}
	if err := s.Store.Users().SetRequireOTP(ctx, userID, true, time.Now().UTC()); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("step-up required for next login", slog.String("user_id", userID))
	return nil
}
