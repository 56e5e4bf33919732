package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magislabs/pricing-backend/pkg/auth"
	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/security"
)

// LoginResult carries the minted token and the authenticated user.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	SessionID   string       `json:"-"`
	User        *models.User `json:"user"`
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionRegistry interface {
	Create(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type auditor interface {
	Append(ctx context.Context, actor, action, entity, entityID string, details map[string]any)
}

// Service handles login and logout against the session registry.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type service struct {
	users    userStore
	sessions sessionRegistry
	audit    auditor
	jwt      config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the auth service.
func NewService(users userStore, sessions sessionRegistry, audit auditor, jwt config.JWTConfig, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if audit == nil {
		return nil, fmt.Errorf("auditor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:    users,
		sessions: sessions,
		audit:    audit,
		jwt:      jwt,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Login checks credentials, registers a session, and mints an access token
// whose jti is the session id so revocation invalidates the token.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// same response whether the account exists or not
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.Authorized {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account pending authorization")
	}

	sessionID, err := s.sessions.Create(ctx, user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    sessionID,
	})
	if err != nil {
		if revokeErr := s.sessions.Revoke(ctx, sessionID); revokeErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("revoking orphan session: %v", revokeErr))
		}
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now.UTC()); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("stamping last login for %s: %v", user.Email, err))
	}

	s.audit.Append(ctx, user.Email, "user.logged_in", "user", user.ID.String(), nil)

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
		SessionID:   sessionID,
		User:        user,
	}, nil
}

// Logout revokes the server-side session backing the token.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.sessions.Revoke(ctx, sessionID)
}
