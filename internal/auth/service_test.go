package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/magislabs/pricing-backend/pkg/auth"
	"github.com/magislabs/pricing-backend/pkg/config"
	"github.com/magislabs/pricing-backend/pkg/db/models"
	"github.com/magislabs/pricing-backend/pkg/enums"
	pkgerrors "github.com/magislabs/pricing-backend/pkg/errors"
	"github.com/magislabs/pricing-backend/pkg/logger"
	"github.com/magislabs/pricing-backend/pkg/security"
)

type fakeUserStore struct {
	users       map[string]*models.User
	lastLoginID uuid.UUID
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (f *fakeUserStore) TouchLastLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.lastLoginID = id
	return nil
}

type fakeSessions struct {
	created []string
	revoked []string
	err     error
}

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := uuid.NewString()
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeSessions) Revoke(_ context.Context, sessionID string) error {
	f.revoked = append(f.revoked, sessionID)
	return nil
}

type fakeAuthAuditor struct {
	actions []string
}

func (f *fakeAuthAuditor) Append(_ context.Context, _, action, _, _ string, _ map[string]any) {
	f.actions = append(f.actions, action)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-sec",
		Issuer:            "pricing-backend-test",
		ExpirationMinutes: 60,
		SessionTTLMinutes: 120,
	}
}

func passwordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

type authFixture struct {
	svc      Service
	users    *fakeUserStore
	sessions *fakeSessions
	audit    *fakeAuthAuditor
	user     *models.User
}

func setupAuthService(t *testing.T) authFixture {
	t.Helper()

	hash, err := security.HashPassword("correct-horse-battery", passwordConfig())
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "ana@acme.io",
		Name:         "Ana Souza",
		PasswordHash: hash,
		Role:         enums.MemberRoleAdmin,
		Authorized:   true,
	}

	users := &fakeUserStore{users: map[string]*models.User{user.Email: user}}
	sessions := &fakeSessions{}
	audit := &fakeAuthAuditor{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(users, sessions, audit, testJWTConfig(), logg)
	require.NoError(t, err)

	return authFixture{svc: svc, users: users, sessions: sessions, audit: audit, user: user}
}

func TestService_Login(t *testing.T) {
	fx := setupAuthService(t)
	ctx := context.Background()

	result, err := fx.svc.Login(ctx, "Ana@Acme.io ", "correct-horse-battery")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.AccessToken)
	require.Len(t, fx.sessions.created, 1)
	assert.Equal(t, fx.sessions.created[0], result.SessionID)
	assert.Equal(t, fx.user.ID, fx.users.lastLoginID)
	assert.Equal(t, []string{"user.logged_in"}, fx.audit.actions)

	// token carries the session id as jti so revocation kills it
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, fx.user.ID, claims.UserID)
	assert.Equal(t, "ana@acme.io", claims.Email)
	assert.Equal(t, enums.MemberRoleAdmin, claims.Role)
	assert.Equal(t, result.SessionID, claims.ID)
}

func TestService_LoginRejections(t *testing.T) {
	fx := setupAuthService(t)
	ctx := context.Background()

	_, err := fx.svc.Login(ctx, "", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = fx.svc.Login(ctx, "nobody@acme.io", "whatever-long")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = fx.svc.Login(ctx, "ana@acme.io", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	fx.user.Authorized = false
	_, err = fx.svc.Login(ctx, "ana@acme.io", "correct-horse-battery")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	assert.Empty(t, fx.sessions.created)
}

func TestService_LoginSessionFailure(t *testing.T) {
	fx := setupAuthService(t)
	fx.sessions.err = errors.New("redis down")

	_, err := fx.svc.Login(context.Background(), "ana@acme.io", "correct-horse-battery")
	require.Error(t, err)
	assert.Nil(t, pkgerrors.As(err))
}

func TestService_Logout(t *testing.T) {
	fx := setupAuthService(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.Logout(ctx, "session-1"))
	assert.Equal(t, []string{"session-1"}, fx.sessions.revoked)

	err := fx.svc.Logout(ctx, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
