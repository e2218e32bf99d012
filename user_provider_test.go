package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/teamtrace/go-auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func quickHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	return &auth.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        "test@example.com",
		Role:         auth.RoleUser,
		Status:       auth.UserStatusActive,
		PasswordHash: quickHash(t, password),
	}
}

func TestVerifyIdentitySuccess(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	identity, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, user.Email, identity.Email())
	assert.Equal(t, auth.RoleUser, identity.Role())
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
}

func TestVerifyIdentityWrongPasswordTracksAttempt(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()
	store.On("TrackAttemptedLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "test@example.com", "battery staple")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	store.AssertExpectations(t)
}

func TestVerifyIdentityUnknownUserLooksLikeBadPassword(t *testing.T) {
	store := &MockUserTracker{}
	store.On("GetByIdentifier", mock.Anything, "ghost@example.com").
		Return(nil, auth.ErrIdentityNotFound).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	// same error as a bad password so callers cannot probe registered emails
	assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestVerifyIdentityLockedAccount(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")
	user.Status = auth.UserStatusLocked
	now := time.Now()
	user.LockedAt = &now

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	// even with the right password the lock wins
	_, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAccountLocked)
	store.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "TrackSuccessfulLogin", mock.Anything, mock.Anything)
}

func TestVerifyIdentityArchivedAccountLooksLikeBadCredentials(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")
	user.Status = auth.UserStatusArchived

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyIdentityTooManyAttempts(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")
	recent := time.Now().Add(-time.Hour)
	user.LoginAttemptAt = &recent
	user.LoginAttempts = auth.MaxLoginAttempts + 1

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
}

func TestVerifyIdentityCooldownExpiryResetsAttempts(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")
	stale := time.Now().Add(-48 * time.Hour)
	user.LoginAttemptAt = &stale
	user.LoginAttempts = auth.MaxLoginAttempts + 10

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	identity, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotNil(t, identity)
	store.AssertExpectations(t)
}

func TestVerifyIdentityRejectsUnknownRole(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "correct horse")
	user.Role = "superuser"

	store.On("GetByIdentifier", mock.Anything, "test@example.com").Return(user, nil).Once()
	store.On("TrackSuccessfulLogin", mock.Anything, user).Return(nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "test@example.com", "correct horse")
	assert.Error(t, err)
}

func TestFindIdentityByIdentifier(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "irrelevant")

	store.On("GetByIdentifier", mock.Anything, user.ID.String()).Return(user, nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	identity, err := provider.FindIdentityByIdentifier(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.Email, identity.Email())
}

func TestFindIdentityByIdentifierLockedAccount(t *testing.T) {
	store := &MockUserTracker{}
	user := activeUser(t, "irrelevant")
	user.Status = auth.UserStatusLocked

	store.On("GetByIdentifier", mock.Anything, user.ID.String()).Return(user, nil).Once()

	provider := auth.NewUserProvider(store).WithLogger(quietLogger{})

	_, err := provider.FindIdentityByIdentifier(context.Background(), user.ID.String())
	assert.ErrorIs(t, err, auth.ErrAccountLocked)
}
