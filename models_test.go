package auth_test

import (
	"encoding/json"
	"testing"

	auth "github.com/teamtrace/go-auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSanitize(t *testing.T) {
	id := uuid.New()
	user := &auth.User{
		ID:           id,
		Name:         "Field Worker",
		Email:        "worker@example.com",
		Role:         auth.RoleQC,
		TaskRole:     "inspector",
		WorkerType:   "seasonal",
		Phone:        "+12125550123",
		PasswordHash: "$2a$14$abcdefghijklmnopqrstuv",
		Status:       auth.UserStatusLocked,
	}

	public := user.Sanitize()
	require.NotNil(t, public)
	assert.Equal(t, id, public.ID)
	assert.Equal(t, "worker@example.com", public.Email)
	assert.Equal(t, auth.RoleQC, public.Role)
	assert.True(t, public.Locked)

	payload, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "$2a$", "serialized principal must never carry hash material")
	assert.NotContains(t, string(payload), "password")
}

func TestUserSanitizeNil(t *testing.T) {
	var user *auth.User
	assert.Nil(t, user.Sanitize())
}

func TestUserJSONNeverExposesHash(t *testing.T) {
	user := &auth.User{
		Email:        "worker@example.com",
		PasswordHash: "$2a$14$abcdefghijklmnopqrstuv",
	}

	payload, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "$2a$")
}

func TestUserEnsureStatus(t *testing.T) {
	user := &auth.User{}
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusActive, user.Status)

	user.Status = auth.UserStatusArchived
	user.EnsureStatus()
	assert.Equal(t, auth.UserStatusArchived, user.Status)

	var nilUser *auth.User
	assert.NotPanics(t, func() { nilUser.EnsureStatus() })
}

func TestUserLocked(t *testing.T) {
	assert.False(t, (&auth.User{Status: auth.UserStatusActive}).Locked())
	assert.True(t, (&auth.User{Status: auth.UserStatusLocked}).Locked())
	assert.False(t, (&auth.User{Status: auth.UserStatusArchived}).Locked())

	var nilUser *auth.User
	assert.False(t, nilUser.Locked())
}

func TestMarkPasswordAsReseted(t *testing.T) {
	id := uuid.New()
	record := auth.MarkPasswordAsReseted(id)

	assert.Equal(t, id, record.ID)
	assert.Equal(t, auth.ResetChangedStatus, record.Status)
	require.NotNil(t, record.ResetedAt)
}
