package auth

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreatePasswordResetTable = `CREATE TABLE password_reset (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    email TEXT NOT NULL,
    reseted_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupCommandRepo(t *testing.T) (RepositoryManager, *bun.DB) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, stmt := range []string{
		sqliteCreateUsersTable,
		sqliteCreateUsersEmailIndex,
		sqliteCreatePasswordResetTable,
	} {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return NewRepositoryManager(bunDB), bunDB
}

// recordingSink collects activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) all() []ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestRegisterUserHandler(t *testing.T) {
	repo, _ := setupCommandRepo(t)

	var created *User
	handler := NewRegisterUserHandler(repo)
	handler.OnResponse = func(u *User) { created = u }

	err := handler.Execute(context.Background(), RegisterUserMessage{
		Name:       "Field Worker",
		Email:      "Worker@Example.COM",
		Phone:      "+12125550123",
		Role:       RoleQC,
		TaskRole:   "inspector",
		WorkerType: "seasonal",
		Password:   "sup3r-secret",
	})
	require.NoError(t, err)

	require.NotNil(t, created, "OnResponse must receive the created record")
	assert.Equal(t, "worker@example.com", created.Email)
	assert.Equal(t, RoleQC, created.Role)
	assert.Equal(t, "inspector", created.TaskRole)
	assert.Equal(t, "+12125550123", created.Phone)
	assert.Equal(t, UserStatusActive, created.Status)
	require.NotEmpty(t, created.PasswordHash)
	assert.NoError(t, ComparePasswordAndHash("sup3r-secret", created.PasswordHash))

	found, err := repo.Users().GetByEmail(context.Background(), "worker@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestRegisterUserHandlerRejectsUnknownRole(t *testing.T) {
	repo, _ := setupCommandRepo(t)
	handler := NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), RegisterUserMessage{
		Name:     "Field Worker",
		Email:    "worker@example.com",
		Role:     "superuser",
		Password: "sup3r-secret",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "INVALID_ROLE", richErr.TextCode)
}

func TestRegisterUserHandlerRejectsInvalidPhone(t *testing.T) {
	repo, _ := setupCommandRepo(t)
	handler := NewRegisterUserHandler(repo)

	err := handler.Execute(context.Background(), RegisterUserMessage{
		Name:     "Field Worker",
		Email:    "worker@example.com",
		Phone:    "not a phone",
		Password: "sup3r-secret",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "INVALID_PHONE", richErr.TextCode)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	repo, _ := setupCommandRepo(t)
	handler := NewRegisterUserHandler(repo)

	msg := RegisterUserMessage{
		Name:     "Field Worker",
		Email:    "worker@example.com",
		Password: "sup3r-secret",
	}
	require.NoError(t, handler.Execute(context.Background(), msg))

	msg.Email = "WORKER@example.com"
	err := handler.Execute(context.Background(), msg)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeEmailTaken, richErr.TextCode)
}

func TestRegisterUserMessageType(t *testing.T) {
	assert.Equal(t, "user.register", RegisterUserMessage{}.Type())
	assert.Equal(t, "user.password_reset", InitializePasswordResetMessage{}.Type())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty allowed", "", "", false},
		{"e164 passthrough", "+12125550123", "+12125550123", false},
		{"national format gets region prefix", "(212) 555-0123", "+12125550123", false},
		{"garbage rejected", "not a phone", "", true},
		{"too short rejected", "+1", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizePhone(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				var richErr *goerrors.Error
				require.True(t, goerrors.As(err, &richErr))
				assert.Equal(t, "INVALID_PHONE", richErr.TextCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func seedPasswordReset(t *testing.T, repo RepositoryManager, email string) (*User, *PasswordReset) {
	t.Helper()

	user, err := repo.Users().Register(context.Background(), &User{
		Name:         "Field Worker",
		Email:        email,
		PasswordHash: "stale-hash",
	})
	require.NoError(t, err)

	var reset *PasswordReset
	handler := NewInitializePasswordResetHandler(repo)
	err = handler.Execute(context.Background(), InitializePasswordResetMessage{
		Stage: ResetInit,
		Email: email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			reset = resp.Reset
		},
	})
	require.NoError(t, err)
	require.NotNil(t, reset)

	return user, reset
}

func TestInitializePasswordReset(t *testing.T) {
	repo, _ := setupCommandRepo(t)

	t.Run("rejects unknown stage", func(t *testing.T) {
		handler := NewInitializePasswordResetHandler(repo)
		err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Stage: "something-else",
			Email: "worker@example.com",
		})
		require.Error(t, err)
		assert.False(t, goerrors.IsNotFound(err))
	})

	t.Run("unknown email reports the same stage", func(t *testing.T) {
		var resp *InitializePasswordResetResponse
		handler := NewInitializePasswordResetHandler(repo)
		err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Stage: ResetInit,
			Email: "ghost@example.com",
			OnResponse: func(r *InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Equal(t, AccountVerification, resp.Stage)
		assert.Nil(t, resp.Reset, "no reset session for unknown accounts")
	})

	t.Run("known email opens a reset session", func(t *testing.T) {
		user, reset := seedPasswordReset(t, repo, "worker@example.com")

		assert.Equal(t, ResetRequestedStatus, reset.Status)
		assert.Equal(t, "worker@example.com", reset.Email)
		require.NotNil(t, reset.UserID)
		assert.Equal(t, user.ID, *reset.UserID)
	})
}

func TestFinalizePasswordReset(t *testing.T) {
	repo, _ := setupCommandRepo(t)
	user, reset := seedPasswordReset(t, repo, "worker@example.com")

	sink := &recordingSink{}
	handler := NewFinalizePasswordResetHandler(repo).
		WithActivitySink(sink).
		WithLogger(silentLogger{})

	err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
		Session:  reset.ID.String(),
		Password: "brand-new-secret",
	})
	require.NoError(t, err)

	found, err := repo.Users().GetByEmail(context.Background(), "worker@example.com")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswordAndHash("brand-new-secret", found.PasswordHash))

	closed, err := repo.PasswordResets().GetByID(context.Background(), reset.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ResetChangedStatus, closed.Status)
	require.NotNil(t, closed.ResetedAt)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, ActivityEventPasswordResetSuccess, events[0].EventType)
	assert.Equal(t, user.ID.String(), events[0].UserID)

	t.Run("token cannot be reused", func(t *testing.T) {
		err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
			Session:  reset.ID.String(),
			Password: "another-secret",
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "TOKEN_ALREADY_USED", richErr.TextCode)
	})
}

func TestFinalizePasswordResetUnknownSession(t *testing.T) {
	repo, _ := setupCommandRepo(t)
	handler := NewFinalizePasswordResetHandler(repo).WithLogger(silentLogger{})

	err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
		Session:  "00000000-0000-0000-0000-000000000000",
		Password: "whatever-secret",
	})
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestFinalizePasswordResetExpiredToken(t *testing.T) {
	repo, bunDB := setupCommandRepo(t)
	_, reset := seedPasswordReset(t, repo, "worker@example.com")

	stale := time.Now().Add(-48 * time.Hour)
	_, err := bunDB.NewUpdate().
		Model((*PasswordReset)(nil)).
		Set("created_at = ?", stale).
		Where("id = ?", reset.ID.String()).
		Exec(context.Background())
	require.NoError(t, err)

	handler := NewFinalizePasswordResetHandler(repo).WithLogger(silentLogger{})
	err = handler.Execute(context.Background(), FinalizePasswordResetMessage{
		Session:  reset.ID.String(),
		Password: "brand-new-secret",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeTokenExpired, richErr.TextCode)
}
