package auth_test

import (
	"context"
	"sync"

	auth "github.com/teamtrace/go-auth"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUsers satisfies auth.Users through the embedded interface; only the
// methods exercised by tests are wired to the mock. Calling anything else
// panics, which is exactly what we want in a unit test.
type MockUsers struct {
	mock.Mock
	auth.Users
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus, opts ...auth.StatusUpdateOption) (*auth.User, error) {
	args := m.Called(ctx, id, status, opts)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockUserTracker implements auth.UserTracker.
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider implements auth.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (auth.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// testIdentity is a plain Identity value for token tests.
type testIdentity struct {
	id         string
	name       string
	email      string
	role       string
	taskRole   string
	workerType string
}

func (t testIdentity) ID() string         { return t.id }
func (t testIdentity) Name() string       { return t.name }
func (t testIdentity) Email() string      { return t.email }
func (t testIdentity) Role() string       { return t.role }
func (t testIdentity) TaskRole() string   { return t.taskRole }
func (t testIdentity) WorkerType() string { return t.workerType }

// testConfig implements auth.Config with fixed values.
type testConfig struct {
	signingKey  string
	tokenTTL    int
	extendedTTL int
	issuer      string
	audience    []string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "user" }

func (c testConfig) GetTokenExpiration() int {
	if c.tokenTTL == 0 {
		return 24
	}
	return c.tokenTTL
}

func (c testConfig) GetExtendedTokenDuration() int { return c.extendedTTL }
func (c testConfig) GetTokenLookup() string        { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string         { return "Bearer" }
func (c testConfig) GetIssuer() string             { return c.issuer }
func (c testConfig) GetAudience() []string         { return c.audience }
func (c testConfig) GetRejectedRouteKey() string   { return "rejected_route" }
func (c testConfig) GetRejectedRouteDefault() string {
	return "/login"
}

// captureSink records every activity event it sees.
type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *captureSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *captureSink) EventsOfType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	var out []auth.ActivityEvent
	for _, e := range s.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}
