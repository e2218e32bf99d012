package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/teamtrace/go-auth"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthenticator implements auth.Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Impersonate(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (auth.Session, error) {
	args := m.Called(token)
	session, _ := args.Get(0).(auth.Session)
	return session, args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session auth.Session) (auth.Identity, error) {
	args := m.Called(ctx, session)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func TestNewHTTPAuthenticatorCookieDurations(t *testing.T) {
	httpAuth, err := auth.NewHTTPAuthenticator(&MockAuthenticator{}, testConfig{
		tokenTTL:    12,
		extendedTTL: 720,
	})
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, httpAuth.GetCookieDuration())
	assert.Equal(t, 720*time.Hour, httpAuth.GetExtendedCookieDuration())
}

func TestNewHTTPAuthenticatorExtendedFallsBackToRegular(t *testing.T) {
	httpAuth, err := auth.NewHTTPAuthenticator(&MockAuthenticator{}, testConfig{tokenTTL: 12})
	require.NoError(t, err)

	assert.Equal(t, httpAuth.GetCookieDuration(), httpAuth.GetExtendedCookieDuration())
}

func TestRouteAuthenticatorLoginSetsCookie(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Login", mock.Anything, "test@example.com", "pass").
		Return("signed.jwt.token", nil).Once()

	httpAuth, err := auth.NewHTTPAuthenticator(auther, testConfig{})
	require.NoError(t, err)
	httpAuth.Logger = quietLogger{}

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	var cookie *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		cookie = args.Get(0).(*router.Cookie)
	}).Return().Once()

	token, err := httpAuth.Login(ctx, auth.LoginRequest{
		Email:    "test@example.com",
		Password: "pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", token)

	require.NotNil(t, cookie)
	assert.Equal(t, "user", cookie.Name)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HTTPOnly)
	assert.True(t, cookie.Secure)
	auther.AssertExpectations(t)
}

func TestRouteAuthenticatorLoginDoesNotSetCookieOnFailure(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return("", auth.ErrInvalidCredentials).Once()

	httpAuth, err := auth.NewHTTPAuthenticator(auther, testConfig{})
	require.NoError(t, err)
	httpAuth.Logger = quietLogger{}

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	_, err = httpAuth.Login(ctx, auth.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	ctx.AssertNotCalled(t, "Cookie", mock.Anything)
}

func TestRouteAuthenticatorLogoutExpiresCookie(t *testing.T) {
	httpAuth, err := auth.NewHTTPAuthenticator(&MockAuthenticator{}, testConfig{})
	require.NoError(t, err)
	httpAuth.Logger = quietLogger{}

	ctx := router.NewMockContext()

	var cookie *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		cookie = args.Get(0).(*router.Cookie)
	}).Return().Once()

	httpAuth.Logout(ctx)

	require.NotNil(t, cookie)
	assert.Equal(t, "user", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()), "logout cookie must be expired")
}

func TestAsRichError(t *testing.T) {
	t.Run("plain errors become internal with generic message", func(t *testing.T) {
		richErr := auth.AsRichError(errors.New("pq: connection refused"))
		assert.Equal(t, goerrors.CodeInternal, richErr.Code)
		assert.NotContains(t, richErr.Message, "connection refused")
	})

	t.Run("auth errors pass through", func(t *testing.T) {
		richErr := auth.AsRichError(auth.ErrInvalidCredentials)
		assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
		assert.Equal(t, auth.TextCodeInvalidCredentials, richErr.TextCode)
		assert.Equal(t, "invalid credentials", richErr.Message)
	})

	t.Run("internal rich errors are masked", func(t *testing.T) {
		internal := goerrors.New("dsn user=admin password=hunter2", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
		richErr := auth.AsRichError(internal)
		assert.NotContains(t, richErr.Message, "hunter2")
	})

	t.Run("zero code gets internal status", func(t *testing.T) {
		richErr := auth.AsRichError(goerrors.New("odd state", goerrors.CategoryOperation))
		assert.Equal(t, goerrors.CodeInternal, richErr.Code)
	})
}

func TestWriteErrorResponse(t *testing.T) {
	ctx := router.NewMockContext()

	var code int
	var envelope auth.ErrorEnvelope
	ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		code = args.Get(0).(int)
		envelope = args.Get(1).(auth.ErrorEnvelope)
	}).Return(nil).Once()

	err := auth.WriteErrorResponse(ctx, auth.ErrAccountLocked)
	require.NoError(t, err)

	assert.Equal(t, goerrors.CodeForbidden, code)
	assert.False(t, envelope.Success)
	assert.Equal(t, auth.TextCodeAccountLocked, envelope.Error.TextCode)
}
