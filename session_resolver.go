package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// SessionResolver turns a raw bearer token into the sanitized principal
// behind it. It is the authoritative check used by /auth/verify and
// /auth/me: the token must validate and the account must still exist and
// not be locked.
type SessionResolver struct {
	validator TokenValidator
	users     Users
	logger    Logger
}

func NewSessionResolver(validator TokenValidator, users Users) *SessionResolver {
	return &SessionResolver{
		validator: validator,
		users:     users,
		logger:    defLogger{},
	}
}

func (r *SessionResolver) WithLogger(logger Logger) *SessionResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ResolveBearer extracts the credential from an Authorization header value
// and resolves it. An empty or non-bearer header is an auth failure, not a
// parse failure.
func (r *SessionResolver) ResolveBearer(ctx context.Context, authorization string) (*PublicUser, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}
	return r.ResolveToken(ctx, raw)
}

// ResolveToken validates the token and loads its principal.
func (r *SessionResolver) ResolveToken(ctx context.Context, raw string) (*PublicUser, error) {
	claims, err := r.validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	return r.ResolveClaims(ctx, claims)
}

// ResolveClaims loads the principal named by already-validated claims.
func (r *SessionResolver) ResolveClaims(ctx context.Context, claims AuthClaims) (*PublicUser, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	subject := claims.UserID()
	if subject == "" {
		subject = claims.Subject()
	}
	if subject == "" {
		return nil, ErrUnableToDecodeSession
	}

	user, err := r.users.GetByIdentifier(ctx, subject)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound.WithMetadata(map[string]any{
				"subject": subject,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session principal")
	}

	user.EnsureStatus()
	if user.Locked() {
		return nil, ErrAccountLocked
	}

	if user.Status == UserStatusArchived {
		return nil, ErrIdentityNotFound.WithMetadata(map[string]any{
			"subject": subject,
		})
	}

	return user.Sanitize(), nil
}

// BearerToken pulls the raw token out of an Authorization header value.
func BearerToken(authorization string) (string, error) {
	header := strings.TrimSpace(authorization)
	if header == "" {
		return "", ErrUnableToFindSession
	}

	const scheme = "Bearer"
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrUnableToFindSession
	}

	token := strings.TrimSpace(header[len(scheme):])
	if token == "" {
		return "", ErrUnableToFindSession
	}

	return token, nil
}
