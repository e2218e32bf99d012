package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced in error envelopes so API clients can branch on a
// stable identifier instead of parsing messages.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenSignature     = "TOKEN_SIGNATURE_INVALID"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
)

// ErrInvalidCredentials is returned on any credential mismatch. It is
// deliberately uniform: callers must not learn whether the email exists.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked blocks authentication regardless of credential validity.
var ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned when a token is past its expiry instant,
// independent of signature validity.
var ErrTokenExpired = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers tokens we cannot parse into claims.
var ErrTokenMalformed = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignature covers tokens whose signature does not verify against
// the process signing key.
var ErrTokenSignature = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailTaken is the Conflict mapped from the storage layer's unique
// lowercase email index.
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTooManyLoginAttempts enforces the login cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(429)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch sentinel.
// It is mapped to ErrInvalidCredentials before leaving the package.
var ErrMismatchedHashAndPassword = goerrors.New("mismatched hash and password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request carries no token
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode("SESSION_DECODE").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsTooManyAttemptsError reports whether err is the login cooldown rejection.
func IsTooManyAttemptsError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTooManyAttempts
}

// IsAccountLockedError reports whether err is the locked-account rejection.
func IsAccountLockedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == TextCodeAccountLocked
}
