package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims plus role checks
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Name() string
	Role() string
	TaskRole() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string         `json:"uid,omitempty"`
	UserEmail    string         `json:"email,omitempty"`
	DisplayName  string         `json:"name,omitempty"`
	UserRole     string         `json:"role,omitempty"`
	UserTaskRole string         `json:"task_role,omitempty"`
	WorkerType   string         `json:"worker_type,omitempty"`
	Scopes       []string       `json:"scopes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Name returns the display name claim
func (c *JWTClaims) Name() string {
	return c.DisplayName
}

// Role returns the coarse role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// TaskRole returns the finer capability claim
func (c *JWTClaims) TaskRole() string {
	return c.UserTaskRole
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(UserRole(c.UserRole), UserRole(minRole))
}

// IsAdmin reports whether the claims grant admin surface access
func (c *JWTClaims) IsAdmin() bool {
	return RoleIsAdmin(UserRole(c.UserRole))
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
