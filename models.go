package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's coarse authorization category
type UserRole = string

const (
	// RoleUser is the default field-worker role
	RoleUser UserRole = "user"
	// RoleQC reviews performance records
	RoleQC UserRole = "qc"
	// RoleHR manages worker records
	RoleHR UserRole = "hr"
	// RoleManager manages campaigns and teams
	RoleManager UserRole = "manager"
	// RoleAdmin has full access to the admin surface
	RoleAdmin UserRole = "admin"
)

// UserStatus is the lifecycle status backing the locked flag
type UserStatus = string

const (
	// UserStatusActive can authenticate normally
	UserStatusActive UserStatus = "active"
	// UserStatusLocked is blocked from authenticating regardless of
	// credential validity; only an admin transition clears it
	UserStatusLocked UserStatus = "locked"
	// UserStatusArchived is terminal; the account is retired
	UserStatusArchived UserStatus = "archived"
)

// User is the credential record. PasswordHash is the only secret bearing
// field and must never reach a serialized response; use Sanitize.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	TaskRole      string     `bun:"task_role" json:"task_role,omitempty"`
	WorkerType    string     `bun:"worker_type" json:"worker_type,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Status        UserStatus `bun:"status" json:"status,omitempty"`
	LoginAttempts int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	LockedAt       *time.Time `bun:"locked_at,nullzero" json:"locked_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the status column for rows created before the
// lifecycle machinery existed.
func (u *User) EnsureStatus() {
	if u == nil {
		return
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// Locked reports whether the account is blocked from authenticating.
func (u *User) Locked() bool {
	if u == nil {
		return false
	}
	return u.Status == UserStatusLocked
}

// PublicUser is the sanitized principal view returned by every endpoint.
// It has no password hash field at all, so a serializer cannot leak one.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	TaskRole   string    `json:"task_role,omitempty"`
	WorkerType string    `json:"worker_type,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Locked     bool      `json:"locked"`
}

// Sanitize strips secrets from the credential record.
func (u *User) Sanitize() *PublicUser {
	if u == nil {
		return nil
	}

	return &PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		TaskRole:   u.TaskRole,
		WorkerType: u.WorkerType,
		Phone:      u.Phone,
		Locked:     u.Locked(),
	}
}

// PasswordResetStep identifies the UI stage of the reset flow
type PasswordResetStep = string

const (
	// ResetInit is the initial step
	ResetInit PasswordResetStep = "show-reset"
	// AccountVerification notification sent
	AccountVerification PasswordResetStep = "email-sent"
)

// PasswordResetStatus values for the reset session lifecycle
const (
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset is a pending password reset session
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// MarkPasswordAsReseted will create an update record closing the session
func MarkPasswordAsReseted(id uuid.UUID) *PasswordReset {
	r := &PasswordReset{}
	r.ID = id
	r.Status = ResetChangedStatus
	n := time.Now()
	r.ResetedAt = &n
	return r
}
