package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// immutableClaimsSnapshot pins down the identity claims a decorator must not
// touch. Only extension fields (Scopes, Metadata) are mutable.
type immutableClaimsSnapshot struct {
	subject     string
	issuer      string
	uid         string
	email       string
	role        string
	audience    []string
	issuedAt    time.Time
	hasIssuedAt bool
	expiresAt   time.Time
	hasExpires  bool
}

func captureImmutableClaims(claims *JWTClaims) immutableClaimsSnapshot {
	var audienceCopy []string
	if len(claims.RegisteredClaims.Audience) > 0 {
		audienceCopy = append(audienceCopy, claims.RegisteredClaims.Audience...)
	}

	snap := immutableClaimsSnapshot{
		subject:  claims.RegisteredClaims.Subject,
		issuer:   claims.RegisteredClaims.Issuer,
		uid:      claims.UID,
		email:    claims.UserEmail,
		role:     claims.UserRole,
		audience: audienceCopy,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		snap.issuedAt = claims.RegisteredClaims.IssuedAt.Time
		snap.hasIssuedAt = true
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		snap.expiresAt = claims.RegisteredClaims.ExpiresAt.Time
		snap.hasExpires = true
	}

	return snap
}

func (s immutableClaimsSnapshot) validate(claims *JWTClaims) error {
	if claims.RegisteredClaims.Subject != s.subject {
		return fmt.Errorf("claims decorator mutated subject")
	}
	if claims.RegisteredClaims.Issuer != s.issuer {
		return fmt.Errorf("claims decorator mutated issuer")
	}
	if claims.UID != s.uid {
		return fmt.Errorf("claims decorator mutated uid")
	}
	if claims.UserEmail != s.email {
		return fmt.Errorf("claims decorator mutated email")
	}
	if claims.UserRole != s.role {
		return fmt.Errorf("claims decorator mutated role")
	}

	if len(claims.RegisteredClaims.Audience) != len(s.audience) {
		return fmt.Errorf("claims decorator mutated audience")
	}
	for i, aud := range claims.RegisteredClaims.Audience {
		if aud != s.audience[i] {
			return fmt.Errorf("claims decorator mutated audience")
		}
	}

	if s.hasIssuedAt {
		if claims.RegisteredClaims.IssuedAt == nil || !claims.RegisteredClaims.IssuedAt.Time.Equal(s.issuedAt) {
			return fmt.Errorf("claims decorator mutated issued at")
		}
	} else if claims.RegisteredClaims.IssuedAt != nil {
		return fmt.Errorf("claims decorator mutated issued at")
	}

	if s.hasExpires {
		if claims.RegisteredClaims.ExpiresAt == nil || !claims.RegisteredClaims.ExpiresAt.Time.Equal(s.expiresAt) {
			return fmt.Errorf("claims decorator mutated expiry")
		}
	} else if claims.RegisteredClaims.ExpiresAt != nil {
		return fmt.Errorf("claims decorator mutated expiry")
	}

	return nil
}

// ensureTokenID backfills the jti claim so every issued token is traceable.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil {
		return
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
