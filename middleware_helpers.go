package auth

import (
	"context"

	"github.com/teamtrace/go-auth/middleware/tokenware"
)

// ValidationListener aliases the tokenware listener so consumers can use auth helpers directly.
type ValidationListener = tokenware.ValidationListener

// ContextEnricherAdapter adapts tokenware.AuthClaims to auth.AuthClaims and
// stores them in the standard context for downstream use.
func ContextEnricherAdapter(c context.Context, claims tokenware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a tokenware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *tokenware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

type tokenValidatorAdapter struct {
	validator TokenValidator
}

// TokenValidatorAdapter bridges the auth token validator into the
// middleware package without an import cycle.
func TokenValidatorAdapter(v TokenValidator) tokenware.TokenValidator {
	return tokenValidatorAdapter{validator: v}
}

func (a tokenValidatorAdapter) Validate(raw string) (tokenware.AuthClaims, error) {
	claims, err := a.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
