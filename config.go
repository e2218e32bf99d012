package auth

import (
	"os"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// InsecureDefaultSigningKey is only ever used outside production. Keeping a
// fallback at all is a known weakness carried over from the original design;
// NewEnvConfig logs loudly when it kicks in and refuses to start in
// production without a real key.
const InsecureDefaultSigningKey = "insecure-development-signing-key"

const (
	envSigningKey       = "AUTH_SIGNING_KEY"
	envEnvironment      = "AUTH_ENV"
	envDSN              = "AUTH_DSN"
	envTokenTTL         = "AUTH_TOKEN_TTL"
	envExtendedTokenTTL = "AUTH_EXTENDED_TOKEN_TTL"
	envIssuer           = "AUTH_ISSUER"
	envAudience         = "AUTH_AUDIENCE"
)

// EnvConfig is the Config implementation backed by process environment
// variables, resolved once at startup and read-only thereafter.
type EnvConfig struct {
	signingKey       string
	environment      string
	dsn              string
	tokenExpiration  int
	extendedTokenTTL int
	issuer           string
	audience         []string
}

var _ Config = (*EnvConfig)(nil)

// NewEnvConfig resolves configuration from the environment. It fails fast
// when production has no signing key.
func NewEnvConfig(logger Logger) (*EnvConfig, error) {
	if logger == nil {
		logger = defLogger{}
	}

	cfg := &EnvConfig{
		signingKey:      os.Getenv(envSigningKey),
		environment:     strings.ToLower(os.Getenv(envEnvironment)),
		dsn:             os.Getenv(envDSN),
		tokenExpiration: 24,
		issuer:          os.Getenv(envIssuer),
	}

	if raw := os.Getenv(envTokenTTL); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, goerrors.New("invalid token TTL", goerrors.CategoryBadInput).
				WithMetadata(map[string]any{envTokenTTL: raw})
		}
		cfg.tokenExpiration = hours
	}

	if raw := os.Getenv(envExtendedTokenTTL); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return nil, goerrors.New("invalid extended token TTL", goerrors.CategoryBadInput).
				WithMetadata(map[string]any{envExtendedTokenTTL: raw})
		}
		cfg.extendedTokenTTL = hours
	}

	if raw := os.Getenv(envAudience); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.audience = append(cfg.audience, aud)
			}
		}
	}

	if cfg.signingKey == "" {
		if cfg.IsProduction() {
			return nil, goerrors.New("signing key is required in production", goerrors.CategoryInternal).
				WithTextCode("MISSING_SIGNING_KEY")
		}
		logger.Warn("no %s set, falling back to the insecure default signing key", envSigningKey)
		cfg.signingKey = InsecureDefaultSigningKey
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production hardening.
func (c *EnvConfig) IsProduction() bool {
	return c.environment == "production" || c.environment == "prod"
}

// GetDSN returns the document store connection string.
func (c *EnvConfig) GetDSN() string {
	return c.dsn
}

func (c *EnvConfig) GetSigningKey() string {
	return c.signingKey
}

func (c *EnvConfig) GetSigningMethod() string {
	return "HS256"
}

func (c *EnvConfig) GetContextKey() string {
	return "user"
}

func (c *EnvConfig) GetTokenExpiration() int {
	return c.tokenExpiration
}

// GetExtendedTokenDuration backs "remember me" sessions. Zero means the
// regular expiration applies.
func (c *EnvConfig) GetExtendedTokenDuration() int {
	return c.extendedTokenTTL
}

func (c *EnvConfig) GetTokenLookup() string {
	return "header:Authorization"
}

func (c *EnvConfig) GetAuthScheme() string {
	return "Bearer"
}

func (c *EnvConfig) GetIssuer() string {
	return c.issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.audience
}

// GetRejectedRouteKey is the cookie name that stores the route a guard
// bounced the caller away from.
func (c *EnvConfig) GetRejectedRouteKey() string {
	return "rejected_route"
}

func (c *EnvConfig) GetRejectedRouteDefault() string {
	return "/login"
}
