package routeguard

import (
	"sort"
	"strings"

	"github.com/goliatone/go-router"
)

// Surface is the coarse classification of a request path.
type Surface int

const (
	SurfaceOpen Surface = iota
	SurfaceUser
	SurfaceAdmin
)

func (s Surface) String() string {
	switch s {
	case SurfaceAdmin:
		return "admin"
	case SurfaceUser:
		return "user"
	default:
		return "open"
	}
}

// Outcome is the guard's decision for a classified request.
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeRedirected
)

// Config drives the path gate. The guard is advisory: it steers browsers
// toward the right surface using a lightweight role cookie, while the real
// authorization stays in the token middleware.
type Config struct {
	// AdminPrefixes and UserPrefixes must be disjoint path prefix sets.
	AdminPrefixes []string
	UserPrefixes  []string

	// RoleCookie is the cookie carrying the role hint.
	RoleCookie string

	AdminDashboard string
	UserDashboard  string
	LoginPath      string

	// IsAdminRole decides whether a role value grants the admin surface.
	IsAdminRole func(role string) bool

	// Filter skips the guard entirely when it returns true.
	Filter func(router.Context) bool
}

func (cfg Config) withDefaults() Config {
	if cfg.RoleCookie == "" {
		cfg.RoleCookie = "role"
	}
	if cfg.AdminDashboard == "" {
		cfg.AdminDashboard = "/admin/dashboard"
	}
	if cfg.UserDashboard == "" {
		cfg.UserDashboard = "/dashboard"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.IsAdminRole == nil {
		cfg.IsAdminRole = func(role string) bool { return role == "admin" }
	}
	return cfg
}

type prefixEntry struct {
	prefix  string
	surface Surface
}

// Guard classifies request paths and decides whether the caller's role
// hint belongs on that surface.
type Guard struct {
	cfg     Config
	entries []prefixEntry
}

// NewGuard compiles the prefix sets for longest-prefix classification.
func NewGuard(config ...Config) *Guard {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	entries := make([]prefixEntry, 0, len(cfg.AdminPrefixes)+len(cfg.UserPrefixes))
	for _, p := range cfg.AdminPrefixes {
		if p = normalizePrefix(p); p != "" {
			entries = append(entries, prefixEntry{prefix: p, surface: SurfaceAdmin})
		}
	}
	for _, p := range cfg.UserPrefixes {
		if p = normalizePrefix(p); p != "" {
			entries = append(entries, prefixEntry{prefix: p, surface: SurfaceUser})
		}
	}

	// longest prefix wins, so sort once up front
	sort.Slice(entries, func(i, j int) bool {
		return len(entries[i].prefix) > len(entries[j].prefix)
	})

	return &Guard{cfg: cfg, entries: entries}
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") {
		return ""
	}
	return strings.TrimSuffix(p, "/")
}

// Classify returns the surface owning path, or SurfaceOpen when no prefix
// matches. Matches stop at path segment boundaries so /administrator is
// not captured by /admin.
func (g *Guard) Classify(path string) Surface {
	if path == "" {
		return SurfaceOpen
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	for _, e := range g.entries {
		if path == e.prefix {
			return e.surface
		}
		if strings.HasPrefix(path, e.prefix+"/") {
			return e.surface
		}
	}

	return SurfaceOpen
}

// Decision is the result of evaluating one request.
type Decision struct {
	Surface  Surface
	Outcome  Outcome
	Location string
}

// Evaluate runs classification and the role check without touching the
// request, which keeps the logic testable on its own.
func (g *Guard) Evaluate(path, role string) Decision {
	surface := g.Classify(path)
	if surface == SurfaceOpen {
		return Decision{Surface: surface, Outcome: OutcomeAllowed}
	}

	if role == "" {
		return Decision{Surface: surface, Outcome: OutcomeRedirected, Location: g.cfg.LoginPath}
	}

	isAdmin := g.cfg.IsAdminRole(role)

	switch {
	case surface == SurfaceAdmin && !isAdmin:
		return Decision{Surface: surface, Outcome: OutcomeRedirected, Location: g.cfg.UserDashboard}
	case surface == SurfaceUser && isAdmin:
		return Decision{Surface: surface, Outcome: OutcomeRedirected, Location: g.cfg.AdminDashboard}
	default:
		return Decision{Surface: surface, Outcome: OutcomeAllowed}
	}
}

// Middleware wires the guard into the router chain.
func (g *Guard) Middleware() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if g.cfg.Filter != nil && g.cfg.Filter(ctx) {
				return ctx.Next()
			}

			decision := g.Evaluate(ctx.OriginalURL(), ctx.Cookies(g.cfg.RoleCookie))
			if decision.Outcome == OutcomeRedirected {
				return ctx.Redirect(decision.Location, router.StatusSeeOther)
			}

			return ctx.Next()
		}
	}
}

// New builds the guard middleware in one call.
func New(config ...Config) router.MiddlewareFunc {
	return NewGuard(config...).Middleware()
}

// SetRoleCookie stores the role hint after a successful login.
func SetRoleCookie(ctx router.Context, name, role string) {
	if name == "" {
		name = "role"
	}
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    role,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
