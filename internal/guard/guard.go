// Package guard decides what a request may see given the session state of its scope.
package guard

import (
	"time"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const (
	defaultLoginPath    = "/login"
	defaultFallbackPath = "/"
	defaultRestoreWait  = 2 * time.Second
)

// Outcome is the state reached by a route guard for one request.
type Outcome int

const (
	Loading Outcome = iota
	Unauthenticated
	AuthenticatedDenied
	AuthenticatedAllowed
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedDenied:
		return "denied"
	case AuthenticatedAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Requirement describes what a route or element needs. Empty Permissions means any
// authenticated session; Roles, when set, must match at least one role in addition.
type Requirement struct {
	Permissions []domain.PermissionKey
	// AnyPermission switches Permissions from all-of to any-of.
	AnyPermission bool
	Roles         []domain.Role
	// FallbackPath overrides where denied requests are sent.
	FallbackPath string
}

// Require is shorthand for a single-permission requirement.
func Require(key domain.PermissionKey) Requirement {
	return Requirement{Permissions: []domain.PermissionKey{key}}
}

// Decision is the result of Evaluate.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	Session    *domain.Session
	Resolver   permission.Resolver
}

// Option customises a Guard.
type Option func(*Guard)

// WithLoginPath sets where unauthenticated requests are redirected.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithFallbackPath sets the default destination for denied requests.
func WithFallbackPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.fallbackPath = path
		}
	}
}

// WithRestoreWait bounds how long a route gate waits for a session restore before
// answering with the loading state.
func WithRestoreWait(wait time.Duration) Option {
	return func(g *Guard) {
		if wait > 0 {
			g.restoreWait = wait
		}
	}
}

// WithObserver registers a callback run with every route gate outcome.
func WithObserver(observe func(Outcome)) Option {
	return func(g *Guard) {
		if observe != nil {
			g.observe = observe
		}
	}
}

// Guard evaluates requirements against session state.
type Guard struct {
	resolvers    permission.Factory
	loginPath    string
	fallbackPath string
	restoreWait  time.Duration
	observe      func(Outcome)
}

// New builds a Guard that resolves permissions with factory.
func New(factory permission.Factory, opts ...Option) *Guard {
	g := &Guard{
		resolvers:    factory,
		loginPath:    defaultLoginPath,
		fallbackPath: defaultFallbackPath,
		restoreWait:  defaultRestoreWait,
		observe:      func(Outcome) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the login entry point.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Resolver builds a resolver for sess.
func (g *Guard) Resolver(sess *domain.Session) permission.Resolver {
	return g.resolvers(sess)
}

// Evaluate maps (loading, authenticated, permitted) to an Outcome. It keeps no state between
// calls; the resolver is rebuilt from the supplied session every time.
func (g *Guard) Evaluate(state session.State, req Requirement) Decision {
	if state.Loading {
		return Decision{Outcome: Loading}
	}

	sess := state.Session
	if sess == nil || sess.AccessToken == "" {
		return Decision{Outcome: Unauthenticated, RedirectTo: g.loginPath}
	}

	resolver := g.resolvers(sess)
	decision := Decision{Session: sess, Resolver: resolver}
	if !Satisfied(resolver, req) {
		decision.Outcome = AuthenticatedDenied
		decision.RedirectTo = req.FallbackPath
		if decision.RedirectTo == "" {
			decision.RedirectTo = g.fallbackPath
		}
		return decision
	}

	decision.Outcome = AuthenticatedAllowed
	return decision
}

// Satisfied reports whether resolver meets req. Permissions and roles are combined with AND.
func Satisfied(resolver permission.Resolver, req Requirement) bool {
	if resolver == nil {
		return false
	}
	if len(req.Permissions) > 0 {
		if req.AnyPermission {
			if !resolver.CanAny(req.Permissions...) {
				return false
			}
		} else if !resolver.CanAll(req.Permissions...) {
			return false
		}
	}
	if len(req.Roles) > 0 && !resolver.HasRole(req.Roles...) {
		return false
	}
	return true
}
