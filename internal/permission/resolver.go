// Package permission answers capability questions about a session. Resolvers are cheap
// values built from the current session on every evaluation; a missing session denies
// everything.
package permission

import (
	"fmt"
	"strings"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

// Modes accepted by NewFactory.
const (
	ModeRoleMatrix = "role-matrix"
	ModeServer     = "server"
)

// Resolver answers capability queries for one session.
type Resolver interface {
	Can(key domain.PermissionKey) bool
	CanAll(keys ...domain.PermissionKey) bool
	CanAny(keys ...domain.PermissionKey) bool
	HasRole(roles ...domain.Role) bool
}

// Factory builds a Resolver for a session snapshot.
type Factory func(sess *domain.Session) Resolver

// NewFactory returns the resolver factory for mode. The matrix is only used by role-matrix mode;
// a nil matrix selects DefaultMatrix.
func NewFactory(mode string, matrix Matrix) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeRoleMatrix, "":
		if matrix == nil {
			matrix = DefaultMatrix()
		}
		return func(sess *domain.Session) Resolver {
			return NewRoleMatrix(sess, matrix)
		}, nil
	case ModeServer:
		return func(sess *domain.Session) Resolver {
			return NewServerDelivered(sess)
		}, nil
	default:
		return nil, fmt.Errorf("unknown permission mode %q", mode)
	}
}

// grantSet implements the shared query logic over a resolved permission set.
type grantSet struct {
	session *domain.Session
	granted map[domain.PermissionKey]struct{}
}

func (g grantSet) Can(key domain.PermissionKey) bool {
	if g.session == nil || len(g.granted) == 0 {
		return false
	}
	_, ok := g.granted[key]
	return ok
}

// CanAll is false for an empty key list so a misconfigured guard never opens.
func (g grantSet) CanAll(keys ...domain.PermissionKey) bool {
	if len(keys) == 0 {
		return false
	}
	for _, key := range keys {
		if !g.Can(key) {
			return false
		}
	}
	return true
}

func (g grantSet) CanAny(keys ...domain.PermissionKey) bool {
	for _, key := range keys {
		if g.Can(key) {
			return true
		}
	}
	return false
}

func (g grantSet) HasRole(roles ...domain.Role) bool {
	return g.session.HasRole(roles...)
}
