package permission

import "github.com/MHafidafandi/sipeduli-console/internal/core/domain"

// ServerDelivered trusts the permission list the API attached to the profile.
type ServerDelivered struct {
	grantSet
}

// NewServerDelivered resolves from sess.Permissions verbatim.
func NewServerDelivered(sess *domain.Session) *ServerDelivered {
	resolver := &ServerDelivered{grantSet{session: sess}}
	if sess == nil {
		return resolver
	}

	granted := make(map[domain.PermissionKey]struct{}, len(sess.Permissions))
	for _, key := range sess.Permissions {
		granted[key] = struct{}{}
	}
	resolver.granted = granted
	return resolver
}

var _ Resolver = (*ServerDelivered)(nil)
