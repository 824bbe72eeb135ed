package permission

import (
	"fmt"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

// Matrix maps each role to the permissions it grants. A session holding several roles is granted
// the union.
type Matrix map[domain.Role][]domain.PermissionKey

// DefaultMatrix returns the built-in role matrix:
//   - super_admin manages roles and access rights and can read the main sections;
//   - administrator can do everything except role assignment and permission management;
//   - member is read only;
//   - guest has nothing.
func DefaultMatrix() Matrix {
	roleManagement := map[domain.PermissionKey]bool{
		domain.PermAssignRoles:       true,
		domain.PermCreateRoles:       true,
		domain.PermEditRoles:         true,
		domain.PermDeleteRoles:       true,
		domain.PermManagePermissions: true,
	}

	administrator := make([]domain.PermissionKey, 0, len(domain.AllPermissions))
	for _, key := range domain.AllPermissions {
		if !roleManagement[key] {
			administrator = append(administrator, key)
		}
	}

	return Matrix{
		domain.RoleSuperAdmin: {
			domain.PermViewDashboard,
			domain.PermViewRoles,
			domain.PermAssignRoles,
			domain.PermCreateRoles,
			domain.PermEditRoles,
			domain.PermDeleteRoles,
			domain.PermManagePermissions,
			domain.PermViewUsers,
			domain.PermViewDivisions,
			domain.PermViewRecruitments,
			domain.PermViewActivities,
			domain.PermViewDonations,
		},
		domain.RoleAdministrator: administrator,
		domain.RoleMember: {
			domain.PermViewUsers,
			domain.PermViewRoles,
			domain.PermViewDivisions,
			domain.PermViewRecruitments,
			domain.PermViewActivities,
		},
		domain.RoleGuest: {},
	}
}

// ParseMatrix converts a configuration map into a Matrix. Unknown permission keys are rejected.
func ParseMatrix(raw map[string][]string) (Matrix, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	matrix := make(Matrix, len(raw))
	for role, keys := range raw {
		grants := make([]domain.PermissionKey, 0, len(keys))
		for _, key := range keys {
			permission := domain.PermissionKey(key)
			if !domain.IsKnownPermission(permission) {
				return nil, fmt.Errorf("role %s: unknown permission %q", role, key)
			}
			grants = append(grants, permission)
		}
		matrix[domain.Role(role)] = grants
	}
	return matrix, nil
}

// RoleMatrix resolves permissions from the session's roles.
type RoleMatrix struct {
	grantSet
}

// NewRoleMatrix resolves sess against matrix.
func NewRoleMatrix(sess *domain.Session, matrix Matrix) *RoleMatrix {
	resolver := &RoleMatrix{grantSet{session: sess}}
	if sess == nil {
		return resolver
	}

	granted := make(map[domain.PermissionKey]struct{})
	for _, role := range sess.Roles {
		for _, key := range matrix[role] {
			granted[key] = struct{}{}
		}
	}
	resolver.granted = granted
	return resolver
}

var _ Resolver = (*RoleMatrix)(nil)
