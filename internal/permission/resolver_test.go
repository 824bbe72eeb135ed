package permission

import (
	"testing"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

func sessionWithRoles(roles ...domain.Role) *domain.Session {
	return &domain.Session{UserID: "user-1", AccessToken: "T1", Roles: roles}
}

func TestNilSessionDeniesEverything(t *testing.T) {
	resolvers := map[string]Resolver{
		"matrix": NewRoleMatrix(nil, DefaultMatrix()),
		"server": NewServerDelivered(nil),
	}

	for name, resolver := range resolvers {
		for _, key := range domain.AllPermissions {
			if resolver.Can(key) {
				t.Fatalf("%s: expected %s to be denied without a session", name, key)
			}
		}
		if resolver.CanAny(domain.PermViewUsers, domain.PermViewRoles) {
			t.Fatalf("%s: expected CanAny to be false without a session", name)
		}
		if resolver.HasRole(domain.RoleMember) {
			t.Fatalf("%s: expected HasRole to be false without a session", name)
		}
	}
}

func TestDefaultMatrixRoles(t *testing.T) {
	matrix := DefaultMatrix()

	superAdmin := NewRoleMatrix(sessionWithRoles(domain.RoleSuperAdmin), matrix)
	if !superAdmin.CanAll(domain.PermAssignRoles, domain.PermManagePermissions, domain.PermViewUsers) {
		t.Fatalf("expected super_admin to manage roles and read users")
	}
	if superAdmin.Can(domain.PermCreateUsers) {
		t.Fatalf("expected super_admin to be unable to create users")
	}

	admin := NewRoleMatrix(sessionWithRoles(domain.RoleAdministrator), matrix)
	if !admin.CanAll(domain.PermCreateUsers, domain.PermDeleteDivisions, domain.PermVerifyDonations, domain.PermManageLoans) {
		t.Fatalf("expected administrator to manage content")
	}
	if admin.CanAny(domain.PermAssignRoles, domain.PermManagePermissions) {
		t.Fatalf("expected administrator to be unable to manage access rights")
	}

	member := NewRoleMatrix(sessionWithRoles(domain.RoleMember), matrix)
	if !member.Can(domain.PermViewActivities) {
		t.Fatalf("expected member to read activities")
	}
	if member.CanAny(domain.PermCreateActivities, domain.PermEditUsers, domain.PermViewDonations) {
		t.Fatalf("expected member to be read only")
	}

	guest := NewRoleMatrix(sessionWithRoles(domain.RoleGuest), matrix)
	if guest.CanAny(domain.AllPermissions...) {
		t.Fatalf("expected guest to have no permissions")
	}
}

func TestRoleMatrixUnionOfRoles(t *testing.T) {
	resolver := NewRoleMatrix(sessionWithRoles(domain.RoleMember, domain.RoleSuperAdmin), DefaultMatrix())

	if !resolver.CanAll(domain.PermAssignRoles, domain.PermViewRoles) {
		t.Fatalf("expected permissions of both roles")
	}
	if !resolver.HasRole(domain.RoleAdministrator, domain.RoleSuperAdmin) {
		t.Fatalf("expected HasRole to match any supplied role")
	}
}

func TestRoleMatrixReflectsSessionChanges(t *testing.T) {
	factory, err := NewFactory(ModeRoleMatrix, nil)
	if err != nil {
		t.Fatalf("NewFactory returned error: %v", err)
	}

	sess := sessionWithRoles(domain.RoleAdministrator)
	if !factory(sess).Can(domain.PermCreateUsers) {
		t.Fatalf("expected administrator to create users")
	}

	downgraded := sessionWithRoles(domain.RoleMember)
	if factory(downgraded).Can(domain.PermCreateUsers) {
		t.Fatalf("expected a resolver built from the new session to deny create-users")
	}
}

func TestServerDeliveredUsesProfilePermissions(t *testing.T) {
	sess := &domain.Session{
		AccessToken: "T1",
		Roles:       []domain.Role{domain.RoleSuperAdmin},
		Permissions: []domain.PermissionKey{domain.PermViewDonations, "custom-flag"},
	}
	resolver := NewServerDelivered(sess)

	if !resolver.Can(domain.PermViewDonations) {
		t.Fatalf("expected delivered permission to be granted")
	}
	if resolver.Can(domain.PermAssignRoles) {
		t.Fatalf("expected role to grant nothing in server mode")
	}
	if resolver.Can(domain.PermEditDonations) {
		t.Fatalf("expected no inference from view to edit")
	}
}

func TestCanAllEmptyIsDenied(t *testing.T) {
	resolver := NewServerDelivered(&domain.Session{
		AccessToken: "T1",
		Permissions: []domain.PermissionKey{domain.PermViewUsers},
	})
	if resolver.CanAll() {
		t.Fatalf("expected CanAll with no keys to be false")
	}
}

func TestParseMatrix(t *testing.T) {
	matrix, err := ParseMatrix(map[string][]string{
		"member": {"view-users", "view-donations"},
	})
	if err != nil {
		t.Fatalf("ParseMatrix returned error: %v", err)
	}
	resolver := NewRoleMatrix(sessionWithRoles(domain.RoleMember), matrix)
	if !resolver.Can(domain.PermViewDonations) {
		t.Fatalf("expected configured matrix to grant view-donations")
	}
	if resolver.Can(domain.PermViewRoles) {
		t.Fatalf("expected configured matrix to replace the default")
	}

	if _, err := ParseMatrix(map[string][]string{"member": {"view-everything"}}); err == nil {
		t.Fatalf("expected unknown permission to be rejected")
	}
}

func TestNewFactoryRejectsUnknownMode(t *testing.T) {
	if _, err := NewFactory("hierarchy", nil); err == nil {
		t.Fatalf("expected unknown mode to fail")
	}
}
