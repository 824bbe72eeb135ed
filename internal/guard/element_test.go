package guard

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
)

func TestElementGateRender(t *testing.T) {
	member := Elements(permission.NewRoleMatrix(sessionWithRoles(domain.RoleMember), permission.DefaultMatrix()))

	if got := member.Render(Require(domain.PermViewUsers), "table", nil); got != "table" {
		t.Fatalf("expected content, got %v", got)
	}
	if got := member.Render(Require(domain.PermDeleteUsers), "delete button", nil); got != nil {
		t.Fatalf("expected nothing, got %v", got)
	}
	if got := member.Render(Require(domain.PermDeleteUsers), "delete button", DeniedMessage); got != DeniedMessage {
		t.Fatalf("expected denied message, got %v", got)
	}

	anonymous := Elements(nil)
	if anonymous.Allows(Require(domain.PermViewDashboard)) {
		t.Fatalf("expected nil resolver to deny everything")
	}
}

func TestElementGateTemplateFuncs(t *testing.T) {
	tmpl := template.Must(template.New("page").Funcs(TemplateFuncs()).Parse(
		`{{if can "view-users"}}users{{end}}|{{if canAll "view-users" "create-users"}}create{{else}}{{denied}}{{end}}|{{if canAny "create-users" "view-roles"}}any{{end}}`,
	))

	gate := Elements(permission.NewRoleMatrix(sessionWithRoles(domain.RoleMember), permission.DefaultMatrix()))
	bound, err := tmpl.Clone()
	if err != nil {
		t.Fatalf("clone template: %v", err)
	}

	var buf bytes.Buffer
	if err := bound.Funcs(gate.FuncMap()).Execute(&buf, nil); err != nil {
		t.Fatalf("execute template: %v", err)
	}
	if got := buf.String(); got != "users|Akses ditolak|any" {
		t.Fatalf("unexpected render %q", got)
	}
}

func TestFilterMenu(t *testing.T) {
	cases := []struct {
		name   string
		roles  []domain.Role
		titles []string
	}{
		{name: "guest", roles: []domain.Role{domain.RoleGuest}, titles: nil},
		{name: "member", roles: []domain.Role{domain.RoleMember}, titles: []string{"User Management", "Activities", "Recruitment"}},
		{name: "super_admin", roles: []domain.Role{domain.RoleSuperAdmin}, titles: []string{"Dashboard", "User Management", "Activities", "Donations", "Recruitment"}},
		{name: "administrator", roles: []domain.Role{domain.RoleAdministrator}, titles: []string{"Dashboard", "User Management", "Activities", "Donations", "Inventory", "Recruitment"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := Elements(permission.NewRoleMatrix(sessionWithRoles(tc.roles...), permission.DefaultMatrix()))
			menu := gate.FilterMenu(DefaultMenu())
			if len(menu) != len(tc.titles) {
				t.Fatalf("expected %d entries, got %+v", len(tc.titles), menu)
			}
			for i, title := range tc.titles {
				if menu[i].Title != title {
					t.Fatalf("entry %d: expected %q, got %q", i, title, menu[i].Title)
				}
			}
		})
	}
}

func TestFilterMenuDropsHiddenChildren(t *testing.T) {
	sess := &domain.Session{AccessToken: "T1", Permissions: []domain.PermissionKey{domain.PermViewUsers}}
	gate := Elements(permission.NewServerDelivered(sess))

	menu := gate.FilterMenu(DefaultMenu())
	if len(menu) != 1 || menu[0].Title != "User Management" {
		t.Fatalf("unexpected menu %+v", menu)
	}
	if children := menu[0].Items; len(children) != 1 || children[0].URL != "/dashboard/users" {
		t.Fatalf("expected only the users entry, got %+v", children)
	}
}

func TestLandingPath(t *testing.T) {
	matrix := permission.DefaultMatrix()
	cases := []struct {
		role domain.Role
		want string
	}{
		{role: domain.RoleSuperAdmin, want: "/dashboard"},
		{role: domain.RoleMember, want: "/dashboard/users"},
		{role: domain.RoleGuest, want: "/profile"},
	}
	for _, tc := range cases {
		if got := LandingPath(permission.NewRoleMatrix(sessionWithRoles(tc.role), matrix)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.role, tc.want, got)
		}
	}
	if got := LandingPath(nil); got != "/profile" {
		t.Fatalf("expected /profile without resolver, got %q", got)
	}
}
