package guard

import (
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
)

// MenuItem is one entry of the console navigation.
type MenuItem struct {
	Title      string               `json:"title"`
	URL        string               `json:"url"`
	Icon       string               `json:"icon,omitempty"`
	Permission domain.PermissionKey `json:"permission,omitempty"`
	Items      []MenuItem           `json:"items,omitempty"`
}

// DefaultMenu is the navigation of the console. Every entry carries the permission its
// route gate demands.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Title: "Dashboard", URL: "/dashboard", Icon: "layout-dashboard", Permission: domain.PermViewDashboard},
		{
			Title:      "User Management",
			URL:        "#",
			Icon:       "users",
			Permission: domain.PermViewUsers,
			Items: []MenuItem{
				{Title: "Users", URL: "/dashboard/users", Permission: domain.PermViewUsers},
				{Title: "Roles", URL: "/dashboard/roles", Permission: domain.PermViewRoles},
				{Title: "Divisions", URL: "/dashboard/divisions", Permission: domain.PermViewDivisions},
			},
		},
		{Title: "Activities", URL: "/dashboard/activities", Icon: "calendar", Permission: domain.PermViewActivities},
		{Title: "Donations", URL: "/dashboard/donations", Icon: "hand-coins", Permission: domain.PermViewDonations},
		{Title: "Inventory", URL: "/dashboard/inventory/assets", Icon: "package", Permission: domain.PermViewAssets},
		{Title: "Recruitment", URL: "/dashboard/recruitment", Icon: "user-plus", Permission: domain.PermViewRecruitments},
	}
}

// FilterMenu keeps the entries the gate allows. An entry without a permission is always shown;
// a group whose children are all hidden is dropped.
func (e ElementGate) FilterMenu(items []MenuItem) []MenuItem {
	visible := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.Permission != "" && !e.resolver.Can(item.Permission) {
			continue
		}
		if len(item.Items) > 0 {
			children := e.FilterMenu(item.Items)
			if len(children) == 0 {
				continue
			}
			item.Items = children
		}
		visible = append(visible, item)
	}
	return visible
}

// LandingPath is where a freshly authenticated user is sent.
func LandingPath(resolver permission.Resolver) string {
	switch {
	case resolver == nil:
		return "/profile"
	case resolver.Can(domain.PermViewDashboard):
		return "/dashboard"
	case resolver.Can(domain.PermViewUsers):
		return "/dashboard/users"
	default:
		return "/profile"
	}
}
