package domain

// Role is a coarse-grained tag issued by the API for the lifetime of a session.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdministrator Role = "administrator"
	RoleMember        Role = "member"
	RoleGuest         Role = "guest"
)

// PermissionKey names exactly one category of allowed action.
type PermissionKey string

const (
	PermViewDashboard PermissionKey = "view-dashboard"

	// User management
	PermViewUsers   PermissionKey = "view-users"
	PermCreateUsers PermissionKey = "create-users"
	PermEditUsers   PermissionKey = "edit-users"
	PermDeleteUsers PermissionKey = "delete-users"
	PermAssignRoles PermissionKey = "assign-roles"

	// Role management
	PermViewRoles         PermissionKey = "view-roles"
	PermCreateRoles       PermissionKey = "create-roles"
	PermEditRoles         PermissionKey = "edit-roles"
	PermDeleteRoles       PermissionKey = "delete-roles"
	PermManagePermissions PermissionKey = "manage-permissions"

	// Divisions
	PermViewDivisions   PermissionKey = "view-divisions"
	PermCreateDivisions PermissionKey = "create-divisions"
	PermEditDivisions   PermissionKey = "edit-divisions"
	PermDeleteDivisions PermissionKey = "delete-divisions"

	// Activities
	PermViewActivities   PermissionKey = "view-activities"
	PermCreateActivities PermissionKey = "create-activities"
	PermEditActivities   PermissionKey = "edit-activities"
	PermDeleteActivities PermissionKey = "delete-activities"

	// Documents and documentation
	PermViewDocuments         PermissionKey = "view-documents"
	PermCreateDocuments       PermissionKey = "create-documents"
	PermEditDocuments         PermissionKey = "edit-documents"
	PermDeleteDocuments       PermissionKey = "delete-documents"
	PermViewDocumentations    PermissionKey = "view-documentations"
	PermCreateDocumentations  PermissionKey = "create-documentations"
	PermEditDocumentations    PermissionKey = "edit-documentations"
	PermDeleteDocumentations  PermissionKey = "delete-documentations"
	PermArchiveDocumentations PermissionKey = "archive-documentations"

	// LPJ and progress reports
	PermViewLPJ               PermissionKey = "view-lpj"
	PermCreateLPJ             PermissionKey = "create-lpj"
	PermEditLPJ               PermissionKey = "edit-lpj"
	PermDeleteLPJ             PermissionKey = "delete-lpj"
	PermViewProgressReports   PermissionKey = "view-progress-reports"
	PermCreateProgressReports PermissionKey = "create-progress-reports"
	PermEditProgressReports   PermissionKey = "edit-progress-reports"
	PermDeleteProgressReports PermissionKey = "delete-progress-reports"

	// Donations
	PermViewDonations   PermissionKey = "view-donations"
	PermCreateDonations PermissionKey = "create-donations"
	PermEditDonations   PermissionKey = "edit-donations"
	PermDeleteDonations PermissionKey = "delete-donations"
	PermVerifyDonations PermissionKey = "verify-donations"

	// Inventory
	PermViewAssets   PermissionKey = "view-assets"
	PermCreateAssets PermissionKey = "create-assets"
	PermEditAssets   PermissionKey = "edit-assets"
	PermDeleteAssets PermissionKey = "delete-assets"
	PermViewLoans    PermissionKey = "view-loans"
	PermCreateLoans  PermissionKey = "create-loans"
	PermEditLoans    PermissionKey = "edit-loans"
	PermDeleteLoans  PermissionKey = "delete-loans"
	PermManageLoans  PermissionKey = "manage-loans"

	// Recruitment
	PermViewRecruitments   PermissionKey = "view-recruitments"
	PermCreateRecruitments PermissionKey = "create-recruitments"
	PermEditRecruitments   PermissionKey = "edit-recruitments"
	PermDeleteRecruitments PermissionKey = "delete-recruitments"
	PermManageRegistrants  PermissionKey = "manage-registrants"
)

// AllPermissions lists the permission taxonomy in declaration order.
var AllPermissions = []PermissionKey{
	PermViewDashboard,
	PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers, PermAssignRoles,
	PermViewRoles, PermCreateRoles, PermEditRoles, PermDeleteRoles, PermManagePermissions,
	PermViewDivisions, PermCreateDivisions, PermEditDivisions, PermDeleteDivisions,
	PermViewActivities, PermCreateActivities, PermEditActivities, PermDeleteActivities,
	PermViewDocuments, PermCreateDocuments, PermEditDocuments, PermDeleteDocuments,
	PermViewDocumentations, PermCreateDocumentations, PermEditDocumentations, PermDeleteDocumentations, PermArchiveDocumentations,
	PermViewLPJ, PermCreateLPJ, PermEditLPJ, PermDeleteLPJ,
	PermViewProgressReports, PermCreateProgressReports, PermEditProgressReports, PermDeleteProgressReports,
	PermViewDonations, PermCreateDonations, PermEditDonations, PermDeleteDonations, PermVerifyDonations,
	PermViewAssets, PermCreateAssets, PermEditAssets, PermDeleteAssets,
	PermViewLoans, PermCreateLoans, PermEditLoans, PermDeleteLoans, PermManageLoans,
	PermViewRecruitments, PermCreateRecruitments, PermEditRecruitments, PermDeleteRecruitments, PermManageRegistrants,
}

// IsKnownPermission reports whether key belongs to the taxonomy.
func IsKnownPermission(key PermissionKey) bool {
	for _, known := range AllPermissions {
		if known == key {
			return true
		}
	}
	return false
}
