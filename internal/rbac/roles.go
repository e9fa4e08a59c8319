package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleOperator records call attempts.
	RoleOperator = "operator"
	// RoleCoordinator manages the call schedule for a study site.
	RoleCoordinator = "coordinator"
	// RoleAnalyst has read-only access to calls and reports.
	RoleAnalyst = "analyst"

	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
