package rbac

const (
	PermSessionTake   = "session:take"
	PermTestView      = "test:view"
	PermTestCreate    = "test:create"
	PermResultViewOwn = "result:view-own"
	PermResultViewAll = "result:view-all"
	PermResultGrade   = "result:grade"
)

var RolePermissions = map[string][]string{
	"student": {
		PermTestView,
		PermSessionTake,
		PermResultViewOwn,
	},
	"teacher": {
		PermTestView,
		PermTestCreate,
		"result:*",
	},
	"admin": {
		"*",
	},
}

// IsStaff reports whether role may see every session and result.
func IsStaff(role string) bool {
	return defaultChecker.Has(role, PermResultViewAll)
}
