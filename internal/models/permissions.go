package models

const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
	RoleViewer       = "viewer"
)

// Permissions is the concrete capability set derived from a member's role.
// It is never stored or edited independently.
type Permissions struct {
	CanEdit           bool `json:"can_edit"`
	CanInvite         bool `json:"can_invite"`
	CanDelete         bool `json:"can_delete"`
	CanManageTasks    bool `json:"can_manage_tasks"`
	CanBookActivities bool `json:"can_book_activities"`
	CanViewBudget     bool `json:"can_view_budget"`
	CanManageFamily   bool `json:"can_manage_family"`
}

// PermissionsForRole maps a role to its capability set. Unknown roles get
// no capabilities at all.
func PermissionsForRole(role string) Permissions {
	switch role {
	case RoleOwner:
		return Permissions{
			CanEdit:           true,
			CanInvite:         true,
			CanDelete:         true,
			CanManageTasks:    true,
			CanBookActivities: true,
			CanViewBudget:     true,
			CanManageFamily:   true,
		}
	case RoleCollaborator:
		return Permissions{
			CanEdit:           true,
			CanManageTasks:    true,
			CanBookActivities: true,
			CanViewBudget:     true,
		}
	case RoleViewer:
		return Permissions{
			CanViewBudget: true,
		}
	default:
		return Permissions{}
	}
}

// ValidInviteRole reports whether a role may be granted through an invite.
// Ownership is seeded once at trip creation and never issued by invitation.
func ValidInviteRole(role string) bool {
	return role == RoleCollaborator || role == RoleViewer
}
