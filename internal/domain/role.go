package domain

// Role is the per-server membership role. Roles are totally ordered:
// owner > admin > pmc_member > squad_leader > member.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RolePMCMember   Role = "pmc_member"
	RoleSquadLeader Role = "squad_leader"
	RoleMember      Role = "member"

	// RoleNone is returned for users without a membership row.
	RoleNone Role = ""
)

// AssignableRoles are the roles an admin may set on a member.
// Owner is assigned once at server creation and never via the role API.
var AssignableRoles = []Role{RoleAdmin, RolePMCMember, RoleSquadLeader, RoleMember}

func (r Role) Assignable() bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}
