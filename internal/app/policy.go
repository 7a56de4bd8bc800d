package app

import "github.com/exortc/server/internal/domain"

// Role predicates. Pure functions of the role, no I/O; every privileged
// operation resolves the caller's role for the target server and applies
// the matching predicate before doing anything else.

func CanManageMembers(r domain.Role) bool {
	switch r {
	case domain.RoleOwner, domain.RoleAdmin:
		return true
	}
	return false
}

func CanCreateOrDeleteRooms(r domain.Role) bool {
	switch r {
	case domain.RoleOwner, domain.RoleAdmin, domain.RolePMCMember:
		return true
	}
	return false
}

// CanShout is the authoritative shout gate: squad_leader and above.
func CanShout(r domain.Role) bool {
	switch r {
	case domain.RoleOwner, domain.RoleAdmin, domain.RolePMCMember, domain.RoleSquadLeader:
		return true
	}
	return false
}
