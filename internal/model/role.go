package model

import "fmt"

// Role is the closed set of role names a user may hold.  Roles form an
// implicit seniority ladder used by "X or higher" authorization checks:
// agent < team_leader < area_manager < regional_manager < national_manager
// < admin < super_admin.  Modelling roles as a named type rather than free
// strings keeps invalid role states unrepresentable.
type Role string

const (
	RoleAgent           Role = "agent"
	RoleTeamLeader      Role = "team_leader"
	RoleAreaManager     Role = "area_manager"
	RoleRegionalManager Role = "regional_manager"
	RoleNationalManager Role = "national_manager"
	RoleAdmin           Role = "admin"
	RoleSuperAdmin      Role = "super_admin"
)

// roleRank maps every role to its seniority rank.  Rank is a total
// function over the enum: every valid role has an entry.
var roleRank = map[Role]int{
	RoleAgent:           0,
	RoleTeamLeader:      1,
	RoleAreaManager:     2,
	RoleRegionalManager: 3,
	RoleNationalManager: 4,
	RoleAdmin:           5,
	RoleSuperAdmin:      6,
}

// AllRoles lists the valid roles in ascending seniority order.  The slice
// is used to seed the roles table and to serve GET /api/roles.
var AllRoles = []Role{
	RoleAgent,
	RoleTeamLeader,
	RoleAreaManager,
	RoleRegionalManager,
	RoleNationalManager,
	RoleAdmin,
	RoleSuperAdmin,
}

// ParseRole converts a string into a Role, returning an error for any
// value outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Rank returns the seniority rank of the role.  Unknown roles rank below
// every valid role so they never satisfy a requirement.
func (r Role) Rank() int {
	if n, ok := roleRank[r]; ok {
		return n
	}
	return -1
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role is min or any more-senior role.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// AssigneeType identifies what kind of principal a goal assignment binds
// to.  Like Role it is a closed enum rather than a free string.
type AssigneeType string

const (
	AssigneeUser AssigneeType = "user"
	AssigneeTeam AssigneeType = "team"
)

// ParseAssigneeType validates and converts an assignee type string.
func ParseAssigneeType(s string) (AssigneeType, error) {
	switch AssigneeType(s) {
	case AssigneeUser, AssigneeTeam:
		return AssigneeType(s), nil
	}
	return "", fmt.Errorf("unknown assignee type %q", s)
}
