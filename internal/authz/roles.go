// Package authz groups the role sets the route table guards with.
package authz

import "crewdesk/internal/models"

// Approvers may resolve approval requests and assign without approval.
func Approvers() []models.Role {
	return []models.Role{models.RoleAdmin, models.RoleTeamLeader}
}

// Members is every authenticated role.
func Members() []models.Role {
	return []models.Role{models.RoleAdmin, models.RoleTeamLeader, models.RoleTeamMember}
}

// Admins may manage teams.
func Admins() []models.Role {
	return []models.Role{models.RoleAdmin}
}
