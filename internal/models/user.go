package models

// Role defines the authorization level of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTeamLeader Role = "TEAM_LEADER"
	RoleTeamMember Role = "TEAM_MEMBER"
)

// CanApprove reports whether the role is allowed to resolve approval requests.
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleTeamLeader
}

// User represents a member of the organisation. Users are provisioned
// externally; the core treats them as read-mostly.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	TeamID       *int64 `json:"team_id,omitempty"`
	// TelegramChatID is set once the user has linked the bot.
	TelegramChatID *int64 `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
