package models

// Team groups users; a user belongs to at most one team.
type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TeamSnapshot is the canonical per-request view used by the assignment
// engine: the team, its members, and each member's currently-open tasks
// keyed by user ID.
type TeamSnapshot struct {
	Team      Team
	Members   []User
	OpenTasks map[int64][]Task
}

// MemberByID returns the member with the given ID, or nil.
func (s *TeamSnapshot) MemberByID(id int64) *User {
	for i := range s.Members {
		if s.Members[i].ID == id {
			return &s.Members[i]
		}
	}
	return nil
}
