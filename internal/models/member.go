package models

// Member represents a user's membership record within a group. The group
// owner is a distinguished Member reference, not a separate entity.
type Member struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// DisplayName returns the best human-readable name for the member.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	return m.Name
}
