package models

// Profile is the authenticated user's own record on the shopping-list
// service, fetched once per session via GET /auth.
type Profile struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// DisplayName returns the best human-readable name for the profile.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "@" + p.Username
}
