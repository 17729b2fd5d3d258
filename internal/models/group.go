package models

// Membership is the client-side tag describing how a group entered the
// directory. It is not part of the server record and is assigned exactly
// once at the point of data entry: groups from the "my groups" listing are
// Joined, groups from a search are Found until a join succeeds.
type Membership int

const (
	// MembershipUnlisted means the group is not visible in the directory.
	MembershipUnlisted Membership = iota
	// MembershipFound means the group came from a search and the current
	// user is not (yet) a member.
	MembershipFound
	// MembershipJoined means the current user is a member of the group.
	MembershipJoined
)

// String returns a short label for logging.
func (m Membership) String() string {
	switch m {
	case MembershipFound:
		return "found"
	case MembershipJoined:
		return "joined"
	default:
		return "unlisted"
	}
}

// Group is a named collection of items and members with exactly one owner.
type Group struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Items   []Item   `json:"items"`
	Members []Member `json:"members"`
	Owner   Member   `json:"owner"`

	// Membership is derived client-side, never sent or received.
	Membership Membership `json:"-"`
}

// Joined reports whether the current user is a member of the group.
func (g *Group) Joined() bool {
	return g.Membership == MembershipJoined
}

// Clone returns a deep copy of the group so a view model can mutate its
// working copy without aliasing the directory's cached slice headers.
func (g *Group) Clone() Group {
	c := *g
	c.Items = make([]Item, len(g.Items))
	copy(c.Items, g.Items)
	c.Members = make([]Member, len(g.Members))
	copy(c.Members, g.Members)
	return c
}
