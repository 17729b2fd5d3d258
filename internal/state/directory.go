package state

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
)

// Directory is the per-chat view model over the visible set of groups. The
// membership tag on every entry is assigned once at the point of data
// entry: the "my groups" listing produces Joined entries, a search produces
// Found entries, and only a confirmed join moves an entry from Found to
// Joined. Search results replace the visible set wholesale so stale joined
// state never leaks onto them.
type Directory struct {
	client *api.Client
	logger *logrus.Logger
	token  string

	mu     sync.RWMutex
	groups []models.Group
	loaded bool
}

// NewDirectory creates an empty directory bound to a session token.
func NewDirectory(client *api.Client, logger *logrus.Logger, token string) *Directory {
	return &Directory{client: client, logger: logger, token: token}
}

// Loaded reports whether the initial listing has succeeded at least once.
func (d *Directory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// Groups returns a snapshot of the visible set in display order.
func (d *Directory) Groups() []models.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Group, len(d.groups))
	copy(out, d.groups)
	return out
}

// Get returns the cached entry for a group id.
func (d *Directory) Get(id string) (models.Group, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// Load fetches the "my groups" listing and replaces the visible set with
// Joined entries. On failure the directory stays empty and unloaded so the
// caller can offer a retry.
func (d *Directory) Load(ctx context.Context) error {
	groups, err := d.client.MyGroups(ctx, d.token)
	if err != nil {
		d.mu.Lock()
		d.groups = nil
		d.loaded = false
		d.mu.Unlock()
		return err
	}

	for i := range groups {
		groups[i].Membership = models.MembershipJoined
	}

	d.mu.Lock()
	d.groups = groups
	d.loaded = true
	d.mu.Unlock()

	d.logger.WithField("count", len(groups)).Debug("Directory loaded")
	return nil
}

// Search replaces the visible set with the result of a group search, every
// entry tagged Found. A blank query is a local no-op; a failed search
// leaves the previous visible set untouched.
func (d *Directory) Search(ctx context.Context, query string) ([]models.Group, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	groups, err := d.client.SearchGroups(ctx, d.token, query)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		groups[i].Membership = models.MembershipFound
	}

	d.mu.Lock()
	d.groups = groups
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(groups),
	}).Debug("Directory replaced with search results")
	return groups, nil
}

// Join joins a group by id. On success the server's record of the group
// replaces (or is appended to) the visible set as Joined, never duplicated
// by id. On failure the entry keeps its Found tag.
func (d *Directory) Join(ctx context.Context, id, password string) (*models.Group, error) {
	joined, err := d.client.JoinGroup(ctx, d.token, id, password)
	if err != nil {
		return nil, err
	}
	joined.Membership = models.MembershipJoined

	d.mu.Lock()
	replaced := false
	for i := range d.groups {
		if d.groups[i].ID == joined.ID {
			d.groups[i] = *joined
			replaced = true
			break
		}
	}
	if !replaced {
		d.groups = append(d.groups, *joined)
	}
	d.mu.Unlock()

	d.logger.WithField("group_id", joined.ID).Info("Joined group")
	return joined, nil
}

// Create creates a group and appends the server's record as Joined
// immediately, with no re-fetch of the listing.
func (d *Directory) Create(ctx context.Context, name, password string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTitle
	}

	created, err := d.client.CreateGroup(ctx, d.token, name, password)
	if err != nil {
		return nil, err
	}
	created.Membership = models.MembershipJoined

	d.mu.Lock()
	d.groups = append(d.groups, *created)
	d.mu.Unlock()

	d.logger.WithField("group_id", created.ID).Info("Created group")
	return created, nil
}

// Remove drops a group from the visible set after a confirmed leave or
// delete, so the listing does not go stale.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.groups {
		if d.groups[i].ID == id {
			d.groups = append(d.groups[:i], d.groups[i+1:]...)
			return
		}
	}
}
