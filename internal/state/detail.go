package state

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
)

// Detail is the per-chat view model over one selected group. It holds a
// deep working copy derived from the directory cache and keeps it in sync
// through mutation responses only, never by re-fetching the listing.
//
// Update policy per operation:
//
//	add item, add member        patch from the server echo after success
//	toggle bought               flip locally after success
//	delete item, remove member,
//	leave, delete group         confirm-then-patch, nothing optimistic
//
// Transient pending sets track entity ids with a mutation in flight. They
// serialize mutations per id (a pending id rejects a second submission
// locally) and drive per-entry loading affordances; they are cleared on
// both success and failure and never persisted. Item creation has no id
// until the server echoes it back, so it is serialized by a group-wide
// flag instead.
type Detail struct {
	client *api.Client
	logger *logrus.Logger
	token  string
	userID string

	mu             sync.RWMutex
	group          models.Group
	pendingGroup   bool
	pendingAdd     bool
	pendingItems   map[string]struct{}
	pendingMembers map[string]struct{}
	userResults    []models.Member
}

// NewDetail mounts a detail view over a working copy of group for the user
// identified by userID.
func NewDetail(client *api.Client, logger *logrus.Logger, token, userID string, group models.Group) *Detail {
	return &Detail{
		client:         client,
		logger:         logger,
		token:          token,
		userID:         userID,
		group:          group.Clone(),
		pendingItems:   make(map[string]struct{}),
		pendingMembers: make(map[string]struct{}),
	}
}

// Group returns a snapshot of the working copy.
func (d *Detail) Group() models.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.group.Clone()
}

// GroupID returns the mounted group's id.
func (d *Detail) GroupID() string {
	return d.group.ID
}

// IsOwner reports whether the acting user owns the group. It is derived on
// every call from the working copy and the session identity, never cached.
func (d *Detail) IsOwner() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.group.Owner.ID == d.userID
}

// UserID returns the acting user's id.
func (d *Detail) UserID() string {
	return d.userID
}

// ItemPending reports whether an item id has a mutation in flight.
func (d *Detail) ItemPending(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.pendingItems[id]
	return ok
}

// MemberPending reports whether a member or candidate user id has a
// mutation in flight.
func (d *Detail) MemberPending(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.pendingMembers[id]
	return ok
}

// beginItem marks an item id pending, rejecting a concurrent duplicate.
func (d *Detail) beginItem(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pendingItems[id]; ok {
		return ErrActionPending
	}
	d.pendingItems[id] = struct{}{}
	return nil
}

func (d *Detail) endItem(id string) {
	d.mu.Lock()
	delete(d.pendingItems, id)
	d.mu.Unlock()
}

func (d *Detail) beginMember(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pendingMembers[id]; ok {
		return ErrActionPending
	}
	d.pendingMembers[id] = struct{}{}
	return nil
}

func (d *Detail) endMember(id string) {
	d.mu.Lock()
	delete(d.pendingMembers, id)
	d.mu.Unlock()
}

// beginAdd marks the item-creation flag. New items have no id until the
// server echoes them back, so creation is serialized group-wide rather
// than per id.
func (d *Detail) beginAdd() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingAdd {
		return ErrActionPending
	}
	d.pendingAdd = true
	return nil
}

func (d *Detail) endAdd() {
	d.mu.Lock()
	d.pendingAdd = false
	d.mu.Unlock()
}

// beginGroup marks the group-level leave/delete pending flag.
func (d *Detail) beginGroup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingGroup {
		return ErrActionPending
	}
	d.pendingGroup = true
	return nil
}

func (d *Detail) endGroup() {
	d.mu.Lock()
	d.pendingGroup = false
	d.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// AddItem creates an item. A title that is blank after trimming is rejected
// locally with no request, and only one creation may be in flight at a
// time. On success the server-returned item is appended, matching the
// server's creation order.
func (d *Detail) AddItem(ctx context.Context, title string) (*models.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if err := d.beginAdd(); err != nil {
		return nil, err
	}
	defer d.endAdd()

	item, err := d.client.AddItem(ctx, d.token, d.group.ID, title)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.group.Items = append(d.group.Items, *item)
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"group_id": d.group.ID,
		"item_id":  item.ID,
	}).Info("Item added")
	return item, nil
}

// DeleteItem deletes an item by id. The item stays in place until the
// server confirms; on any failure it remains and the pending mark clears.
func (d *Detail) DeleteItem(ctx context.Context, id string) error {
	if _, ok := d.findItem(id); !ok {
		return ErrUnknownEntry
	}
	if err := d.beginItem(id); err != nil {
		return err
	}
	defer d.endItem(id)

	if err := d.client.DeleteItem(ctx, d.token, id); err != nil {
		return err
	}

	d.mu.Lock()
	for i := range d.group.Items {
		if d.group.Items[i].ID == id {
			d.group.Items = append(d.group.Items[:i], d.group.Items[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"group_id": d.group.ID,
		"item_id":  id,
	}).Info("Item deleted")
	return nil
}

// ToggleBought flips an item's bought state. The direction is chosen from
// the current local state so a redundant transition is never sent: mark
// only when unbought, unmark only when bought. Returns the new state.
func (d *Detail) ToggleBought(ctx context.Context, id string) (bool, error) {
	if _, ok := d.findItem(id); !ok {
		return false, ErrUnknownEntry
	}
	if err := d.beginItem(id); err != nil {
		return false, err
	}
	defer d.endItem(id)

	// The direction is read under the pending mark: once the mark is held
	// no other mutation can flip the item underneath this one.
	item, ok := d.findItem(id)
	if !ok {
		return false, ErrUnknownEntry
	}

	var err error
	if item.IsBought {
		err = d.client.UnmarkBought(ctx, d.token, id)
	} else {
		err = d.client.MarkBought(ctx, d.token, id)
	}
	if err != nil {
		return item.IsBought, err
	}

	bought := !item.IsBought
	d.mu.Lock()
	for i := range d.group.Items {
		if d.group.Items[i].ID == id {
			d.group.Items[i].IsBought = bought
			break
		}
	}
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"group_id": d.group.ID,
		"item_id":  id,
		"bought":   bought,
	}).Info("Item toggled")
	return bought, nil
}

func (d *Detail) findItem(id string) (models.Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, item := range d.group.Items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// SearchUsers replaces the candidate-user result set. Like the invite it
// feeds, it is an owner-only affordance; a blank query is a local no-op.
// Neither rejection issues a request.
func (d *Detail) SearchUsers(ctx context.Context, query string) ([]models.Member, error) {
	if !d.IsOwner() {
		return nil, ErrNotOwner
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	users, err := d.client.SearchUsers(ctx, d.token, query)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.userResults = users
	d.mu.Unlock()
	return users, nil
}

// UserResults returns a snapshot of the last user search.
func (d *Detail) UserResults() []models.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Member, len(d.userResults))
	copy(out, d.userResults)
	return out
}

// AddMember adds a user to the group. Owner only, rejected locally for
// everyone else. On success the server-returned membership record is
// appended and the candidate results are cleared.
func (d *Detail) AddMember(ctx context.Context, userID string) (*models.Member, error) {
	if !d.IsOwner() {
		return nil, ErrNotOwner
	}
	if err := d.beginMember(userID); err != nil {
		return nil, err
	}
	defer d.endMember(userID)

	member, err := d.client.AddMember(ctx, d.token, d.group.ID, userID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.group.Members = append(d.group.Members, *member)
	d.userResults = nil
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"group_id":  d.group.ID,
		"member_id": member.ID,
	}).Info("Member added")
	return member, nil
}

// RemoveMember removes a member from the group. Removing yourself is
// rejected locally with no request; leaving is a separate action. The
// member stays in place until the server confirms.
func (d *Detail) RemoveMember(ctx context.Context, memberID string) error {
	if memberID == d.userID {
		return ErrSelfRemoval
	}
	if !d.hasMember(memberID) {
		return ErrUnknownEntry
	}
	if err := d.beginMember(memberID); err != nil {
		return err
	}
	defer d.endMember(memberID)

	if err := d.client.RemoveMember(ctx, d.token, d.group.ID, memberID); err != nil {
		return err
	}

	d.mu.Lock()
	for i := range d.group.Members {
		if d.group.Members[i].ID == memberID {
			d.group.Members = append(d.group.Members[:i], d.group.Members[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"group_id":  d.group.ID,
		"member_id": memberID,
	}).Info("Member removed")
	return nil
}

func (d *Detail) hasMember(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, m := range d.group.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Group-level actions
// ---------------------------------------------------------------------------

// Leave removes the acting user from the group. Owners cannot leave; they
// are offered delete and only delete.
func (d *Detail) Leave(ctx context.Context) error {
	if d.IsOwner() {
		return ErrOwnerCannotLeave
	}
	if err := d.beginGroup(); err != nil {
		return err
	}
	defer d.endGroup()
	return d.client.LeaveGroup(ctx, d.token, d.group.ID)
}

// Delete deletes the group. Permitted only for the owner; everyone else is
// offered leave and only leave.
func (d *Detail) Delete(ctx context.Context) error {
	if !d.IsOwner() {
		return ErrNotOwner
	}
	if err := d.beginGroup(); err != nil {
		return err
	}
	defer d.endGroup()
	return d.client.DeleteGroup(ctx, d.token, d.group.ID)
}
