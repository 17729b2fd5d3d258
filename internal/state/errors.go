package state

import "errors"

// Local rule violations. These are raised before any request is sent, so a
// handler can report them without touching the network.
var (
	// ErrEmptyTitle rejects adding an item whose title is blank after
	// trimming.
	ErrEmptyTitle = errors.New("item title must not be empty")

	// ErrEmptyQuery rejects a blank search query.
	ErrEmptyQuery = errors.New("search query must not be empty")

	// ErrSelfRemoval rejects removing yourself through the member list;
	// leaving a group is a separate action.
	ErrSelfRemoval = errors.New("cannot remove yourself; use leave instead")

	// ErrActionPending rejects a second submission while the same entity
	// id already has a mutation in flight.
	ErrActionPending = errors.New("action already in progress for this entry")

	// ErrNotOwner rejects an owner-only action requested by someone else:
	// deleting the group, or inviting members into it.
	ErrNotOwner = errors.New("only the group owner can do that")

	// ErrOwnerCannotLeave rejects leaving a group you own; owners delete.
	ErrOwnerCannotLeave = errors.New("the owner cannot leave the group; delete it instead")

	// ErrUnknownEntry means the referenced group, item or member is not in
	// the current view.
	ErrUnknownEntry = errors.New("no such entry in the current view")

	// ErrNotJoined rejects opening a group that is only Found; the view
	// affordance for an unjoined group is join, not view.
	ErrNotJoined = errors.New("join the group before opening it")
)
