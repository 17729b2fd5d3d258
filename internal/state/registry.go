package state

import "sync"

// Chat bundles one chat's mounted view models: the directory, mounted at
// login, and at most one detail view over the currently opened group.
// Handlers capture the detail pointer for the duration of an action; when a
// slow completion arrives after the detail was swapped or dropped it
// patches only the superseded object, which nothing renders anymore.
type Chat struct {
	Directory *Directory

	mu     sync.RWMutex
	detail *Detail
}

// NewChat creates a chat state around a freshly mounted directory.
func NewChat(directory *Directory) *Chat {
	return &Chat{Directory: directory}
}

// Detail returns the currently mounted detail view, or nil.
func (c *Chat) Detail() *Detail {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.detail
}

// SetDetail mounts a detail view, superseding any previous one.
func (c *Chat) SetDetail(d *Detail) {
	c.mu.Lock()
	c.detail = d
	c.mu.Unlock()
}

// ClearDetail unmounts the detail view.
func (c *Chat) ClearDetail() {
	c.SetDetail(nil)
}

// Registry maps chat ids to their mounted view models. Entries are created
// at login and dropped at logout, account deletion or forced teardown.
type Registry struct {
	mu    sync.RWMutex
	chats map[int64]*Chat
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chats: make(map[int64]*Chat)}
}

// Get returns the chat's state, or nil when nothing is mounted.
func (r *Registry) Get(chatID int64) *Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chats[chatID]
}

// Put mounts a chat's state, replacing any previous one.
func (r *Registry) Put(chatID int64, chat *Chat) {
	r.mu.Lock()
	r.chats[chatID] = chat
	r.mu.Unlock()
}

// Drop unmounts a chat's state.
func (r *Registry) Drop(chatID int64) {
	r.mu.Lock()
	delete(r.chats, chatID)
	r.mu.Unlock()
}
