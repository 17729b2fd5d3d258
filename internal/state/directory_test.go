package state

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeService is a minimal stand-in for the remote shopping-list service.
type fakeService struct {
	mux      *http.ServeMux
	server   *httptest.Server
	requests atomic.Int64
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) client() *api.Client {
	return api.NewClient(f.server.URL, nil, testLogger(), nil)
}

func (f *fakeService) respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func groupIDs(groups []models.Group) []string {
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}

func TestDirectoryLoadMarksEverythingJoined(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{
			{"_id": "g1", "name": "Home"},
			{"_id": "g2", "name": "Office"},
		})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))

	groups := dir.Groups()
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.True(t, g.Joined(), "listing entry %s must be joined", g.ID)
	}
	assert.True(t, dir.Loaded())
}

func TestDirectoryLoadFailureLeavesEmpty(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	err := dir.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, dir.Groups())
	assert.False(t, dir.Loaded())
}

func TestDirectorySearchReplacesNotMerges(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g1", "name": "Home"}})
	})
	f.mux.HandleFunc("GET /groups/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "book", r.URL.Query().Get("q"))
		f.respondJSON(w, []map[string]any{{"_id": "g9", "name": "Book Club"}})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))

	results, err := dir.Search(context.Background(), "book")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The joined listing is gone; the visible set is exactly the search
	// result, tagged found.
	groups := dir.Groups()
	assert.Equal(t, []string{"g9"}, groupIDs(groups))
	assert.False(t, groups[0].Joined())
	assert.Equal(t, models.MembershipFound, groups[0].Membership)
}

func TestDirectorySearchFailureKeepsPreviousSet(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g1", "name": "Home"}})
	})
	f.mux.HandleFunc("GET /groups/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))

	_, err := dir.Search(context.Background(), "book")
	require.Error(t, err)

	groups := dir.Groups()
	assert.Equal(t, []string{"g1"}, groupIDs(groups))
	assert.True(t, groups[0].Joined())
}

func TestDirectorySearchBlankQueryIsLocalNoop(t *testing.T) {
	f := newFakeService(t)

	dir := NewDirectory(f.client(), testLogger(), "tok")
	_, err := dir.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, f.requests.Load(), "no request may be sent for a blank query")
}

func TestDirectoryJoinFlipsInPlaceWithoutDuplicate(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups/search", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g9", "name": "Book Club"}})
	})
	f.mux.HandleFunc("POST /groups/g9/join", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, map[string]any{"_id": "g9", "name": "Book Club"})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	_, err := dir.Search(context.Background(), "book")
	require.NoError(t, err)

	joined, err := dir.Join(context.Background(), "g9", "pw")
	require.NoError(t, err)
	assert.True(t, joined.Joined())

	groups := dir.Groups()
	assert.Equal(t, []string{"g9"}, groupIDs(groups), "join must not duplicate the entry")
	assert.True(t, groups[0].Joined())
}

func TestDirectoryJoinAppendsWhenAbsent(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g1", "name": "Home"}})
	})
	f.mux.HandleFunc("POST /groups/g9/join", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, map[string]any{"_id": "g9", "name": "Book Club"})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))

	_, err := dir.Join(context.Background(), "g9", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g9"}, groupIDs(dir.Groups()))
}

func TestDirectoryJoinFailureLeavesEntryFound(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups/search", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g9", "name": "Book Club"}})
	})
	f.mux.HandleFunc("POST /groups/g9/join", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"wrong password"}`, http.StatusUnauthorized)
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	_, err := dir.Search(context.Background(), "book")
	require.NoError(t, err)

	_, err = dir.Join(context.Background(), "g9", "nope")
	require.Error(t, err)

	groups := dir.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, models.MembershipFound, groups[0].Membership)
}

func TestDirectoryCreateAppendsImmediately(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{{"_id": "g1", "name": "Home"}})
	})
	f.mux.HandleFunc("POST /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, map[string]any{"_id": "g2", "name": "Trip"})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))
	before := f.requests.Load()

	created, err := dir.Create(context.Background(), "Trip", "pw")
	require.NoError(t, err)
	assert.True(t, created.Joined())
	assert.Equal(t, []string{"g1", "g2"}, groupIDs(dir.Groups()))
	assert.Equal(t, before+1, f.requests.Load(), "create must not re-fetch the listing")
}

func TestDirectoryRemoveDropsEntry(t *testing.T) {
	f := newFakeService(t)
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		f.respondJSON(w, []map[string]any{
			{"_id": "g1", "name": "Home"},
			{"_id": "g2", "name": "Office"},
		})
	})

	dir := NewDirectory(f.client(), testLogger(), "tok")
	require.NoError(t, dir.Load(context.Background()))

	dir.Remove("g1")
	assert.Equal(t, []string{"g2"}, groupIDs(dir.Groups()))

	// Removing an unknown id is harmless.
	dir.Remove("missing")
	assert.Equal(t, []string{"g2"}, groupIDs(dir.Groups()))
}
