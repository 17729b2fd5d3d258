package service

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
	"github.com/Kerhoff/shoplistbot/internal/state"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSessions is an in-memory SessionStore.
type fakeSessions struct {
	sessions map[int64]*models.Session
	logouts  []int64
}

func (f *fakeSessions) Current(ctx context.Context, chatID int64) *models.Session {
	return f.sessions[chatID]
}

func (f *fakeSessions) Logout(ctx context.Context, chatID int64) {
	delete(f.sessions, chatID)
	f.logouts = append(f.logouts, chatID)
}

type fixture struct {
	svc      *Service
	sessions *fakeSessions
	mux      *http.ServeMux
	requests atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: &fakeSessions{sessions: make(map[int64]*models.Session)},
		mux:      http.NewServeMux(),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, nil, testLogger(), nil)
	f.svc = New(testLogger(), client, f.sessions, state.NewRegistry())
	return f
}

func (f *fixture) login(chatID int64, userID string) *models.Session {
	session := &models.Session{ChatID: chatID, Token: "tok", UserID: userID}
	f.sessions.sessions[chatID] = session
	return session
}

func (f *fixture) serveGroups(groups ...map[string]any) {
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groups)
	})
}

func TestAuthedWithoutSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Authed(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestChatStateMountsAndLoadsOnce(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.serveGroups(map[string]any{"_id": "g1", "name": "Home"})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, chat.Directory.Loaded())
	loads := f.requests.Load()

	// A second call reuses the mounted, loaded directory.
	again, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)
	assert.Same(t, chat, again)
	assert.Equal(t, loads, f.requests.Load())
}

func TestChatStateKeepsChatOnLoadFailure(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")

	var calls atomic.Int64
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{"_id": "g1", "name": "Home"}})
	})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.Error(t, err)
	require.NotNil(t, chat, "the chat survives a failed load for retries")

	// The retry goes through the same path and succeeds.
	again, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)
	assert.Same(t, chat, again)
	assert.True(t, again.Directory.Loaded())
}

func TestOpenGroupFromCache(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.serveGroups(map[string]any{"_id": "g1", "name": "Home"})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)
	before := f.requests.Load()

	detail, err := f.svc.OpenGroup(context.Background(), session, chat, "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", detail.GroupID())
	assert.Equal(t, before, f.requests.Load(), "a cached group opens without a fetch")
	assert.Same(t, detail, chat.Detail())
}

func TestOpenGroupReloadsOnceOnCacheMiss(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")

	var calls atomic.Int64
	f.mux.HandleFunc("GET /groups", func(w http.ResponseWriter, r *http.Request) {
		groups := []map[string]any{{"_id": "g1", "name": "Home"}}
		if calls.Add(1) > 1 {
			groups = append(groups, map[string]any{"_id": "g2", "name": "Trip"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(groups)
	})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)

	// g2 appeared server-side after the first load; the miss triggers one
	// reload and then succeeds.
	detail, err := f.svc.OpenGroup(context.Background(), session, chat, "g2")
	require.NoError(t, err)
	assert.Equal(t, "g2", detail.GroupID())
	assert.Equal(t, int64(2), calls.Load())
}

func TestOpenGroupUnknownAfterReload(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.serveGroups(map[string]any{"_id": "g1", "name": "Home"})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)

	_, err = f.svc.OpenGroup(context.Background(), session, chat, "missing")
	assert.ErrorIs(t, err, state.ErrUnknownEntry)
}

func TestOpenGroupRejectsFoundEntries(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.serveGroups()
	f.mux.HandleFunc("GET /groups/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{{"_id": "g9", "name": "Book Club"}})
	})

	chat, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)
	_, err = chat.Directory.Search(context.Background(), "book")
	require.NoError(t, err)

	_, err = f.svc.OpenGroup(context.Background(), session, chat, "g9")
	assert.ErrorIs(t, err, state.ErrNotJoined)
	assert.Nil(t, chat.Detail())
}

func TestHandleAuthFailureTearsDownOnlyUnauthorized(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.serveGroups()
	_, err := f.svc.ChatState(context.Background(), session)
	require.NoError(t, err)

	unauth := &api.Error{Kind: api.Unauthorized, Status: http.StatusUnauthorized}
	notFound := &api.Error{Kind: api.NotFound, Status: http.StatusNotFound}

	assert.False(t, f.svc.HandleAuthFailure(context.Background(), 42, notFound))
	assert.NotNil(t, f.sessions.sessions[42], "non-auth failures never log the chat out")

	assert.True(t, f.svc.HandleAuthFailure(context.Background(), 42, unauth))
	assert.Nil(t, f.sessions.sessions[42])
	assert.Nil(t, f.svc.State.Get(42), "view models drop with the session")
}

func TestDeleteAccountTearsDownAfterConfirmation(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.mux.HandleFunc("DELETE /users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, f.svc.DeleteAccount(context.Background(), session))
	assert.Equal(t, []int64{42}, f.sessions.logouts)
}

func TestDeleteAccountFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	session := f.login(42, "u1")
	f.mux.HandleFunc("DELETE /users", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	require.Error(t, f.svc.DeleteAccount(context.Background(), session))
	assert.Empty(t, f.sessions.logouts)
	assert.NotNil(t, f.sessions.sessions[42])
}
