package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, nil, testLogger(), nil)
}

func TestClientSendsAuthToken(t *testing.T) {
	var gotToken string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-auth-token")
		w.Write([]byte(`[]`))
	}))

	_, err := client.MyGroups(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotToken)
}

func TestClientOmitsAuthHeaderOnLogin(t *testing.T) {
	var hadHeader bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadHeader = r.Header["X-Auth-Token"]
		w.Write([]byte(`{"token":"fresh"}`))
	}))

	token, err := client.Login(context.Background(), "ali1", "p")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.False(t, hadHeader)
}

func TestClientErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, Unauthorized},
		{"not_found", http.StatusNotFound, NotFound},
		{"conflict", http.StatusConflict, Conflict},
		{"bad_request", http.StatusBadRequest, ValidationFailed},
		{"unprocessable", http.StatusUnprocessableEntity, ValidationFailed},
		{"server_error", http.StatusInternalServerError, ServerFailure},
		{"teapot", http.StatusTeapot, ServerFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, tt.status)
			}))

			_, err := client.MyGroups(context.Background(), "tok")
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "expected kind %s, got %v", tt.kind, err)
		})
	}
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listens anymore

	client := NewClient(server.URL, nil, testLogger(), nil)
	_, err := client.MyGroups(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsKind(err, NetworkFailure))
}

func TestClientReadsErrorMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"wrong password"}`, http.StatusUnauthorized)
	}))

	_, err := client.Login(context.Background(), "ali1", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")
	assert.True(t, IsUnauthorized(err))
}

func TestAddItemUnwrapsEnvelope(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Write([]byte(`{"item":{"_id":"i1","title":"Milk","isBought":false}}`))
	}))

	item, err := client.AddItem(context.Background(), "tok", "g1", "Milk")
	require.NoError(t, err)
	assert.Equal(t, "/items", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "i1", item.ID)
	assert.Equal(t, "Milk", item.Title)
	assert.False(t, item.IsBought)
}

func TestAddMemberUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/g1/members", r.URL.Path)
		w.Write([]byte(`{"member":{"_id":"u2","username":"bob","name":"Bob","status":"member"}}`))
	}))

	member, err := client.AddMember(context.Background(), "tok", "g1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", member.ID)
	assert.Equal(t, "bob", member.Username)
}

func TestToggleEndpointsDifferByMethod(t *testing.T) {
	var methods []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/i1/mark-as-bought", r.URL.Path)
		methods = append(methods, r.Method)
	}))

	require.NoError(t, client.MarkBought(context.Background(), "tok", "i1"))
	require.NoError(t, client.UnmarkBought(context.Background(), "tok", "i1"))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func TestSearchEscapesQuery(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`[]`))
	}))

	_, err := client.SearchGroups(context.Background(), "tok", "book club & more")
	require.NoError(t, err)
	assert.Equal(t, "book club & more", gotQuery)
}
