package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplistbot/internal/metrics"
	"github.com/Kerhoff/shoplistbot/internal/models"
)

// authHeader is the header the shopping-list service reads the bearer
// token from.
const authHeader = "x-auth-token"

// Client talks to the remote shopping-list REST service. Every method is a
// single attempt: no retries, no caching. Mutating calls are not idempotent
// at this layer; duplicate-submission protection belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewClient creates a client for the service at baseURL. httpClient may be
// nil, in which case http.DefaultClient is used; metrics may be nil.
func NewClient(baseURL string, httpClient *http.Client, logger *logrus.Logger, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
		metrics: m,
	}
}

// errorBody is the shape the service uses for error messages.
type errorBody struct {
	Message string `json:"message"`
}

// do issues one request and decodes a 2xx JSON body into out (when out is
// non-nil). token may be empty for the unauthenticated endpoints. Any
// failure comes back as an *Error.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	requestID := uuid.New().String()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(authHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, "network_failure", start, requestID, 0)
		return &Error{Kind: NetworkFailure, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		c.observe(op, kind.String(), start, requestID, resp.StatusCode)
		return &Error{Kind: kind, Status: resp.StatusCode, Detail: readErrorDetail(resp.Body)}
	}

	c.observe(op, "ok", start, requestID, resp.StatusCode)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: ServerFailure, Status: resp.StatusCode,
			Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func (c *Client) observe(op, outcome string, start time.Time, requestID string, status int) {
	elapsed := time.Since(start)
	c.metrics.ObserveAPIRequest(op, outcome, elapsed)
	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"operation":  op,
		"outcome":    outcome,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Debug("Remote API call")
}

// readErrorDetail pulls the service's {"message": ...} out of an error
// response, falling back to the raw body.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
		return eb.Message
	}
	return strings.TrimSpace(string(raw))
}

// ---------------------------------------------------------------------------
// Auth & account
// ---------------------------------------------------------------------------

// Register creates an account. It does not log in; callers follow up with
// Login using the same credentials.
func (c *Client) Register(ctx context.Context, name, username, password string) error {
	payload := map[string]string{"name": name, "username": username, "password": password}
	return c.do(ctx, "register", http.MethodPost, "/users", "", payload, nil)
}

// Login exchanges credentials for an opaque bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/auth", "", payload, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Profile fetches the authenticated user's own record.
func (c *Client) Profile(ctx context.Context, token string) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, "profile", http.MethodGet, "/auth", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the authenticated user's account. What happens to
// groups the account owns is the service's concern; the client only tears
// its session down afterwards.
func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	return c.do(ctx, "delete_account", http.MethodDelete, "/users", token, nil, nil)
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// MyGroups lists the groups the user is a member of.
func (c *Client) MyGroups(ctx context.Context, token string) ([]models.Group, error) {
	var out []models.Group
	if err := c.do(ctx, "my_groups", http.MethodGet, "/groups", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchGroups searches all groups by name.
func (c *Client) SearchGroups(ctx context.Context, token, query string) ([]models.Group, error) {
	var out []models.Group
	path := "/groups/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, "search_groups", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGroup creates a password-protected group and returns the server's
// record of it.
func (c *Client) CreateGroup(ctx context.Context, token, name, password string) (*models.Group, error) {
	payload := map[string]string{"name": name, "password": password}
	var out models.Group
	if err := c.do(ctx, "create_group", http.MethodPost, "/groups", token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinGroup joins a group by id using its password.
func (c *Client) JoinGroup(ctx context.Context, token, groupID, password string) (*models.Group, error) {
	payload := map[string]string{"password": password}
	var out models.Group
	path := "/groups/" + url.PathEscape(groupID) + "/join"
	if err := c.do(ctx, "join_group", http.MethodPost, path, token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveGroup removes the authenticated user from a group.
func (c *Client) LeaveGroup(ctx context.Context, token, groupID string) error {
	path := "/groups/" + url.PathEscape(groupID) + "/leave"
	return c.do(ctx, "leave_group", http.MethodPost, path, token, nil, nil)
}

// DeleteGroup deletes a group. The service only permits this for the owner.
func (c *Client) DeleteGroup(ctx context.Context, token, groupID string) error {
	return c.do(ctx, "delete_group", http.MethodDelete, "/groups/"+url.PathEscape(groupID), token, nil, nil)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// SearchUsers searches users by name or username.
func (c *Client) SearchUsers(ctx context.Context, token, query string) ([]models.Member, error) {
	var out []models.Member
	path := "/users/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, "search_users", http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember adds a user to a group and returns the new membership record.
func (c *Client) AddMember(ctx context.Context, token, groupID, userID string) (*models.Member, error) {
	payload := map[string]string{"userId": userID}
	var out struct {
		Member models.Member `json:"member"`
	}
	path := "/groups/" + url.PathEscape(groupID) + "/members"
	if err := c.do(ctx, "add_member", http.MethodPost, path, token, payload, &out); err != nil {
		return nil, err
	}
	return &out.Member, nil
}

// RemoveMember removes a member from a group.
func (c *Client) RemoveMember(ctx context.Context, token, groupID, memberID string) error {
	path := "/groups/" + url.PathEscape(groupID) + "/members/" + url.PathEscape(memberID)
	return c.do(ctx, "remove_member", http.MethodDelete, path, token, nil, nil)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// AddItem creates an item in a group and returns the server's record of it.
func (c *Client) AddItem(ctx context.Context, token, groupID, title string) (*models.Item, error) {
	payload := map[string]string{"title": title, "groupId": groupID}
	var out struct {
		Item models.Item `json:"item"`
	}
	if err := c.do(ctx, "add_item", http.MethodPost, "/items", token, payload, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, token, itemID string) error {
	return c.do(ctx, "delete_item", http.MethodDelete, "/items/"+url.PathEscape(itemID), token, nil, nil)
}

// MarkBought marks an item as bought. The caller picks the direction from
// its current local state so a redundant transition is never sent.
func (c *Client) MarkBought(ctx context.Context, token, itemID string) error {
	path := "/items/" + url.PathEscape(itemID) + "/mark-as-bought"
	return c.do(ctx, "mark_bought", http.MethodPost, path, token, nil, nil)
}

// UnmarkBought reverts an item to unbought.
func (c *Client) UnmarkBought(ctx context.Context, token, itemID string) error {
	path := "/items/" + url.PathEscape(itemID) + "/mark-as-bought"
	return c.do(ctx, "unmark_bought", http.MethodDelete, path, token, nil, nil)
}
