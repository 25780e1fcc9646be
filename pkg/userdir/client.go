package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// User is the directory's view of an account. A zero User with
// Degraded set means the directory could not be reached.
type User struct {
	ID       uuid.UUID
	Email    string
	Name     string
	OrgID    *uuid.UUID
	Degraded bool
}

// Client fetches users from the auth service's internal API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// ClientOption configures the directory client.
type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithClientLogger(log *slog.Logger) ClientOption {
	return func(cl *Client) {
		if log != nil {
			cl.log = log
		}
	}
}

// NewClient creates a directory client. Panics on an empty base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		panic("userdir: base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser looks up a user by id. Any failure (network, non-200 status,
// bad body) is logged and degrades to a zero-valued User; the caller
// never sees an error.
func (c *Client) GetUser(ctx context.Context, userID uuid.UUID) User {
	degraded := User{ID: userID, Degraded: true}

	endpoint, err := url.JoinPath(c.baseURL, "internal", "users", userID.String())
	if err != nil {
		c.log.ErrorContext(ctx, "user directory url", slog.Any("error", err))
		return degraded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "user directory request", slog.Any("error", err))
		return degraded
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "user directory unreachable, degrading",
			slog.Any("user_id", userID),
			slog.Any("error", err),
		)
		return degraded
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WarnContext(ctx, "user directory lookup failed, degrading",
			slog.Any("user_id", userID),
			slog.Any("error", fmt.Errorf("unexpected status %d", resp.StatusCode)),
		)
		return degraded
	}

	var body struct {
		ID    uuid.UUID  `json:"id"`
		Email string     `json:"email"`
		Name  string     `json:"name"`
		OrgID *uuid.UUID `json:"org_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.WarnContext(ctx, "user directory response decode failed, degrading",
			slog.Any("user_id", userID),
			slog.Any("error", err),
		)
		return degraded
	}

	return User{ID: body.ID, Email: body.Email, Name: body.Name, OrgID: body.OrgID}
}
