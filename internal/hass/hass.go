// Package hass reads entity states from the Home Assistant REST API.
package hass

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/HerbHall/labportal/internal/fetch"
)

// DefaultStatesPath is the REST endpoint listing entity states.
const DefaultStatesPath = "/api/states"

// ProxyPrefix is where the portal exposes Home Assistant to browsers. Badge
// sources written against the proxy are resolved back to the API.
const ProxyPrefix = "/ha"

// EntityState is the state object returned by GET /api/states/{entity_id}.
type EntityState struct {
	EntityID    string     `json:"entity_id"`
	State       string     `json:"state"`
	Attributes  Attributes `json:"attributes"`
	LastChanged string     `json:"last_changed,omitempty"`
	LastUpdated string     `json:"last_updated,omitempty"`
	Context     Context    `json:"context"`
}

type Attributes struct {
	FriendlyName      string `json:"friendly_name,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	Icon              string `json:"icon,omitempty"`
}

type Context struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	UserID   string `json:"user_id"`
}

// Client reads states with a long-lived access token.
type Client struct {
	http       *fetch.Client
	baseURL    string
	statesPath string
	token      string
}

// NewClient creates a Client for the instance at baseURL.
func NewClient(fc *fetch.Client, baseURL, statesPath, token string) *Client {
	if statesPath == "" {
		statesPath = DefaultStatesPath
	}
	return &Client{
		http:       fc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		statesPath: "/" + strings.Trim(statesPath, "/"),
		token:      token,
	}
}

// BaseURL returns the instance URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the access token.
func (c *Client) Token() string { return c.token }

// StateURL returns the state endpoint for entity with the id path-escaped.
func (c *Client) StateURL(entity string) string {
	return c.baseURL + c.statesPath + "/" + url.PathEscape(entity)
}

// GetState fetches the full state object of entity.
func (c *Client) GetState(ctx context.Context, entity string) (*EntityState, error) {
	return c.get(ctx, c.StateURL(entity))
}

// State returns the lower-cased state string of entity.
func (c *Client) State(ctx context.Context, entity string) (string, error) {
	st, err := c.GetState(ctx, entity)
	if err != nil {
		return "", err
	}
	return strings.ToLower(st.State), nil
}

// GetSource fetches a state by badge source: either a portal proxy path such
// as /ha/api/states/sensor.x or an absolute URL.
func (c *Client) GetSource(ctx context.Context, source string) (*EntityState, error) {
	target := source
	switch {
	case strings.HasPrefix(source, ProxyPrefix+"/"):
		target = c.baseURL + strings.TrimPrefix(source, ProxyPrefix)
	case strings.HasPrefix(source, "/"):
		target = c.baseURL + source
	}
	return c.get(ctx, target)
}

func (c *Client) get(ctx context.Context, target string) (*EntityState, error) {
	var st EntityState
	if err := c.http.GetJSON(ctx, target, &st, fetch.WithBearer(c.token)); err != nil {
		return nil, fmt.Errorf("home assistant state: %w", err)
	}
	return &st, nil
}

// Badge classes.
const (
	BadgeOK   = "ok"
	BadgeWarn = "warn"
	BadgeErr  = "err"
)

// BadgeClass maps a state to a badge class: on and ok are healthy, unknown
// is a warning, anything else is an error.
func BadgeClass(state string) string {
	switch state {
	case "on", "ok":
		return BadgeOK
	case "unknown":
		return BadgeWarn
	}
	return BadgeErr
}
