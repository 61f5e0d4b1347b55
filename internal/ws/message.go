package ws

import (
	"time"

	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/theme"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageThemeChanged    MessageType = "theme.changed"
	MessagePresenceChanged MessageType = "presence.changed"
	MessageConfigLoaded    MessageType = "config.loaded"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// ThemeData is the payload for theme.changed messages.
type ThemeData = theme.Change

// PresenceData is the payload for presence.changed messages.
type PresenceData = poller.Presence

// ConfigLoadedData is the payload for config.loaded messages. Clients
// re-fetch /api/v1/portal/config when they need the document itself.
type ConfigLoadedData struct {
	Title    string `json:"title,omitempty"`
	Sections int    `json:"sections"`
	Widgets  int    `json:"widgets"`
}
