package tab

import "time"

// DefaultTitle is used when a tab is created without a title.
const DefaultTitle = "New Tab"

// Tab is one navigable browsing context.
type Tab struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Favicon      *string   `json:"favicon,omitempty"`
	IsLoading    bool      `json:"is_loading"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	History      []string  `json:"history"`
}

func (t *Tab) clone() *Tab {
	c := *t
	c.History = append([]string(nil), t.History...)
	if t.Favicon != nil {
		f := *t.Favicon
		c.Favicon = &f
	}
	return &c
}

// Stats summarizes the registry.
type Stats struct {
	TotalTabs   int    `json:"total_tabs"`
	LoadingTabs int    `json:"loading_tabs"`
	ActiveTabID string `json:"active_tab_id,omitempty"`
}

// EventType names a registry change.
type EventType string

const (
	EventCreated   EventType = "tab_created"
	EventClosed    EventType = "tab_closed"
	EventActivated EventType = "tab_activated"
	EventNavigated EventType = "tab_navigated"
	EventUpdated   EventType = "tab_updated"
)

// Event describes one change. Tab is a snapshot taken under the lock; it is
// nil for EventClosed. ActiveTabID is the active tab after the change.
type Event struct {
	Type        EventType `json:"type"`
	TabID       string    `json:"tab_id"`
	Tab         *Tab      `json:"tab,omitempty"`
	ActiveTabID string    `json:"active_tab_id,omitempty"`
}

// Listener receives events after the registry lock is released.
type Listener func(Event)
