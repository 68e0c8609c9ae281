package tab

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
)

type entry struct {
	tab      *Tab
	created  uint64
	accessed uint64
}

// Manager owns the tab arena and the active key.
type Manager struct {
	mu     sync.RWMutex
	tabs   map[string]*entry // Protected by mu
	active string            // Protected by mu; "" when unset
	seq    uint64            // Protected by mu

	listenersMu sync.RWMutex
	listeners   []Listener

	// Events are delivered in ticket order, which is mutation order.
	nextTicket uint64 // Protected by mu
	emitMu     sync.Mutex
	emitCond   *sync.Cond
	serving    uint64 // Protected by emitMu

	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	m := &Manager{
		tabs: make(map[string]*entry),
		now:  time.Now,
	}
	m.emitCond = sync.NewCond(&m.emitMu)
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// OnChange registers a listener for registry events. Listeners run one at a
// time in the order the changes were applied. They may read the manager but
// must not mutate it.
func (m *Manager) OnChange(l Listener) {
	m.listenersMu.Lock()
	m.listeners = append(m.listeners, l)
	m.listenersMu.Unlock()
}

// CreateTab inserts a tab with history [url] and makes it active. An empty
// title becomes DefaultTitle.
func (m *Manager) CreateTab(url, title string) string {
	if title == "" {
		title = DefaultTitle
	}
	now := m.now()

	t := &Tab{
		ID:           uuid.New().String(),
		URL:          url,
		Title:        title,
		CreatedAt:    now,
		LastAccessed: now,
		History:      []string{url},
	}

	m.mu.Lock()
	m.seq++
	m.tabs[t.ID] = &entry{tab: t, created: m.seq, accessed: m.seq}
	m.active = t.ID
	if m.metrics != nil {
		m.metrics.IncTabsCreated()
		m.metrics.SetTabsOpen(len(m.tabs))
	}
	ev := Event{Type: EventCreated, TabID: t.ID, Tab: t.clone(), ActiveTabID: m.active}
	m.unlockAndEmit(ev)

	return t.ID
}

// GetTab returns a copy of the tab.
func (m *Manager) GetTab(id string) (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.tabs[id]
	if !ok {
		return nil, false
	}
	return e.tab.clone(), true
}

// UpdateTab runs fn on a copy of the tab under the write lock. Only Title,
// Favicon and IsLoading are written back; identity, URL, history and
// timestamps cannot be changed this way.
func (m *Manager) UpdateTab(id string, fn func(*Tab)) bool {
	ev, ticket, ok := m.applyUpdate(id, fn)
	if !ok {
		return false
	}
	m.emit(ticket, ev)
	return true
}

func (m *Manager) applyUpdate(id string, fn func(*Tab)) (Event, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tabs[id]
	if !ok {
		return Event{}, 0, false
	}

	scratch := e.tab.clone()
	fn(scratch)

	e.tab.Title = scratch.Title
	e.tab.Favicon = scratch.Favicon
	e.tab.IsLoading = scratch.IsLoading
	ev := Event{Type: EventUpdated, TabID: id, Tab: e.tab.clone(), ActiveTabID: m.active}
	return ev, m.ticketLocked(), true
}

// CloseTab removes the tab. If it was active, the most recently accessed
// remaining tab becomes active, or none if the arena is empty.
func (m *Manager) CloseTab(id string) bool {
	m.mu.Lock()
	if _, ok := m.tabs[id]; !ok {
		m.mu.Unlock()
		return false
	}

	delete(m.tabs, id)
	if m.active == id {
		m.active = m.mostRecentLocked()
	}
	if m.metrics != nil {
		m.metrics.SetTabsOpen(len(m.tabs))
	}
	m.unlockAndEmit(Event{Type: EventClosed, TabID: id, ActiveTabID: m.active})
	return true
}

// SetActiveTab makes id active and bumps its access time.
func (m *Manager) SetActiveTab(id string) bool {
	m.mu.Lock()
	e, ok := m.tabs[id]
	if !ok {
		m.mu.Unlock()
		return false
	}

	m.touchLocked(e)
	m.active = id
	m.unlockAndEmit(Event{Type: EventActivated, TabID: id, Tab: e.tab.clone(), ActiveTabID: id})
	return true
}

// GetActiveTab returns a copy of the active tab, if any.
func (m *Manager) GetActiveTab() (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.tabs[m.active]
	if !ok {
		return nil, false
	}
	return e.tab.clone(), true
}

// ActiveTabID returns the active key, if it references a live tab.
func (m *Manager) ActiveTabID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.tabs[m.active]; !ok {
		return "", false
	}
	return m.active, true
}

// GetAllTabs returns copies of every tab in creation order.
func (m *Manager) GetAllTabs() []*Tab {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.tabs))
	for _, e := range m.tabs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].created < entries[j].created
	})

	tabs := make([]*Tab, len(entries))
	for i, e := range entries {
		tabs[i] = e.tab.clone()
	}
	m.mu.RUnlock()

	return tabs
}

// NavigateTab appends url to the history, makes it current and marks the
// tab loading.
func (m *Manager) NavigateTab(id, url string) bool {
	m.mu.Lock()
	e, ok := m.tabs[id]
	if !ok {
		m.mu.Unlock()
		return false
	}

	e.tab.History = append(e.tab.History, url)
	e.tab.URL = url
	e.tab.IsLoading = true
	m.touchLocked(e)
	m.unlockAndEmit(Event{Type: EventNavigated, TabID: id, Tab: e.tab.clone(), ActiveTabID: m.active})
	return true
}

// UpdateTabTitle sets the display title.
func (m *Manager) UpdateTabTitle(id, title string) bool {
	return m.UpdateTab(id, func(t *Tab) { t.Title = title })
}

// SetTabLoading sets the loading flag.
func (m *Manager) SetTabLoading(id string, loading bool) bool {
	return m.UpdateTab(id, func(t *Tab) { t.IsLoading = loading })
}

// SetTabFavicon sets the favicon reference; an empty string clears it.
func (m *Manager) SetTabFavicon(id, favicon string) bool {
	return m.UpdateTab(id, func(t *Tab) {
		if favicon == "" {
			t.Favicon = nil
			return
		}
		t.Favicon = &favicon
	})
}

// Stats returns registry statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{TotalTabs: len(m.tabs)}
	for _, e := range m.tabs {
		if e.tab.IsLoading {
			stats.LoadingTabs++
		}
	}
	if _, ok := m.tabs[m.active]; ok {
		stats.ActiveTabID = m.active
	}
	return stats
}

func (m *Manager) touchLocked(e *entry) {
	m.seq++
	e.accessed = m.seq
	e.tab.LastAccessed = m.now()
}

func (m *Manager) mostRecentLocked() string {
	var (
		best     string
		bestSeen uint64
	)
	for id, e := range m.tabs {
		if e.accessed > bestSeen {
			best, bestSeen = id, e.accessed
		}
	}
	return best
}

func (m *Manager) ticketLocked() uint64 {
	t := m.nextTicket
	m.nextTicket++
	return t
}

// unlockAndEmit must be called with mu held.
func (m *Manager) unlockAndEmit(ev Event) {
	ticket := m.ticketLocked()
	m.mu.Unlock()
	m.emit(ticket, ev)
}

func (m *Manager) emit(ticket uint64, ev Event) {
	m.emitMu.Lock()
	for m.serving != ticket {
		m.emitCond.Wait()
	}
	m.emitMu.Unlock()

	defer func() {
		m.emitMu.Lock()
		m.serving++
		m.emitCond.Broadcast()
		m.emitMu.Unlock()
	}()

	m.listenersMu.RLock()
	listeners := m.listeners
	m.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
