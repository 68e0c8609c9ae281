// Package tab keeps the in-memory registry of open browsing tabs and the
// single active-tab pointer.
//
// Tabs live in an arena keyed by UUID. The active tab is stored as a plain
// key and re-validated against the arena on every read. All operations are
// serialized by one RWMutex; every read returns a copy, so callers never
// hold references into the arena.
//
// An unknown id is an ordinary outcome: mutators return false and change
// nothing, lookups return (nil, false).
//
// When the active tab is closed the remaining tab accessed most recently
// becomes active. Access order comes from a per-manager sequence bumped on
// create, activate and navigate, so equal wall-clock timestamps cannot make
// the choice ambiguous. Closing the last tab leaves no active tab.
package tab
