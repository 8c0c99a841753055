package chat

import (
	"sort"
	"sync"
)

// Presence is the snapshot of one connection's identity and location.
type Presence struct {
	// Username is the authenticated user the connection belongs to.
	Username string

	// Room is the room the connection currently occupies, or empty when in none.
	Room Room
}

// InRoom reports whether the connection occupies a room.
func (p Presence) InRoom() bool {
	return p.Room != noRoom
}

type presenceEntry struct {
	Presence

	// seq orders identifications; the highest seq wins username lookups.
	seq uint64
}

// PresenceTable maps connection ids to their user and current room.
// It is the single source of truth for who is where. Every method is atomic.
//
// Several connections may identify as the same user. FindByUsername then resolves to the
// most recently identified one; earlier connections stop receiving direct messages until
// the newer one goes away. This is a known limitation of direct message routing.
type PresenceTable struct {
	mu sync.RWMutex

	// entries is keyed by connection id.
	entries map[string]*presenceEntry

	// latest maps a username to the connection id that identified last.
	latest map[string]string

	seq uint64
}

// NewPresenceTable returns an empty table.
func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		entries: make(map[string]*presenceEntry),
		latest:  make(map[string]string),
	}
}

// Identify records username for connID. Calling it again overwrites the username and keeps the room.
func (t *PresenceTable) Identify(connID, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++

	entry, ok := t.entries[connID]
	if !ok {
		entry = &presenceEntry{}
		t.entries[connID] = entry
	}

	previous := entry.Username
	entry.Username = username
	entry.seq = t.seq
	t.latest[username] = connID

	if previous != "" && previous != username && t.latest[previous] == connID {
		t.electLocked(previous)
	}
}

// SetRoom updates the room of connID. Unknown connections are ignored.
func (t *PresenceTable) SetRoom(connID string, room Room) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.entries[connID]; ok {
		entry.Room = room
	}
}

// Lookup returns the presence of connID.
func (t *PresenceTable) Lookup(connID string) (Presence, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[connID]
	if !ok {
		return Presence{}, false
	}
	return entry.Presence, true
}

// FindByUsername returns the connection most recently identified as username.
func (t *PresenceTable) FindByUsername(username string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	connID, ok := t.latest[username]
	return connID, ok
}

// Remove deletes connID. Removing an unknown connection is a no-op.
func (t *PresenceTable) Remove(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[connID]
	if !ok {
		return
	}

	delete(t.entries, connID)

	if t.latest[entry.Username] == connID {
		t.electLocked(entry.Username)
	}
}

// electLocked points username at its most recently identified remaining connection.
func (t *PresenceTable) electLocked(username string) {
	var (
		best    string
		bestSeq uint64
	)

	for connID, entry := range t.entries {
		if entry.Username == username && entry.seq > bestSeq {
			best, bestSeq = connID, entry.seq
		}
	}

	if best == "" {
		delete(t.latest, username)
		return
	}
	t.latest[username] = best
}

// Occupants returns the sorted usernames of connections in room.
func (t *PresenceTable) Occupants(room Room) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0)
	for _, entry := range t.entries {
		if entry.Room == room {
			names = append(names, entry.Username)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tracked connections.
func (t *PresenceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}
