/*
Package chat contains the core logic for real-time chat: presence tracking, room membership,
message routing and the websocket transport that carries events to and from clients.

This file defines the Hub, which holds the outbound sink of every open connection and the
per-room fan-out groups. Routers deliver events only through the Hub.
*/
package chat

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"roomchat/internal/pkg/logx"
)

// maxPendingEvents bounds the live events held for a connection while its history replay is in flight.
const maxPendingEvents = 256

// Sink is the outbound half of a connection.
type Sink interface {
	// Send queues ev for delivery without blocking. It returns false if the event was dropped.
	Send(ev Event) bool

	// Close terminates the connection. It must be safe to call more than once.
	Close()
}

// member is a registered connection and its fan-out state.
type member struct {
	sink Sink

	// room is the fan-out group the connection is subscribed to, or noRoom.
	room Room

	// replaying is set between Subscribe and EndReplay. Live events are held in pending meanwhile.
	replaying bool
	pending   []Event
}

// Hub tracks open connections and the fan-out group of every room.
type Hub struct {
	// mu protects members and groups. Sinks are non-blocking, so delivery happens under mu,
	// which keeps per-connection ordering identical to the order events were issued.
	mu sync.Mutex

	// members is keyed by connection id.
	members map[string]*member

	// groups maps a room to the set of subscribed connection ids.
	groups map[Room]map[string]struct{}

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		members: make(map[string]*member),
		groups:  make(map[Room]map[string]struct{}),
		logger:  logx.Component("Hub"),
	}
}

// Register adds the sink of a newly opened connection.
func (h *Hub) Register(connID string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.members[connID]; ok {
		h.logger.Warn().Str("conn_id", connID).Msg("Connection id registered twice. Replacing sink.")
		h.leaveGroupLocked(connID, existing)
	}

	h.members[connID] = &member{sink: sink}
	h.logger.Debug().Str("conn_id", connID).Int("connections", len(h.members)).Msg("Connection registered.")
}

// Unregister removes a connection and its group subscription. Unknown ids are ignored.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok {
		return
	}

	h.leaveGroupLocked(connID, m)
	delete(h.members, connID)
	h.logger.Debug().Str("conn_id", connID).Int("connections", len(h.members)).Msg("Connection unregistered.")
}

// Subscribe moves connID into the fan-out group of room and starts holding its live events
// until EndReplay. It returns false for an unregistered connection.
func (h *Hub) Subscribe(connID string, room Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok {
		return false
	}

	if m.room != room {
		h.leaveGroupLocked(connID, m)

		group, ok := h.groups[room]
		if !ok {
			group = make(map[string]struct{})
			h.groups[room] = group
		}
		group[connID] = struct{}{}
		m.room = room
	}

	m.replaying = true
	m.pending = nil
	return true
}

// Unsubscribe removes connID from the fan-out group of room and discards any held events.
func (h *Hub) Unsubscribe(connID string, room Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok || m.room != room {
		return
	}

	h.leaveGroupLocked(connID, m)
}

func (h *Hub) leaveGroupLocked(connID string, m *member) {
	if m.room != noRoom {
		if group, ok := h.groups[m.room]; ok {
			delete(group, connID)
			if len(group) == 0 {
				delete(h.groups, m.room)
			}
		}
	}

	m.room = noRoom
	m.replaying = false
	m.pending = nil
}

// EndReplay delivers history to connID and then the live events held since Subscribe,
// skipping messages whose ids are in replayed.
func (h *Hub) EndReplay(connID string, history Event, replayed map[string]struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok {
		return
	}

	h.deliverLocked(connID, m, history)

	for _, ev := range m.pending {
		if ev.messageID != "" {
			if _, dup := replayed[ev.messageID]; dup {
				continue
			}
		}
		h.deliverLocked(connID, m, ev)
	}

	m.replaying = false
	m.pending = nil
}

// Broadcast delivers ev to every connection in room except exceptConnID (empty to include all).
// It returns the number of connections that accepted or held the event.
func (h *Hub) Broadcast(room Room, ev Event, exceptConnID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for connID := range h.groups[room] {
		if connID == exceptConnID {
			continue
		}

		if h.deliverOrHoldLocked(connID, h.members[connID], ev) {
			delivered++
		}
	}

	return delivered
}

// SendTo delivers ev to a single connection. While the connection is replaying history, live
// events are held like room traffic; error events go out immediately.
func (h *Hub) SendTo(connID string, ev Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.members[connID]
	if !ok {
		return false
	}
	if ev.Type == TypeError {
		return h.deliverLocked(connID, m, ev)
	}
	return h.deliverOrHoldLocked(connID, m, ev)
}

func (h *Hub) deliverOrHoldLocked(connID string, m *member, ev Event) bool {
	if !m.replaying {
		return h.deliverLocked(connID, m, ev)
	}

	if len(m.pending) >= maxPendingEvents {
		h.logger.Warn().Str("conn_id", connID).Str("room", string(m.room)).Msg("Replay backlog full. Dropping live event.")
		return false
	}
	m.pending = append(m.pending, ev)
	return true
}

func (h *Hub) deliverLocked(connID string, m *member, ev Event) bool {
	if m.sink.Send(ev) {
		return true
	}

	h.logger.Warn().
		Str("conn_id", connID).
		Str("event_type", string(ev.Type)).
		Msg("Sink rejected event. Dropping it.")
	return false
}

// Members returns the sorted connection ids subscribed to room.
func (h *Hub) Members(room Room) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.groups[room]))
	for connID := range h.groups[room] {
		ids = append(ids, connID)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.members)
}

// CloseAll closes every registered sink. Connections unregister themselves as they wind down.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sinks := make([]Sink, 0, len(h.members))
	for _, m := range h.members {
		sinks = append(sinks, m.sink)
	}
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}

	h.logger.Info().Int("closed", len(sinks)).Msg("Closed all connections.")
}
