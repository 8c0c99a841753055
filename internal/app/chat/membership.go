package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// MembershipRouter drives the per-connection state machine
// Unidentified -> Identified -> InRoom(room), and emits the join/leave notifications.
type MembershipRouter struct {
	presence *PresenceTable
	hub      *Hub
	store    message.Store

	// transition serializes the subscribe/unsubscribe + presence update pairs so that
	// the fan-out groups and the presence table change together.
	transition sync.Mutex

	now    func() time.Time
	logger zerolog.Logger
}

// NewMembershipRouter builds a router over the shared presence table and hub.
func NewMembershipRouter(presence *PresenceTable, hub *Hub, store message.Store) *MembershipRouter {
	return &MembershipRouter{
		presence: presence,
		hub:      hub,
		store:    store,
		now:      time.Now,
		logger:   logx.Component("MembershipRouter"),
	}
}

// Identify moves connID from Unidentified to Identified as username. Nothing is emitted.
func (r *MembershipRouter) Identify(connID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	r.presence.Identify(connID, username)
	r.logger.Info().Str("conn_id", connID).Str("username", username).Msg("Connection identified.")
	return nil
}

// JoinRoom moves connID into room, leaving its previous room first.
//
// The connection is subscribed before history is loaded, so every message is either part
// of the replayed history or arrives live afterwards. Live events are held by the hub until
// the history has been delivered. If history cannot be loaded the join is undone and the
// connection is left Identified.
func (r *MembershipRouter) JoinRoom(ctx context.Context, connID, roomTag string) error {
	room, err := ParseRoom(roomTag)
	if err != nil {
		return err
	}

	r.transition.Lock()

	current, ok := r.presence.Lookup(connID)
	if !ok {
		r.transition.Unlock()
		return errs.NewError(errs.ErrNotIdentified)
	}

	var left Room
	if current.InRoom() && current.Room != room {
		left = current.Room
		r.hub.Unsubscribe(connID, left)
		r.presence.SetRoom(connID, noRoom)
	}
	rejoin := current.Room == room

	if !r.hub.Subscribe(connID, room) {
		r.transition.Unlock()
		return errs.NewError(errs.ErrNotIdentified)
	}
	r.presence.SetRoom(connID, room)

	r.transition.Unlock()

	if left != noRoom {
		r.hub.Broadcast(left, userLeftEvent(current.Username, left, ReasonLeft, r.stamp()), connID)
	}

	if !rejoin {
		r.hub.Broadcast(room, userJoinedEvent(current.Username, room, r.stamp()), connID)
	}

	history, err := r.store.RecentRoomMessages(ctx, string(room), message.HistoryLimit)
	if err != nil {
		r.rollbackJoin(connID, current.Username, room, rejoin)
		r.logger.Error().Err(err).Str("conn_id", connID).Str("room", string(room)).Msg("Failed to load room history. Join undone.")
		return storeError(err)
	}

	replayed := make(map[string]struct{}, len(history))
	for _, m := range history {
		replayed[m.ID] = struct{}{}
	}
	r.hub.EndReplay(connID, roomHistoryEvent(history), replayed)

	r.logger.Info().
		Str("conn_id", connID).
		Str("username", current.Username).
		Str("room", string(room)).
		Int("history", len(history)).
		Msg("Connection joined room.")
	return nil
}

// rollbackJoin undoes a join whose history could not be loaded. user_joined has already gone
// out to the room, since it must precede the history, so the other members get a matching
// user_left with reason join_failed instead of being left with a phantom occupant.
func (r *MembershipRouter) rollbackJoin(connID, username string, room Room, rejoin bool) {
	r.transition.Lock()
	r.hub.Unsubscribe(connID, room)
	r.presence.SetRoom(connID, noRoom)
	r.transition.Unlock()

	reason := ReasonJoinFailed
	if rejoin {
		reason = ReasonLeft
	}
	r.hub.Broadcast(room, userLeftEvent(username, room, reason, r.stamp()), connID)
}

// LeaveRoom moves connID from InRoom(room) back to Identified and notifies the remaining members.
func (r *MembershipRouter) LeaveRoom(connID, roomTag string) error {
	room, err := ParseRoom(roomTag)
	if err != nil {
		return err
	}

	r.transition.Lock()

	current, ok := r.presence.Lookup(connID)
	if !ok {
		r.transition.Unlock()
		return errs.NewError(errs.ErrNotIdentified)
	}
	if current.Room != room {
		r.transition.Unlock()
		return errs.NewError(errs.ErrNotInRoom)
	}

	r.hub.Unsubscribe(connID, room)
	r.presence.SetRoom(connID, noRoom)

	r.transition.Unlock()

	r.hub.Broadcast(room, userLeftEvent(current.Username, room, ReasonLeft, r.stamp()), connID)

	r.logger.Info().Str("conn_id", connID).Str("username", current.Username).Str("room", string(room)).Msg("Connection left room.")
	return nil
}

// Disconnect tears down connID from any state. A connection that was in a room produces
// exactly one user_left; repeated calls do nothing.
func (r *MembershipRouter) Disconnect(connID string) {
	r.transition.Lock()

	current, ok := r.presence.Lookup(connID)
	if ok && current.InRoom() {
		r.hub.Unsubscribe(connID, current.Room)
	}
	r.presence.Remove(connID)
	r.hub.Unregister(connID)

	r.transition.Unlock()

	if !ok {
		return
	}

	if current.InRoom() {
		r.hub.Broadcast(current.Room, userLeftEvent(current.Username, current.Room, ReasonDisconnected, r.stamp()), connID)
	}

	r.logger.Info().Str("conn_id", connID).Str("username", current.Username).Str("room", string(current.Room)).Msg("Connection disconnected.")
}

func (r *MembershipRouter) stamp() time.Time {
	return r.now().UTC()
}

// storeError classifies a failure returned by the message store.
func storeError(err error) error {
	if errs.HasCode(err, errs.ErrStoreUnavailable) {
		return err
	}
	return errs.Wrap(errs.ErrStoreUnavailable, err)
}
