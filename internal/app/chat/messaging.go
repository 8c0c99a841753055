package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// MessageRouter validates and routes room messages, direct messages and typing signals.
// Sender identity and room are always read from the presence table, never from the client payload.
type MessageRouter struct {
	presence *PresenceTable
	hub      *Hub
	store    message.Store
	logger   zerolog.Logger
}

// NewMessageRouter builds a router over the shared presence table and hub.
func NewMessageRouter(presence *PresenceTable, hub *Hub, store message.Store) *MessageRouter {
	return &MessageRouter{
		presence: presence,
		hub:      hub,
		store:    store,
		logger:   logx.Component("MessageRouter"),
	}
}

// SendRoomMessage persists body as a message in roomTag and then fans it out to every member,
// sender included. Nothing is broadcast if persistence fails.
func (r *MessageRouter) SendRoomMessage(ctx context.Context, connID, roomTag, body string) error {
	sender, ok := r.presence.Lookup(connID)
	if !ok {
		return errs.NewError(errs.ErrNotIdentified)
	}

	if !sender.InRoom() || string(sender.Room) != strings.TrimSpace(roomTag) {
		r.logger.Warn().
			Str("conn_id", connID).
			Str("claimed_room", roomTag).
			Str("tracked_room", string(sender.Room)).
			Msg("Room message rejected: connection is not in the claimed room.")
		return errs.NewError(errs.ErrNotInRoom)
	}

	text, err := message.NormalizeBody(body)
	if err != nil {
		return err
	}

	saved, err := r.store.AppendRoomMessage(ctx, string(sender.Room), sender.Username, text)
	if err != nil {
		r.logger.Error().Err(err).Str("conn_id", connID).Str("room", string(sender.Room)).Msg("Failed to persist room message.")
		return storeError(err)
	}

	recipients := r.hub.Broadcast(sender.Room, groupMessageEvent(saved), "")

	r.logger.Debug().
		Str("message_id", saved.ID).
		Str("room", saved.Room).
		Str("username", saved.Username).
		Int("recipients", recipients).
		Msg("Room message delivered.")
	return nil
}

// SendDirectMessage persists body from the connection's user to toUser, delivers it to the
// recipient's connection when one is online, and always echoes it back to the sender.
// There is no offline queue beyond the stored record.
func (r *MessageRouter) SendDirectMessage(ctx context.Context, connID, toUser, body string) error {
	sender, ok := r.presence.Lookup(connID)
	if !ok {
		return errs.NewError(errs.ErrNotIdentified)
	}

	recipient := strings.TrimSpace(toUser)
	if recipient == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	text, err := message.NormalizeBody(body)
	if err != nil {
		return err
	}

	saved, err := r.store.AppendDirectMessage(ctx, sender.Username, recipient, text)
	if err != nil {
		r.logger.Error().Err(err).Str("conn_id", connID).Str("to_user", recipient).Msg("Failed to persist direct message.")
		return storeError(err)
	}

	ev := privateMessageEvent(saved)

	online := false
	if recipientConn, found := r.presence.FindByUsername(recipient); found && recipientConn != connID {
		online = r.hub.SendTo(recipientConn, ev)
	}

	r.hub.SendTo(connID, ev)

	r.logger.Debug().
		Str("message_id", saved.ID).
		Str("from_user", saved.From).
		Str("to_user", saved.To).
		Bool("recipient_online", online).
		Msg("Direct message routed.")
	return nil
}

// SendTyping relays a typing signal to the other members of roomTag. It is never persisted and
// is dropped silently when the connection is not in that room.
func (r *MessageRouter) SendTyping(connID, roomTag string, isTyping bool) {
	sender, ok := r.presence.Lookup(connID)
	if !ok || !sender.InRoom() || string(sender.Room) != strings.TrimSpace(roomTag) {
		return
	}

	r.hub.Broadcast(sender.Room, typingEvent(sender.Username, isTyping), connID)
}
