/*
Package chat contains the core logic for real-time chat: presence tracking, room membership,
message routing and the websocket transport that carries events to and from clients.

This file defines the Manager struct, which owns the shared presence table and hub, wires the
two routers over them, and dispatches every inbound client event to the right handler.
*/
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// eventTimeout bounds the store work done for a single inbound event.
const eventTimeout = 5 * time.Second

// Manager coordinates all connections of the process.
type Manager struct {
	// presence is the shared connection -> {user, room} table.
	presence *PresenceTable

	// hub holds the outbound sinks and room fan-out groups.
	hub *Hub

	// Membership handles identify/join/leave/disconnect.
	Membership *MembershipRouter

	// Messages handles room messages, direct messages and typing.
	Messages *MessageRouter

	// store is the durable message log.
	store message.Store

	// ctx is canceled by Shutdown and parents every event context.
	ctx    context.Context
	cancel context.CancelFunc

	shutdownOnce sync.Once

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs a Manager over the given message store.
func NewManager(store message.Store) *Manager {
	presence := NewPresenceTable()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		presence:   presence,
		hub:        h,
		Membership: NewMembershipRouter(presence, h, store),
		Messages:   NewMessageRouter(presence, h, store),
		store:      store,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logx.Component("Manager"),
	}
}

// Presence exposes the shared presence table.
func (m *Manager) Presence() *PresenceTable {
	return m.presence
}

// Hub exposes the shared hub.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// Connect registers the sink of a newly opened connection in the Unidentified state.
func (m *Manager) Connect(connID string, sink Sink) {
	m.hub.Register(connID, sink)
}

// Disconnect cleans up connID from whatever state it reached.
func (m *Manager) Disconnect(connID string) {
	m.Membership.Disconnect(connID)
}

// RoomHistory returns the most recent messages of roomTag, oldest first.
func (m *Manager) RoomHistory(ctx context.Context, roomTag string) ([]message.RoomMessage, error) {
	room, err := ParseRoom(roomTag)
	if err != nil {
		return nil, err
	}

	msgs, err := m.store.RecentRoomMessages(ctx, string(room), message.HistoryLimit)
	if err != nil {
		return nil, storeError(err)
	}
	return msgs, nil
}

// DirectHistory returns the most recent direct messages exchanged by username and peer, oldest first.
func (m *Manager) DirectHistory(ctx context.Context, username, peer string) ([]message.DirectMessage, error) {
	peer = strings.TrimSpace(peer)
	if peer == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	msgs, err := m.store.DirectMessagesBetween(ctx, username, peer, message.HistoryLimit)
	if err != nil {
		return nil, storeError(err)
	}
	return msgs, nil
}

// MarkDirectMessageRead sets the read flag of message id on behalf of its recipient.
// It reports whether a message addressed to recipient was found.
func (m *Manager) MarkDirectMessageRead(ctx context.Context, id, recipient string) (bool, error) {
	updated, err := m.store.MarkDirectMessageRead(ctx, id, recipient)
	if err != nil {
		return false, storeError(err)
	}
	return updated, nil
}

// HandleFrame decodes one inbound frame from connID and routes it.
// authUser is the username the transport authenticated for the connection; user_connected
// must name the same user. Failures are reported to connID as an error event.
func (m *Manager) HandleFrame(connID, authUser string, frame []byte) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		m.logger.Warn().Err(err).Str("conn_id", connID).Msg("Client sent invalid JSON.")
		m.reportError(connID, errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, eventTimeout)
	defer cancel()

	if err := m.dispatch(ctx, connID, authUser, in); err != nil {
		m.reportError(connID, err)
	}
}

func (m *Manager) dispatch(ctx context.Context, connID, authUser string, in inboundFrame) error {
	switch in.Type {
	case TypeUserConnected:
		var p UserConnectedInput
		// Older clients send the bare username string as the payload. A missing payload
		// identifies the authenticated user.
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p.Username); err != nil {
				if err := decodePayload(in.Payload, &p); err != nil {
					return err
				}
			}
		}
		username := strings.TrimSpace(p.Username)
		if username == "" {
			username = authUser
		}
		if authUser != "" && username != authUser {
			return errs.NewError(errs.ErrIdentityMismatch)
		}
		return m.Membership.Identify(connID, username)

	case TypeJoinRoom:
		var p RoomInput
		if err := decodePayload(in.Payload, &p); err != nil {
			return err
		}
		return m.Membership.JoinRoom(ctx, connID, p.Room)

	case TypeLeaveRoom:
		var p RoomInput
		if err := decodePayload(in.Payload, &p); err != nil {
			return err
		}
		return m.Membership.LeaveRoom(connID, p.Room)

	case TypeGroupMessage:
		var p GroupMessageInput
		if err := decodePayload(in.Payload, &p); err != nil {
			return err
		}
		return m.Messages.SendRoomMessage(ctx, connID, p.Room, p.Message)

	case TypePrivateMessage:
		var p PrivateMessageInput
		if err := decodePayload(in.Payload, &p); err != nil {
			return err
		}
		return m.Messages.SendDirectMessage(ctx, connID, p.ToUser, p.Message)

	case TypeTyping:
		var p TypingInput
		if err := decodePayload(in.Payload, &p); err != nil {
			return nil
		}
		m.Messages.SendTyping(connID, p.Room, p.IsTyping)
		return nil

	default:
		m.logger.Warn().Str("conn_id", connID).Str("event_type", string(in.Type)).Msg("Client sent unsupported event type.")
		return errs.NewError(errs.ErrUnsupportedEvent)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// reportError sends err to connID as an error event.
func (m *Manager) reportError(connID string, err error) {
	customErr := errs.From(err)

	event := m.logger.Debug()
	if customErr.Code >= errs.ErrUnknown {
		event = m.logger.Error().Err(err)
	}
	event.Str("conn_id", connID).Int("code", customErr.Code).Msg("Reporting error to client.")

	m.hub.SendTo(connID, errorEvent(customErr))
}

// Shutdown cancels in-flight event work and closes every connection.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.logger.Info().Msg("Shutting down Manager...")
		m.cancel()
		m.hub.CloseAll()
		m.logger.Info().Msg("Manager shutdown complete.")
	})
}
