/*
Package chat contains the core logic for real-time chat: presence tracking, room membership,
message routing and the websocket transport that carries events to and from clients.

This file defines the event envelope and payloads exchanged over a connection.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
)

// EventType names an inbound or outbound event.
type EventType string

// Inbound event types, sent by clients.
const (
	TypeUserConnected EventType = "user_connected"
	TypeJoinRoom      EventType = "join_room"
	TypeLeaveRoom     EventType = "leave_room"
	TypeTyping        EventType = "typing"
)

// Event types used in both directions.
const (
	TypeGroupMessage   EventType = "group_message"
	TypePrivateMessage EventType = "private_message"
)

// Outbound event types, sent by the server.
const (
	TypeUserJoined  EventType = "user_joined"
	TypeUserLeft    EventType = "user_left"
	TypeRoomHistory EventType = "room_history"
	TypeUserTyping  EventType = "user_typing"
	TypeError       EventType = "error"
)

// Reasons carried by user_left.
const (
	ReasonLeft         = "left"
	ReasonDisconnected = "disconnected"
	ReasonJoinFailed   = "join_failed"
)

// Event is the envelope written to a client.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`

	// messageID identifies the persisted message carried by a group_message event.
	// It lets a history replay skip live copies of messages it already contains.
	messageID string
}

// inboundFrame is the envelope read from a client.
type inboundFrame struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserConnectedInput is the payload of user_connected.
type UserConnectedInput struct {
	Username string `json:"username"`
}

// RoomInput is the payload of join_room and leave_room. Username is informational;
// the server uses the identity recorded for the connection.
type RoomInput struct {
	Username string `json:"username,omitempty"`
	Room     string `json:"room"`
}

// GroupMessageInput is the payload of an inbound group_message.
type GroupMessageInput struct {
	Username string `json:"username,omitempty"`
	Room     string `json:"room"`
	Message  string `json:"message"`
}

// PrivateMessageInput is the payload of an inbound private_message.
type PrivateMessageInput struct {
	FromUser string `json:"from_user,omitempty"`
	ToUser   string `json:"to_user"`
	Message  string `json:"message"`
}

// TypingInput is the payload of typing.
type TypingInput struct {
	Username string `json:"username,omitempty"`
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

// PresenceNotice is the payload of user_joined and user_left.
type PresenceNotice struct {
	Username  string    `json:"username"`
	Room      Room      `json:"room"`
	Message   string    `json:"message"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one replayed message inside room_history.
type HistoryEntry struct {
	ID       string    `json:"id"`
	FromUser string    `json:"from_user"`
	Message  string    `json:"message"`
	DateSent time.Time `json:"date_sent"`
	Room     string    `json:"room"`
}

// GroupMessageOutput is the payload of an outbound group_message.
type GroupMessageOutput struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PrivateMessageOutput is the payload of an outbound private_message.
type PrivateMessageOutput struct {
	ID       string    `json:"id"`
	FromUser string    `json:"from_user"`
	ToUser   string    `json:"to_user"`
	Message  string    `json:"message"`
	DateSent time.Time `json:"date_sent"`
	Read     bool      `json:"read"`
}

// TypingOutput is the payload of user_typing.
type TypingOutput struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorOutput is the payload of error.
type ErrorOutput struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func userJoinedEvent(username string, room Room, at time.Time) Event {
	return Event{
		Type: TypeUserJoined,
		Payload: PresenceNotice{
			Username:  username,
			Room:      room,
			Message:   fmt.Sprintf("%s has joined the room", username),
			Timestamp: at,
		},
	}
}

func userLeftEvent(username string, room Room, reason string, at time.Time) Event {
	text := fmt.Sprintf("%s has left the room", username)
	if reason == ReasonDisconnected {
		text = fmt.Sprintf("%s has disconnected", username)
	}

	return Event{
		Type: TypeUserLeft,
		Payload: PresenceNotice{
			Username:  username,
			Room:      room,
			Message:   text,
			Reason:    reason,
			Timestamp: at,
		},
	}
}

func roomHistoryEvent(msgs []message.RoomMessage) Event {
	entries := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, HistoryEntry{
			ID:       m.ID,
			FromUser: m.Username,
			Message:  m.Body,
			DateSent: m.CreatedAt,
			Room:     m.Room,
		})
	}

	return Event{Type: TypeRoomHistory, Payload: entries}
}

func groupMessageEvent(m message.RoomMessage) Event {
	return Event{
		Type: TypeGroupMessage,
		Payload: GroupMessageOutput{
			ID:        m.ID,
			Username:  m.Username,
			Room:      m.Room,
			Message:   m.Body,
			Timestamp: m.CreatedAt,
		},
		messageID: m.ID,
	}
}

func privateMessageEvent(m message.DirectMessage) Event {
	return Event{
		Type: TypePrivateMessage,
		Payload: PrivateMessageOutput{
			ID:       m.ID,
			FromUser: m.From,
			ToUser:   m.To,
			Message:  m.Body,
			DateSent: m.CreatedAt,
			Read:     m.Read,
		},
	}
}

func typingEvent(username string, isTyping bool) Event {
	return Event{
		Type:    TypeUserTyping,
		Payload: TypingOutput{Username: username, IsTyping: isTyping},
	}
}

func errorEvent(err *errs.CustomError) Event {
	return Event{
		Type:    TypeError,
		Payload: ErrorOutput{Code: err.Code, Message: err.Message},
	}
}
