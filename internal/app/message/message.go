/*
Package message defines the persisted chat records and the Store contract used to append and
read them.

Room messages and direct messages are immutable once written; the only mutable field is the
read flag of a direct message, owned by its recipient.
*/
package message

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"roomchat/internal/pkg/errs"
)

const (
	// MaxBodyLength is the maximum number of characters in a message body after trimming.
	MaxBodyLength = 1000

	// HistoryLimit is the hard cap on messages replayed on join or served by the history API.
	HistoryLimit = 50
)

// RoomMessage is a message broadcast within a room.
type RoomMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// DirectMessage is a message from one user to another.
type DirectMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"fromUser"`
	To        string    `json:"toUser"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Store persists room and direct messages.
//
// A successful append means the record is durable. Implementations report I/O failures
// as errs.ErrStoreUnavailable.
type Store interface {
	// AppendRoomMessage stores a room message, assigning its ID and creation time.
	AppendRoomMessage(ctx context.Context, room, username, body string) (RoomMessage, error)

	// RecentRoomMessages returns up to limit of the newest messages in room, oldest first.
	RecentRoomMessages(ctx context.Context, room string, limit int) ([]RoomMessage, error)

	// AppendDirectMessage stores a direct message, assigning its ID and creation time.
	AppendDirectMessage(ctx context.Context, from, to, body string) (DirectMessage, error)

	// DirectMessagesBetween returns up to limit of the newest messages exchanged by a and b
	// in either direction, oldest first.
	DirectMessagesBetween(ctx context.Context, a, b string, limit int) ([]DirectMessage, error)

	// MarkDirectMessageRead sets the read flag of message id if recipient is its addressee.
	// It reports whether a message was updated.
	MarkDirectMessageRead(ctx context.Context, id, recipient string) (bool, error)
}

// NormalizeBody trims surrounding whitespace and validates the length of a message body.
// It returns the trimmed body or an ErrInvalidMessage error.
func NormalizeBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)

	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxBodyLength {
		return "", errs.NewError(errs.ErrInvalidMessage, MaxBodyLength)
	}

	return trimmed, nil
}

// ClampLimit bounds a requested history size to (0, HistoryLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > HistoryLimit {
		return HistoryLimit
	}
	return limit
}
