package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
)

const (
	insertRoomMessageSQL = `
INSERT INTO room_messages (room, username, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at`

	recentRoomMessagesSQL = `
SELECT id, room, username, body, created_at FROM (
    SELECT id::text AS id, room, username, body, created_at, seq
    FROM room_messages
    WHERE room = $1
    ORDER BY created_at DESC, seq DESC
    LIMIT $2
) recent
ORDER BY created_at ASC, seq ASC`

	insertDirectMessageSQL = `
INSERT INTO direct_messages (from_user, to_user, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at`

	directMessagesBetweenSQL = `
SELECT id, from_user, to_user, body, read, created_at FROM (
    SELECT id::text AS id, from_user, to_user, body, read, created_at, seq
    FROM direct_messages
    WHERE LEAST(from_user, to_user) = LEAST($1::text, $2::text)
      AND GREATEST(from_user, to_user) = GREATEST($1::text, $2::text)
    ORDER BY created_at DESC, seq DESC
    LIMIT $3
) recent
ORDER BY created_at ASC, seq ASC`

	markDirectMessageReadSQL = `
UPDATE direct_messages
SET read = TRUE
WHERE id = CAST($1::text AS uuid) AND to_user = $2`
)

// MessageStore implements message.Store on PostgreSQL.
type MessageStore struct {
	pool *pgxpool.Pool
}

var _ message.Store = (*MessageStore)(nil)

// NewMessageStore builds a MessageStore over pool.
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) AppendRoomMessage(ctx context.Context, room, username, body string) (message.RoomMessage, error) {
	m := message.RoomMessage{Room: room, Username: username, Body: body}

	if err := s.pool.QueryRow(ctx, insertRoomMessageSQL, room, username, body).Scan(&m.ID, &m.CreatedAt); err != nil {
		return message.RoomMessage{}, unavailable(err)
	}
	return m, nil
}

func (s *MessageStore) RecentRoomMessages(ctx context.Context, room string, limit int) ([]message.RoomMessage, error) {
	rows, err := s.pool.Query(ctx, recentRoomMessagesSQL, room, message.ClampLimit(limit))
	if err != nil {
		return nil, unavailable(err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (message.RoomMessage, error) {
		var m message.RoomMessage
		err := row.Scan(&m.ID, &m.Room, &m.Username, &m.Body, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return msgs, nil
}

func (s *MessageStore) AppendDirectMessage(ctx context.Context, from, to, body string) (message.DirectMessage, error) {
	m := message.DirectMessage{From: from, To: to, Body: body}

	if err := s.pool.QueryRow(ctx, insertDirectMessageSQL, from, to, body).Scan(&m.ID, &m.CreatedAt); err != nil {
		return message.DirectMessage{}, unavailable(err)
	}
	return m, nil
}

func (s *MessageStore) DirectMessagesBetween(ctx context.Context, a, b string, limit int) ([]message.DirectMessage, error) {
	rows, err := s.pool.Query(ctx, directMessagesBetweenSQL, a, b, message.ClampLimit(limit))
	if err != nil {
		return nil, unavailable(err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (message.DirectMessage, error) {
		var m message.DirectMessage
		err := row.Scan(&m.ID, &m.From, &m.To, &m.Body, &m.Read, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return msgs, nil
}

func (s *MessageStore) MarkDirectMessageRead(ctx context.Context, id, recipient string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}

	tag, err := s.pool.Exec(ctx, markDirectMessageReadSQL, id, recipient)
	if err != nil {
		return false, unavailable(err)
	}
	return tag.RowsAffected() > 0, nil
}

// unavailable classifies a pgx failure as a store outage.
func unavailable(err error) error {
	return errs.Wrap(errs.ErrStoreUnavailable, err)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
