package chat

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/logx"
)

var errStoreDown = errors.New("connection refused")

func init() {
	logx.SetOutput(io.Discard)
}

// recordingSink captures delivered events in order.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
	reject bool
}

func (s *recordingSink) Send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.reject {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) Types() []EventType {
	events := s.Events()
	types := make([]EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func (s *recordingSink) OfType(t EventType) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
}

func (s *recordingSink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// fakeStore is an in-memory message.Store with failure switches.
type fakeStore struct {
	mu     sync.Mutex
	rooms  []message.RoomMessage
	direct []message.DirectMessage
	clock  time.Time

	failAppend bool
	failRecent bool

	appendRoomCalls   int
	appendDirectCalls int

	// beforeRecent runs at the start of RecentRoomMessages, outside the store lock.
	beforeRecent func()
}

var _ message.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *fakeStore) AppendRoomMessage(_ context.Context, room, username, body string) (message.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendRoomCalls++
	if s.failAppend {
		return message.RoomMessage{}, errStoreDown
	}

	m := message.RoomMessage{
		ID:        uuid.NewString(),
		Username:  username,
		Room:      room,
		Body:      body,
		CreatedAt: s.tick(),
	}
	s.rooms = append(s.rooms, m)
	return m, nil
}

func (s *fakeStore) RecentRoomMessages(_ context.Context, room string, limit int) ([]message.RoomMessage, error) {
	s.mu.Lock()
	hook := s.beforeRecent
	s.beforeRecent = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRecent {
		return nil, errStoreDown
	}

	var inRoom []message.RoomMessage
	for _, m := range s.rooms {
		if m.Room == room {
			inRoom = append(inRoom, m)
		}
	}
	limit = message.ClampLimit(limit)
	if len(inRoom) > limit {
		inRoom = inRoom[len(inRoom)-limit:]
	}
	return inRoom, nil
}

func (s *fakeStore) AppendDirectMessage(_ context.Context, from, to, body string) (message.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendDirectCalls++
	if s.failAppend {
		return message.DirectMessage{}, errStoreDown
	}

	m := message.DirectMessage{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Body:      body,
		CreatedAt: s.tick(),
	}
	s.direct = append(s.direct, m)
	return m, nil
}

func (s *fakeStore) DirectMessagesBetween(_ context.Context, a, b string, limit int) ([]message.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []message.DirectMessage
	for _, m := range s.direct {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	limit = message.ClampLimit(limit)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeStore) MarkDirectMessageRead(_ context.Context, id, recipient string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.direct {
		if s.direct[i].ID == id && s.direct[i].To == recipient {
			s.direct[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) roomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rooms)
}

func (s *fakeStore) directCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.direct)
}

func (s *fakeStore) seedRoom(room string, n int) {
	for i := 0; i < n; i++ {
		_, _ = s.AppendRoomMessage(context.Background(), room, "seed", "message")
	}
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// testEnv is a Manager over a fakeStore with recording sinks for every connection.
type testEnv struct {
	manager *Manager
	store   *fakeStore
	sinks   map[string]*recordingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	m := NewManager(store)
	m.Membership.now = func() time.Time { return fixedNow }
	t.Cleanup(m.Shutdown)

	return &testEnv{manager: m, store: store, sinks: make(map[string]*recordingSink)}
}

func (e *testEnv) connect(connID string) *recordingSink {
	sink := &recordingSink{}
	e.sinks[connID] = sink
	e.manager.Connect(connID, sink)
	return sink
}

func (e *testEnv) identify(t *testing.T, connID, username string) *recordingSink {
	t.Helper()

	sink := e.connect(connID)
	require.NoError(t, e.manager.Membership.Identify(connID, username))
	return sink
}

// joined connects, identifies and joins connID to room, then clears its sink.
func (e *testEnv) joined(t *testing.T, connID, username string, room Room) *recordingSink {
	t.Helper()

	sink := e.identify(t, connID, username)
	require.NoError(t, e.manager.Membership.JoinRoom(context.Background(), connID, string(room)))
	e.resetAll()
	return sink
}

func (e *testEnv) resetAll() {
	for _, s := range e.sinks {
		s.Reset()
	}
}
