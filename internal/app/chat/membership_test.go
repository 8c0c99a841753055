package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/pkg/errs"
)

func TestJoinRoom_NotifiesOthersAndSendsHistoryPrivately(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomMusic)
	alice := env.identify(t, "c-alice", "alice")

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music"))

	assert.Equal(t, []EventType{TypeRoomHistory}, alice.Types())

	joined := bob.OfType(TypeUserJoined)
	require.Len(t, joined, 1)
	notice := joined[0].Payload.(PresenceNotice)
	assert.Equal(t, "alice", notice.Username)
	assert.Equal(t, RoomMusic, notice.Room)
	assert.Equal(t, "alice has joined the room", notice.Message)
	assert.Equal(t, fixedNow, notice.Timestamp)
	assert.Empty(t, bob.OfType(TypeRoomHistory))

	p, ok := env.manager.Presence().Lookup("c-alice")
	require.True(t, ok)
	assert.Equal(t, RoomMusic, p.Room)
	assert.Equal(t, []string{"c-alice", "c-bob"}, env.manager.Hub().Members(RoomMusic))
}

func TestJoinRoom_SwitchingLeavesPreviousRoom(t *testing.T) {
	env := newTestEnv(t)
	carol := env.joined(t, "c-carol", "carol", RoomDevops)
	dave := env.joined(t, "c-dave", "dave", RoomSports)
	alice := env.joined(t, "c-alice", "alice", RoomDevops)

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "sports"))

	left := carol.OfType(TypeUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, ReasonLeft, left[0].Payload.(PresenceNotice).Reason)
	assert.Equal(t, RoomDevops, left[0].Payload.(PresenceNotice).Room)

	assert.Len(t, dave.OfType(TypeUserJoined), 1)
	assert.Empty(t, alice.OfType(TypeUserLeft))

	// A connection is a member of at most one room.
	assert.Equal(t, []string{"c-carol"}, env.manager.Hub().Members(RoomDevops))
	assert.Equal(t, []string{"c-alice", "c-dave"}, env.manager.Hub().Members(RoomSports))
	assert.Equal(t, []string{"carol"}, env.manager.Presence().Occupants(RoomDevops))
}

func TestJoinRoom_InvalidRoomLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	alice := env.joined(t, "c-alice", "alice", RoomTravels)

	err := env.manager.Membership.JoinRoom(context.Background(), "c-alice", "knitting")

	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.ErrInvalidRoom))
	p, _ := env.manager.Presence().Lookup("c-alice")
	assert.Equal(t, RoomTravels, p.Room)
	assert.Empty(t, alice.Events())
}

func TestJoinRoom_RequiresIdentification(t *testing.T) {
	env := newTestEnv(t)
	sink := env.connect("c-anon")

	err := env.manager.Membership.JoinRoom(context.Background(), "c-anon", "music")

	assert.True(t, errs.HasCode(err, errs.ErrNotIdentified))
	assert.Empty(t, env.manager.Hub().Members(RoomMusic))
	assert.Empty(t, sink.Events())
}

func TestJoinRoom_HistoryIsNewestFiftyOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 60; i++ {
		_, err := env.store.AppendRoomMessage(context.Background(), "music", "seed", fmt.Sprintf("m%02d", i))
		require.NoError(t, err)
	}
	sink := env.identify(t, "c-alice", "alice")

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music"))

	history := sink.OfType(TypeRoomHistory)
	require.Len(t, history, 1)
	entries := history[0].Payload.([]HistoryEntry)
	require.Len(t, entries, 50)
	assert.Equal(t, "m10", entries[0].Message)
	assert.Equal(t, "m59", entries[49].Message)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].DateSent.Before(entries[i-1].DateSent))
	}
}

func TestJoinRoom_EmptyRoomSendsEmptyHistory(t *testing.T) {
	env := newTestEnv(t)
	env.store.seedRoom("devops", 3)
	sink := env.identify(t, "c-alice", "alice")

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "girlhood"))

	history := sink.OfType(TypeRoomHistory)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Payload.([]HistoryEntry))
}

func TestJoinRoom_StoreFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomMusic)
	alice := env.joined(t, "c-alice", "alice", RoomDevops)
	env.store.failRecent = true

	err := env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music")

	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.ErrStoreUnavailable))

	p, ok := env.manager.Presence().Lookup("c-alice")
	require.True(t, ok, "connection stays identified")
	assert.False(t, p.InRoom())
	assert.Equal(t, []string{"c-bob"}, env.manager.Hub().Members(RoomMusic))
	assert.Empty(t, env.manager.Hub().Members(RoomDevops))

	assert.Equal(t, []EventType{TypeUserJoined, TypeUserLeft}, bob.Types())
	assert.Equal(t, ReasonJoinFailed, bob.OfType(TypeUserLeft)[0].Payload.(PresenceNotice).Reason)
	assert.Empty(t, alice.OfType(TypeRoomHistory))
}

func TestJoinRoom_LiveMessageDuringReplayIsNotDuplicated(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomMusic)
	alice := env.identify(t, "c-alice", "alice")

	env.store.beforeRecent = func() {
		require.NoError(t, env.manager.Messages.SendRoomMessage(context.Background(), "c-bob", "music", "racing the join"))
	}

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music"))

	events := alice.Events()
	require.Len(t, events, 1, "the message arrives once, inside the history")
	entries := events[0].Payload.([]HistoryEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "racing the join", entries[0].Message)

	assert.Len(t, bob.OfType(TypeGroupMessage), 1)
}

func TestJoinRoom_LiveTrafficFollowsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.joined(t, "c-bob", "bob", RoomMusic)
	alice := env.identify(t, "c-alice", "alice")

	env.store.beforeRecent = func() {
		env.manager.Messages.SendTyping("c-bob", "music", true)
	}

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music"))

	assert.Equal(t, []EventType{TypeRoomHistory, TypeUserTyping}, alice.Types())
}

func TestJoinRoom_DirectMessageFollowsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.identify(t, "c-alice", "alice")
	bob := env.identify(t, "c-bob", "bob")

	env.store.beforeRecent = func() {
		require.NoError(t, env.manager.Messages.SendDirectMessage(context.Background(), "c-alice", "bob", "hi"))
	}

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-bob", "music"))

	assert.Equal(t, []EventType{TypeRoomHistory, TypePrivateMessage}, bob.Types())
}

func TestJoinRoom_RejoinSameRoomResendsHistoryOnly(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomMusic)
	alice := env.joined(t, "c-alice", "alice", RoomMusic)

	require.NoError(t, env.manager.Membership.JoinRoom(context.Background(), "c-alice", "music"))

	assert.Equal(t, []EventType{TypeRoomHistory}, alice.Types())
	assert.Empty(t, bob.Events())
	assert.Equal(t, []string{"c-alice", "c-bob"}, env.manager.Hub().Members(RoomMusic))
}

func TestLeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomSports)
	alice := env.joined(t, "c-alice", "alice", RoomSports)

	require.NoError(t, env.manager.Membership.LeaveRoom("c-alice", "sports"))

	left := bob.OfType(TypeUserLeft)
	require.Len(t, left, 1)
	notice := left[0].Payload.(PresenceNotice)
	assert.Equal(t, "alice", notice.Username)
	assert.Equal(t, ReasonLeft, notice.Reason)
	assert.Empty(t, alice.Events())

	p, ok := env.manager.Presence().Lookup("c-alice")
	require.True(t, ok)
	assert.False(t, p.InRoom())
	assert.Equal(t, []string{"c-bob"}, env.manager.Hub().Members(RoomSports))
}

func TestLeaveRoom_NotInThatRoom(t *testing.T) {
	env := newTestEnv(t)
	env.joined(t, "c-alice", "alice", RoomSports)
	env.identify(t, "c-bob", "bob")

	err := env.manager.Membership.LeaveRoom("c-alice", "music")
	assert.True(t, errs.HasCode(err, errs.ErrNotInRoom))

	err = env.manager.Membership.LeaveRoom("c-bob", "sports")
	assert.True(t, errs.HasCode(err, errs.ErrNotInRoom))

	err = env.manager.Membership.LeaveRoom("c-alice", "nowhere")
	assert.True(t, errs.HasCode(err, errs.ErrInvalidRoom))

	p, _ := env.manager.Presence().Lookup("c-alice")
	assert.Equal(t, RoomSports, p.Room)
}

func TestDisconnect_EmitsExactlyOneUserLeft(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomTravels)
	env.joined(t, "c-alice", "alice", RoomTravels)

	env.manager.Disconnect("c-alice")
	env.manager.Disconnect("c-alice")

	left := bob.OfType(TypeUserLeft)
	require.Len(t, left, 1)
	notice := left[0].Payload.(PresenceNotice)
	assert.Equal(t, ReasonDisconnected, notice.Reason)
	assert.Equal(t, "alice has disconnected", notice.Message)

	_, ok := env.manager.Presence().Lookup("c-alice")
	assert.False(t, ok)
	assert.Equal(t, []string{"c-bob"}, env.manager.Hub().Members(RoomTravels))
	assert.Equal(t, 1, env.manager.Hub().Count())
}

func TestDisconnect_FromAnyState(t *testing.T) {
	env := newTestEnv(t)
	bob := env.joined(t, "c-bob", "bob", RoomMusic)
	env.connect("c-anon")
	env.identify(t, "c-idle", "idle")

	env.manager.Disconnect("c-anon")
	env.manager.Disconnect("c-idle")
	env.manager.Disconnect("c-unknown")

	assert.Empty(t, bob.Events())
	assert.Equal(t, 1, env.manager.Presence().Len())
	assert.Equal(t, 1, env.manager.Hub().Count())
}

func TestIdentify_RejectsBlankUsername(t *testing.T) {
	env := newTestEnv(t)
	env.connect("c1")

	err := env.manager.Membership.Identify("c1", "   ")

	assert.True(t, errs.HasCode(err, errs.ErrInvalidParams))
	assert.Equal(t, 0, env.manager.Presence().Len())
}
