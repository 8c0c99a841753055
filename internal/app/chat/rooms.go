package chat

import (
	"strings"

	"roomchat/internal/pkg/errs"
)

// Room is a tag from the fixed set of chat rooms.
type Room string

const (
	RoomDevops   Room = "devops"
	RoomMakeup   Room = "makeup"
	RoomMusic    Room = "music"
	RoomSports   Room = "sports"
	RoomTravels  Room = "travels"
	RoomGirlhood Room = "girlhood"
)

// noRoom marks a connection that is identified but not in any room.
const noRoom Room = ""

var knownRooms = map[Room]struct{}{
	RoomDevops:   {},
	RoomMakeup:   {},
	RoomMusic:    {},
	RoomSports:   {},
	RoomTravels:  {},
	RoomGirlhood: {},
}

// Rooms returns the fixed room set in display order.
func Rooms() []Room {
	return []Room{RoomDevops, RoomMakeup, RoomMusic, RoomSports, RoomTravels, RoomGirlhood}
}

// Valid reports whether r is one of the fixed rooms.
func (r Room) Valid() bool {
	_, ok := knownRooms[r]
	return ok
}

// ParseRoom converts a client supplied tag into a Room, returning ErrInvalidRoom for unknown tags.
func ParseRoom(tag string) (Room, error) {
	room := Room(strings.TrimSpace(tag))
	if !room.Valid() {
		return noRoom, errs.NewError(errs.ErrInvalidRoom)
	}
	return room, nil
}
