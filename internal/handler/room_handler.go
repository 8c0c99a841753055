/*
Package handler provides HTTP handler functions for listing rooms and reading room history.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/message"
	"roomchat/internal/pkg/resp"
)

// RoomInfo describes one room and who is in it right now.
type RoomInfo struct {
	Room        chat.Room `json:"room"`
	Occupants   []string  `json:"occupants"`
	Connections int       `json:"connections"`
}

// HandleListRooms returns the fixed room set with current occupants and subscribed connections.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := chat.Rooms()
		infos := make([]RoomInfo, 0, len(rooms))

		for _, room := range rooms {
			infos = append(infos, RoomInfo{
				Room:        room,
				Occupants:   deps.Manager.Presence().Occupants(room),
				Connections: len(deps.Manager.Hub().Members(room)),
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"rooms": infos})
	}
}

// HandleRoomMessages returns the most recent messages of a room, oldest first.
func HandleRoomMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := deps.Manager.RoomHistory(r.Context(), chi.URLParam(r, "room"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		if msgs == nil {
			msgs = []message.RoomMessage{}
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": msgs})
	}
}
