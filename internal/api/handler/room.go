package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
)

// Loop runs fn where room state can be read without racing the event loop
type Loop interface {
	Do(ctx context.Context, fn func()) error
}

// RoomHandler serves read-only room snapshots
type RoomHandler struct {
	loop     Loop
	registry *registry.Registry
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(loop Loop, registry *registry.Registry) *RoomHandler {
	return &RoomHandler{loop: loop, registry: registry}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list := response.RoomList{Rooms: []response.Room{}}

	var err error
	doErr := h.loop.Do(ctx, func() {
		var rooms []*model.Room
		rooms, err = h.registry.Rooms(ctx)
		for _, room := range rooms {
			list.Rooms = append(list.Rooms, response.RoomFromModel(room))
		}
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.RoomID(mux.Vars(r)["id"])

	var out response.Room
	var err error
	doErr := h.loop.Do(ctx, func() {
		var room *model.Room
		room, err = h.registry.GetRoom(ctx, id)
		if err == nil {
			out = response.RoomFromModel(room)
		}
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, out)
}
