package handler

import (
	"net/http"

	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/registry"
)

// ClientCounter reports open connections
type ClientCounter interface {
	Loop
	ClientCount() int
}

// StatsHandler serves load figures
type StatsHandler struct {
	clients  ClientCounter
	registry *registry.Registry
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(clients ClientCounter, registry *registry.Registry) *StatsHandler {
	return &StatsHandler{clients: clients, registry: registry}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := response.Stats{
		MaxRooms: h.registry.Capacity(),
		Clients:  h.clients.ClientCount(),
	}

	var err error
	doErr := h.clients.Do(ctx, func() {
		var rooms []*model.Room
		rooms, err = h.registry.Rooms(ctx)
		stats.Rooms = len(rooms)
		for _, room := range rooms {
			stats.Players += len(room.Players)
			if room.Phase == model.PhasePlaying {
				stats.Playing++
			}
		}
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, stats)
}
