package response

import (
	"time"

	"github.com/mcoot/roomserver/internal/model"
)

// Player represents a seated player in API responses
type Player struct {
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	Alive    bool      `json:"alive"`
	JoinedAt time.Time `json:"joined_at"`
}

// Room represents a live room
type Room struct {
	ID        string    `json:"id"`
	Public    bool      `json:"public"`
	Phase     string    `json:"phase"`
	Round     int       `json:"round"`
	Players   []Player  `json:"players"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoomFromModel converts a model.Room. Keys and connection ids are never
// exposed.
func RoomFromModel(r *model.Room) Room {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = Player{
			Name:     p.Name,
			Ready:    p.Ready,
			Alive:    p.Alive,
			JoinedAt: p.JoinedAt,
		}
	}
	return Room{
		ID:        string(r.ID),
		Public:    r.IsPublic(),
		Phase:     string(r.Phase),
		Round:     r.Round,
		Players:   players,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// RoomList is the response for the room listing
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Stats summarizes server load
type Stats struct {
	Rooms    int `json:"rooms"`
	MaxRooms int `json:"max_rooms"`
	Players  int `json:"players"`
	Playing  int `json:"playing"`
	Clients  int `json:"clients"`
}
