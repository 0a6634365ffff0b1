package model

import "time"

// RoomID is the client-chosen identifier of a room
type RoomID string

// Phase is the lifecycle phase of a room
type Phase string

const (
	PhaseLobby   Phase = "lobby"   // Waiting for everyone to ready up
	PhasePlaying Phase = "playing" // Match in progress
)

const (
	// PublicKey is the key clients send for rooms without a secret
	PublicKey = "_"
	// MaxNameLength is the longest name accepted before disambiguation
	MaxNameLength = 12
)

// IsPublicKey reports whether key denotes a public room
func IsPublicKey(key string) bool {
	return key == "" || key == PublicKey
}

// Room is a named group of players sharing a match
type Room struct {
	ID        RoomID
	KeyHash   []byte   // nil for public rooms
	Players   []Player // join order
	Phase     Phase
	Round     int // matches started so far
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPublic reports whether the room can be joined without a key
func (r *Room) IsPublic() bool {
	return len(r.KeyHash) == 0
}

// PlayerIndex returns the index of the player on conn, or -1
func (r *Room) PlayerIndex(conn ConnID) int {
	for i := range r.Players {
		if r.Players[i].Conn == conn {
			return i
		}
	}
	return -1
}

// GetPlayer returns the player on conn, or nil if not seated here
func (r *Room) GetPlayer(conn ConnID) *Player {
	if i := r.PlayerIndex(conn); i >= 0 {
		return &r.Players[i]
	}
	return nil
}

// GetPlayerByName returns the player with the given name, or nil
func (r *Room) GetPlayerByName(name string) *Player {
	for i := range r.Players {
		if r.Players[i].Name == name {
			return &r.Players[i]
		}
	}
	return nil
}

// RemovePlayer removes the player on conn and reports whether one was removed
func (r *Room) RemovePlayer(conn ConnID) bool {
	i := r.PlayerIndex(conn)
	if i < 0 {
		return false
	}
	r.Players = append(r.Players[:i], r.Players[i+1:]...)
	return true
}

// IsEmpty reports whether nobody is seated
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// AllReady reports whether the room is non-empty and every player is ready
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Survivors returns the players still alive in the current match
func (r *Room) Survivors() []Player {
	var alive []Player
	for _, p := range r.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// Names returns player names in join order
func (r *Room) Names() []string {
	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
	}
	return names
}

// Conns returns player connections in join order
func (r *Room) Conns() []ConnID {
	conns := make([]ConnID, len(r.Players))
	for i, p := range r.Players {
		conns[i] = p.Conn
	}
	return conns
}

// ResetReady clears every ready flag
func (r *Room) ResetReady() {
	for i := range r.Players {
		r.Players[i].Ready = false
	}
}

// Clone returns a deep copy safe to hand outside the event loop
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	if r.KeyHash != nil {
		c.KeyHash = append([]byte(nil), r.KeyHash...)
	}
	return &c
}
