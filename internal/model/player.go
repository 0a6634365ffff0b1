package model

import "time"

// ConnID identifies a transport connection. The core never owns the
// connection itself, only this handle.
type ConnID string

// Player is a connection seated in a room
type Player struct {
	Conn     ConnID
	Name     string
	Ready    bool // lobby only
	Alive    bool // playing only
	JoinedAt time.Time
}
