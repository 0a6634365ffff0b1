package transport

import "github.com/mcoot/roomserver/internal/model"

// Sender delivers encoded messages to connections. Sends to unknown or
// already-closed connections are dropped.
type Sender interface {
	Send(conn model.ConnID, data []byte)
	// Close disconnects conn once everything queued before it is written
	Close(conn model.ConnID)
}

// Broadcast sends data to every conn
func Broadcast(s Sender, conns []model.ConnID, data []byte) {
	for _, c := range conns {
		s.Send(c, data)
	}
}
