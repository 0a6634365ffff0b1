package notify

import (
	"context"
	"fmt"
)

// Notifier announces room lifecycle events. Calls never block on, or
// report, the outcome of delivery.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Sink delivers a single announcement to an external channel
type Sink interface {
	Name() string
	Post(ctx context.Context, text string) error
}

// Nop discards every announcement
type Nop struct{}

func (Nop) Notify(context.Context, string) {}

var _ Notifier = Nop{}

// Message texts

func RoomCreated(id string, public bool) string {
	if public {
		return fmt.Sprintf("Public room created: %s", id)
	}
	return fmt.Sprintf("Private room created: %s", id)
}

func RoomDeleted(id string) string {
	return fmt.Sprintf("Room deleted: %s", id)
}

func MatchStarted(id string, players int) string {
	return fmt.Sprintf("Match started in room %s with %d players", id, players)
}

func MatchWon(id, winner string) string {
	return fmt.Sprintf("%s won the match in room %s", winner, id)
}

func ServerStarted(addr string) string {
	return fmt.Sprintf("Server started on %s", addr)
}

func ServerStopping() string {
	return "Server shutting down"
}
