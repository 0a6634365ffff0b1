package storage

import (
	"context"

	"github.com/mcoot/roomserver/internal/model"
)

// Storage defines the interface for live room state
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)

	// ListRooms returns rooms in creation order
	ListRooms(ctx context.Context) ([]*model.Room, error)
	CountRooms(ctx context.Context) (int, error)
}
