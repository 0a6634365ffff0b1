package registry

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/services/notify"
	"github.com/mcoot/roomserver/internal/storage"
)

// Config bounds the registry
type Config struct {
	// MaxRooms is the number of live rooms allowed at once
	MaxRooms int
	// KeyHashCost is the bcrypt cost used for private room keys. Keys are
	// checked on the event loop, so the default stays at bcrypt.MinCost.
	KeyHashCost int
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		MaxRooms:    16,
		KeyHashCost: bcrypt.MinCost,
	}
}

// Registry owns the set of live rooms
type Registry struct {
	storage  storage.Storage
	clock    clock.Clock
	notifier notify.Notifier
	cfg      Config
	logger   *slog.Logger
}

// New creates a new Registry
func New(
	storage storage.Storage,
	clock clock.Clock,
	notifier notify.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage:  storage,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateRoom registers a new room in the lobby phase. An existing id is
// rejected before capacity is considered.
func (r *Registry) CreateRoom(ctx context.Context, id model.RoomID, key string) (*model.Room, error) {
	if id == "" {
		return nil, model.ErrInvalidRoomID
	}

	exists, err := r.storage.RoomExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrRoomExists
	}

	count, err := r.storage.CountRooms(ctx)
	if err != nil {
		return nil, err
	}
	if count >= r.cfg.MaxRooms {
		return nil, model.ErrRoomsFull
	}

	now := r.clock.Now()
	room := &model.Room{
		ID:        id,
		Phase:     model.PhaseLobby,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !model.IsPublicKey(key) {
		hash, err := bcrypt.GenerateFromPassword(keyDigest(key), r.cfg.KeyHashCost)
		if err != nil {
			return nil, fmt.Errorf("hash room key: %w", err)
		}
		room.KeyHash = hash
	}

	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	r.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.Bool("public", room.IsPublic()),
		slog.Int("live_rooms", count+1),
	)
	r.notifier.Notify(ctx, notify.RoomCreated(string(id), room.IsPublic()))

	return room, nil
}

// GetRoom retrieves a room by id
func (r *Registry) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return r.storage.GetRoom(ctx, id)
}

// FindRoomOf returns the room conn is seated in, or ErrPlayerNotFound
func (r *Registry) FindRoomOf(ctx context.Context, conn model.ConnID) (*model.Room, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.PlayerIndex(conn) >= 0 {
			return room, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

// SaveRoom persists changes to a room
func (r *Registry) SaveRoom(ctx context.Context, room *model.Room) error {
	room.UpdatedAt = r.clock.Now()
	return r.storage.SaveRoom(ctx, room)
}

// DeleteRoom removes a room from the live set
func (r *Registry) DeleteRoom(ctx context.Context, id model.RoomID) error {
	if err := r.storage.DeleteRoom(ctx, id); err != nil {
		return err
	}
	r.logger.Info("room deleted", slog.String("room_id", string(id)))
	r.notifier.Notify(ctx, notify.RoomDeleted(string(id)))
	return nil
}

// Rooms lists live rooms in creation order
func (r *Registry) Rooms(ctx context.Context) ([]*model.Room, error) {
	return r.storage.ListRooms(ctx)
}

// Count returns the number of live rooms
func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.storage.CountRooms(ctx)
}

// Capacity returns the configured room limit
func (r *Registry) Capacity() int {
	return r.cfg.MaxRooms
}

// VerifyKey reports whether key opens room. Public rooms accept any key.
func VerifyKey(room *model.Room, key string) bool {
	if room.IsPublic() {
		return true
	}
	return bcrypt.CompareHashAndPassword(room.KeyHash, keyDigest(key)) == nil
}

// keyDigest folds a key of any length into the 72 bytes bcrypt accepts
func keyDigest(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
