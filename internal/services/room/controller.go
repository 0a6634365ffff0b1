package room

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/dependencies/random"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/protocol"
	"github.com/mcoot/roomserver/internal/services/notify"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/transport"
)

// Controller runs the room state machine: membership, ready-up, match
// start, in-match relay and winner detection. It must only be driven from
// a single goroutine.
type Controller struct {
	registry *registry.Registry
	sender   transport.Sender
	clock    clock.Clock
	random   random.Random
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	registry *registry.Registry,
	sender transport.Sender,
	clock clock.Clock,
	random random.Random,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry: registry,
		sender:   sender,
		clock:    clock,
		random:   random,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateRoom registers a room on behalf of conn
func (c *Controller) CreateRoom(ctx context.Context, conn model.ConnID, req protocol.CreateRoomRequest) error {
	_, err := c.registry.CreateRoom(ctx, model.RoomID(req.RoomID), req.Key)
	return err
}

// Join seats conn in a room and confirms its resolved name
func (c *Controller) Join(ctx context.Context, conn model.ConnID, req protocol.NewUserRequest) (string, error) {
	if _, err := c.registry.FindRoomOf(ctx, conn); err == nil {
		return "", model.ErrAlreadyInRoom
	}

	room, err := c.registry.GetRoom(ctx, model.RoomID(req.RoomID))
	if err != nil {
		return "", err
	}

	if !registry.VerifyKey(room, req.Key) {
		return "", model.ErrInvalidKey
	}
	if room.Phase == model.PhasePlaying {
		return "", model.ErrAlreadyInGame
	}

	name := ResolveName(room, req.Name)
	room.Players = append(room.Players, model.Player{
		Conn:     conn,
		Name:     name,
		JoinedAt: c.clock.Now(),
	})
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return "", err
	}

	c.logger.Info("player joined",
		slog.String("room_id", string(room.ID)),
		slog.String("conn", string(conn)),
		slog.String("name", name),
		slog.Int("players", len(room.Players)),
	)
	c.sender.Send(conn, protocol.Encode(protocol.ProtoNameChange, protocol.F("name", name)))

	return name, nil
}

// ReadyUp marks conn ready and starts the match once everyone is.
// Repeats, and ready-ups during a match, are ignored.
func (c *Controller) ReadyUp(ctx context.Context, conn model.ConnID) error {
	room, err := c.registry.FindRoomOf(ctx, conn)
	if err != nil {
		return err
	}
	if room.Phase != model.PhaseLobby {
		return nil
	}

	player := room.GetPlayer(conn)
	if player.Ready {
		return nil
	}
	player.Ready = true
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Debug("player ready",
		slog.String("room_id", string(room.ID)),
		slog.String("name", player.Name),
	)
	return c.checkAllReady(ctx, room)
}

// UsePowerup relays a power-up from conn to the named player in its room
func (c *Controller) UsePowerup(ctx context.Context, conn model.ConnID, req protocol.PowerupRequest) error {
	room, err := c.registry.FindRoomOf(ctx, conn)
	if err != nil {
		return err
	}

	target := room.GetPlayerByName(req.Attacking)
	if target == nil {
		return model.ErrTargetNotFound
	}

	user := room.GetPlayer(conn).Name
	c.sender.Send(target.Conn, protocol.Encode(protocol.ProtoUsePowerup,
		protocol.F("powerup", strconv.Itoa(req.Powerup)),
		protocol.F("user", user),
	))
	return nil
}

// Died marks conn dead and checks for a winner. Ignored outside a match.
func (c *Controller) Died(ctx context.Context, conn model.ConnID) error {
	room, err := c.registry.FindRoomOf(ctx, conn)
	if err != nil {
		return err
	}
	if room.Phase != model.PhasePlaying {
		return nil
	}

	player := room.GetPlayer(conn)
	player.Alive = false
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Debug("player died",
		slog.String("room_id", string(room.ID)),
		slog.String("name", player.Name),
	)
	return c.checkWinner(ctx, room)
}

// Leave removes conn from its room. Used for both explicit leaves and
// disconnects; leaving mid-match counts as dying.
func (c *Controller) Leave(ctx context.Context, conn model.ConnID) error {
	room, err := c.registry.FindRoomOf(ctx, conn)
	if err != nil {
		return err
	}

	name := room.GetPlayer(conn).Name
	room.RemovePlayer(conn)

	c.logger.Info("player left",
		slog.String("room_id", string(room.ID)),
		slog.String("name", name),
		slog.Int("players", len(room.Players)),
	)

	if room.IsEmpty() {
		return c.registry.DeleteRoom(ctx, room.ID)
	}
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return err
	}

	if room.Phase == model.PhaseLobby {
		c.broadcast(room, rosterMessage(room))
		return c.checkAllReady(ctx, room)
	}
	return c.checkWinner(ctx, room)
}

// Roster sends conn the player list of its room
func (c *Controller) Roster(ctx context.Context, conn model.ConnID) error {
	room, err := c.registry.FindRoomOf(ctx, conn)
	if err != nil {
		return err
	}
	c.sender.Send(conn, rosterMessage(room))
	return nil
}

// Ping echoes a liveness probe
func (c *Controller) Ping(ctx context.Context, conn model.ConnID) {
	c.sender.Send(conn, protocol.Encode(protocol.ProtoCheckServerAlive))
}

func (c *Controller) checkAllReady(ctx context.Context, room *model.Room) error {
	if room.Phase != model.PhaseLobby || !room.AllReady() {
		return nil
	}
	return c.startMatch(ctx, room)
}

func (c *Controller) startMatch(ctx context.Context, room *model.Room) error {
	levels := GenerateLevels(c.random)

	c.broadcast(room, rosterMessage(room))
	c.broadcast(room, protocol.Encode(protocol.ProtoGetLevelList, protocol.IndexedInts(levels)...))
	c.broadcast(room, protocol.Encode(protocol.ProtoStartGame))

	room.Phase = model.PhasePlaying
	room.Round++
	for i := range room.Players {
		room.Players[i].Ready = false
		room.Players[i].Alive = true
	}
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("match started",
		slog.String("room_id", string(room.ID)),
		slog.Int("players", len(room.Players)),
		slog.Int("round", room.Round),
	)
	c.notifier.Notify(ctx, notify.MatchStarted(string(room.ID), len(room.Players)))
	return nil
}

// checkWinner ends the match when exactly one player is alive
func (c *Controller) checkWinner(ctx context.Context, room *model.Room) error {
	if room.Phase != model.PhasePlaying {
		return nil
	}
	alive := room.Survivors()
	if len(alive) != 1 {
		return nil
	}
	winner := alive[0].Name

	c.broadcast(room, protocol.Encode(protocol.ProtoGrantWinner, protocol.F("winner", winner)))

	room.Phase = model.PhaseLobby
	room.ResetReady()
	if err := c.registry.SaveRoom(ctx, room); err != nil {
		return err
	}

	c.logger.Info("match won",
		slog.String("room_id", string(room.ID)),
		slog.String("winner", winner),
		slog.Int("round", room.Round),
	)
	c.notifier.Notify(ctx, notify.MatchWon(string(room.ID), winner))
	return nil
}

func (c *Controller) broadcast(room *model.Room, data []byte) {
	transport.Broadcast(c.sender, room.Conns(), data)
}

func rosterMessage(room *model.Room) []byte {
	return protocol.Encode(protocol.ProtoGetUserList, protocol.IndexedFields(room.Names())...)
}
