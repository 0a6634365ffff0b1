package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/protocol"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/transport"
)

type handlerFunc func(ctx context.Context, conn model.ConnID, msg protocol.Message) error

// Dispatcher routes decoded client messages to the room controller and
// turns rejections into wire replies
type Dispatcher struct {
	rooms    *room.Controller
	sender   transport.Sender
	logger   *slog.Logger
	handlers map[protocol.Proto]handlerFunc
}

// New creates a new Dispatcher
func New(rooms *room.Controller, sender transport.Sender, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		rooms:  rooms,
		sender: sender,
		logger: logger.With(slog.String("component", "dispatch")),
	}
	d.handlers = map[protocol.Proto]handlerFunc{
		protocol.ProtoCreateRoom:       d.createRoom,
		protocol.ProtoNewUser:          d.newUser,
		protocol.ProtoReadyUp:          d.readyUp,
		protocol.ProtoGetUserList:      d.userList,
		protocol.ProtoUsePowerup:       d.usePowerup,
		protocol.ProtoDied:             d.died,
		protocol.ProtoCheckServerAlive: d.checkAlive,
		protocol.ProtoLeaveRoom:        d.leaveRoom,
	}
	return d
}

// HandleConnect records a new connection. Nothing is sent until the
// client speaks.
func (d *Dispatcher) HandleConnect(ctx context.Context, conn model.ConnID) {
	d.logger.Debug("client connected", slog.String("conn", string(conn)))
}

// HandleDisconnect removes conn from whatever room it was in. Always applied.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, conn model.ConnID) {
	err := d.rooms.Leave(ctx, conn)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrPlayerNotFound):
		// never joined a room
	default:
		d.logger.Error("disconnect cleanup failed",
			slog.String("conn", string(conn)),
			slog.String("error", err.Error()))
	}
	d.logger.Debug("client disconnected", slog.String("conn", string(conn)))
}

// HandleMessage decodes and processes a single inbound message
func (d *Dispatcher) HandleMessage(ctx context.Context, conn model.ConnID, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		d.logger.Warn("dropping undecodable message",
			slog.String("conn", string(conn)),
			slog.String("error", err.Error()))
		return
	}

	handler, ok := d.handlers[msg.Proto]
	if !ok {
		d.logger.Warn("ignoring unhandled proto",
			slog.String("conn", string(conn)),
			slog.String("proto", msg.Proto.String()))
		return
	}

	if err := handler(ctx, conn, msg); err != nil {
		d.reject(conn, msg.Proto, err)
	}
}

// reject maps a handler error onto the reply the client expects
func (d *Dispatcher) reject(conn model.ConnID, proto protocol.Proto, err error) {
	attrs := []any{
		slog.String("conn", string(conn)),
		slog.String("proto", proto.String()),
		slog.String("error", err.Error()),
	}

	switch {
	case errors.Is(err, model.ErrRoomsFull):
		d.sender.Send(conn, protocol.Encode(protocol.ProtoRoomsFull))
		d.sender.Close(conn)
		d.logger.Info("rejected: rooms full", attrs...)
	case errors.Is(err, model.ErrInvalidKey):
		d.sender.Send(conn, protocol.Encode(protocol.ProtoInvalidKey))
		d.logger.Info("rejected: invalid key", attrs...)
	case errors.Is(err, model.ErrAlreadyInGame):
		d.sender.Send(conn, protocol.Encode(protocol.ProtoAlreadyInGame))
		d.logger.Info("rejected: already in game", attrs...)
	case errors.Is(err, model.ErrRoomExists),
		errors.Is(err, model.ErrRoomNotFound),
		errors.Is(err, model.ErrPlayerNotFound),
		errors.Is(err, model.ErrTargetNotFound),
		errors.Is(err, model.ErrAlreadyInRoom),
		errors.Is(err, model.ErrInvalidRoomID),
		errors.Is(err, protocol.ErrMissingField),
		errors.Is(err, protocol.ErrInvalidField):
		d.logger.Warn("message dropped", attrs...)
	default:
		d.logger.Error("message failed", attrs...)
	}
}

func (d *Dispatcher) createRoom(ctx context.Context, conn model.ConnID, msg protocol.Message) error {
	req, err := protocol.ParseCreateRoom(msg)
	if err != nil {
		return err
	}
	return d.rooms.CreateRoom(ctx, conn, req)
}

func (d *Dispatcher) newUser(ctx context.Context, conn model.ConnID, msg protocol.Message) error {
	req, err := protocol.ParseNewUser(msg)
	if err != nil {
		return err
	}
	_, err = d.rooms.Join(ctx, conn, req)
	return err
}

func (d *Dispatcher) readyUp(ctx context.Context, conn model.ConnID, _ protocol.Message) error {
	return d.rooms.ReadyUp(ctx, conn)
}

func (d *Dispatcher) userList(ctx context.Context, conn model.ConnID, _ protocol.Message) error {
	return d.rooms.Roster(ctx, conn)
}

func (d *Dispatcher) usePowerup(ctx context.Context, conn model.ConnID, msg protocol.Message) error {
	req, err := protocol.ParsePowerup(msg)
	if err != nil {
		return err
	}
	return d.rooms.UsePowerup(ctx, conn, req)
}

func (d *Dispatcher) died(ctx context.Context, conn model.ConnID, _ protocol.Message) error {
	return d.rooms.Died(ctx, conn)
}

func (d *Dispatcher) checkAlive(ctx context.Context, conn model.ConnID, _ protocol.Message) error {
	d.rooms.Ping(ctx, conn)
	return nil
}

func (d *Dispatcher) leaveRoom(ctx context.Context, conn model.ConnID, _ protocol.Message) error {
	return d.rooms.Leave(ctx, conn)
}
