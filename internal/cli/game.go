package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/protocol"
)

// Errors the server reports through protocol replies
var (
	ErrRoomsFull     = errors.New("server has no free rooms")
	ErrInvalidKey    = errors.New("invalid room key")
	ErrAlreadyInGame = errors.New("room is mid-match")
	ErrNoReply       = errors.New("no reply from server")
)

// replyError maps a rejection reply onto an error
func replyError(msg protocol.Message) error {
	switch msg.Proto {
	case protocol.ProtoRoomsFull:
		return ErrRoomsFull
	case protocol.ProtoInvalidKey:
		return ErrInvalidKey
	case protocol.ProtoAlreadyInGame:
		return ErrAlreadyInGame
	}
	return nil
}

// dial opens a session that is closed when the command's context ends
func dial(cmd *cobra.Command) (*Session, context.Context, func(), error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	sess, err := client.Dial(ctx)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	go func() {
		<-ctx.Done()
		_ = sess.Close()
	}()
	return sess, ctx, stop, nil
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the game socket is answering",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, stop, err := dial(cmd)
			if err != nil {
				return err
			}
			defer stop()

			start := time.Now()
			if err := sess.Send(protocol.ProtoCheckServerAlive); err != nil {
				return err
			}
			if _, err := sess.Expect(protocol.ProtoCheckServerAlive); err != nil {
				return fmt.Errorf("%w: %w", ErrNoReply, err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(PingResult{RoundTrip: time.Since(start)})
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "create <room>",
		Short: "Create a room",
		Long: `Create a room. Without --key the room is public.

The server does not acknowledge creation; roomctl confirms the request was
processed with a liveness probe. Creating a room that already exists is a
silent no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, stop, err := dial(cmd)
			if err != nil {
				return err
			}
			defer stop()

			if err := sess.Send(protocol.ProtoCreateRoom,
				protocol.F("roomid", args[0]),
				protocol.F("key", key),
			); err != nil {
				return err
			}
			if err := sess.Send(protocol.ProtoCheckServerAlive); err != nil {
				return err
			}

			msg, err := sess.Expect(protocol.ProtoCheckServerAlive, protocol.ProtoRoomsFull)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrNoReply, err)
			}
			if err := replyError(msg); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Room %s created", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", model.PublicKey, "Room key; \"_\" makes the room public")

	return cmd
}

func newJoinCmd() *cobra.Command {
	var (
		key    string
		ready  bool
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "join <room> <name>",
		Short: "Join a room and optionally play along",
		Long: `Join a room under the given name. The server may adjust the name to keep
it unique within the room; the assigned name is printed.

With --follow, every message the room sends is printed until a winner is
announced or the command is interrupted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, ctx, stop, err := dial(cmd)
			if err != nil {
				return err
			}
			defer stop()

			if err := sess.Send(protocol.ProtoNewUser,
				protocol.F("roomid", args[0]),
				protocol.F("name", args[1]),
				protocol.F("key", key),
			); err != nil {
				return err
			}

			msg, err := sess.Expect(protocol.ProtoNameChange, protocol.ProtoInvalidKey, protocol.ProtoAlreadyInGame)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrNoReply, err)
			}
			if err := replyError(msg); err != nil {
				return err
			}

			name, _ := msg.Get("name")
			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(JoinResult{Room: args[0], Name: name})

			if ready {
				if err := sess.Send(protocol.ProtoReadyUp); err != nil {
					return err
				}
			}
			if !follow {
				return nil
			}

			sess.timeout = 0
			for {
				msg, err := sess.Recv()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("stream error: %w", err)
				}
				out.PrintEvent(msg)
				if msg.Proto == protocol.ProtoGrantWinner {
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&key, "key", model.PublicKey, "Room key for private rooms")
	cmd.Flags().BoolVar(&ready, "ready", false, "Ready up after joining")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream room messages until a winner is announced")

	return cmd
}

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>...",
		Short: "Send raw protocol messages and print the replies",
		Long: `Send each argument as one raw protocol message, e.g.

  roomctl send "proto=0;roomid=R1" "proto=1;roomid=R1;name=Ann" "proto=4"

Replies are printed until none arrives within --timeout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, stop, err := dial(cmd)
			if err != nil {
				return err
			}
			defer stop()

			for _, raw := range args {
				if err := sess.SendRaw([]byte(raw)); err != nil {
					return err
				}
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			for {
				msg, err := sess.Recv()
				if err != nil {
					var closed *websocket.CloseError
					if isTimeout(err) {
						return nil
					}
					if errors.As(err, &closed) {
						out.PrintMessage("Connection closed by server")
						return nil
					}
					return err
				}
				out.PrintEvent(msg)
			}
		},
	}
}
