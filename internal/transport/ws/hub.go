package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/roomserver/internal/dependencies/ids"
	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/transport"
)

// ErrHubStopped is returned by Do once the hub has shut down
var ErrHubStopped = errors.New("hub stopped")

// Handler receives connection events. All calls happen on the hub's event
// loop, one at a time.
type Handler interface {
	HandleConnect(ctx context.Context, conn model.ConnID)
	HandleDisconnect(ctx context.Context, conn model.ConnID)
	HandleMessage(ctx context.Context, conn model.ConnID, data []byte)
}

type inbound struct {
	client *Client
	data   []byte
}

type task struct {
	fn   func()
	done chan struct{}
}

// Hub owns every websocket connection and serializes their events onto a
// single loop. Send and Close must only be called from that loop, i.e.
// from Handler callbacks or functions passed to Do.
type Hub struct {
	cfg      Config
	ids      ids.Generator
	logger   *slog.Logger
	upgrader websocket.Upgrader
	handler  Handler

	// owned by the event loop
	clients map[model.ConnID]*Client
	pending []*Client

	count atomic.Int64

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	tasks      chan task

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewHub creates a Hub; call Run to start its event loop
func NewHub(cfg Config, ids ids.Generator, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:        cfg,
		ids:        ids,
		logger:     logger.With(slog.String("component", "ws")),
		clients:    make(map[model.ConnID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		tasks:      make(chan task),
		ctx:        ctx,
		cancel:     cancel,
		stopped:    make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

var _ transport.Sender = (*Hub)(nil)

// Run processes events until Stop is called
func (h *Hub) Run(handler Handler) {
	h.handler = handler
	defer close(h.stopped)

	h.logger.Info("ws hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c.id] = c
			h.count.Store(int64(len(h.clients)))
			h.logger.Info("ws client registered",
				slog.String("conn", string(c.id)),
				slog.Int("total_clients", len(h.clients)))
			h.safely("connect", c.id, func() { h.handler.HandleConnect(h.ctx, c.id) })

		case c := <-h.unregister:
			if cur, ok := h.clients[c.id]; ok && cur == c {
				h.drop(c)
			}

		case in := <-h.inbound:
			if cur, ok := h.clients[in.client.id]; ok && cur == in.client {
				h.safely("message", in.client.id, func() { h.handler.HandleMessage(h.ctx, in.client.id, in.data) })
			}

		case t := <-h.tasks:
			h.safely("task", "", t.fn)
			close(t.done)

		case <-h.ctx.Done():
			for _, c := range h.clients {
				close(c.send)
			}
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", len(h.clients)))
			clear(h.clients)
			h.count.Store(0)
			return
		}
		h.flushPending()
	}
}

// Stop shuts down the event loop and closes every connection
func (h *Hub) Stop() {
	h.cancel()
	<-h.stopped
}

// Do runs fn on the event loop and waits for it to finish
func (h *Hub) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan struct{})}
	select {
	case h.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
	select {
	case <-t.done:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	}
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Send queues data for conn. A client whose queue is full is disconnected.
func (h *Hub) Send(conn model.ConnID, data []byte) {
	c, ok := h.clients[conn]
	if !ok || slices.Contains(h.pending, c) {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("ws client too slow - disconnecting", slog.String("conn", string(conn)))
		h.pending = append(h.pending, c)
	}
}

// Close disconnects conn after everything already queued is written
func (h *Hub) Close(conn model.ConnID) {
	if c, ok := h.clients[conn]; ok && !slices.Contains(h.pending, c) {
		h.pending = append(h.pending, c)
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h.ids.NewConnID(), h, conn)
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) deliver(c *Client, data []byte) bool {
	select {
	case h.inbound <- inbound{client: c, data: data}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// drop forgets a client, closes its queue and tells the handler
func (h *Hub) drop(c *Client) {
	delete(h.clients, c.id)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	h.logger.Info("ws client unregistered",
		slog.String("conn", string(c.id)),
		slog.Duration("connection_duration", time.Since(c.connectedAt)),
		slog.Int("total_clients", len(h.clients)))
	h.safely("disconnect", c.id, func() { h.handler.HandleDisconnect(h.ctx, c.id) })
}

// flushPending applies disconnects requested while handling an event.
// Handling them may request more.
func (h *Hub) flushPending() {
	for len(h.pending) > 0 {
		c := h.pending[0]
		h.pending = h.pending[1:]
		if cur, ok := h.clients[c.id]; ok && cur == c {
			h.drop(c)
		}
	}
	h.pending = nil
}

func (h *Hub) safely(event string, conn model.ConnID, fn func()) {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("panic recovered",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
				slog.String("event", event),
				slog.String("conn", string(conn)),
			)
		}
	}()
	fn()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin) || slices.Contains(h.cfg.AllowedOrigins, "*")
}
