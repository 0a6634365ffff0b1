package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/roomserver/internal/config"
	"github.com/mcoot/roomserver/internal/dependencies/clock"
	"github.com/mcoot/roomserver/internal/dependencies/ids"
	"github.com/mcoot/roomserver/internal/dependencies/random"
	"github.com/mcoot/roomserver/internal/dispatch"
	"github.com/mcoot/roomserver/internal/services/notify"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/services/room"
	"github.com/mcoot/roomserver/internal/storage"
	"github.com/mcoot/roomserver/internal/storage/memory"
	"github.com/mcoot/roomserver/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	IDs      ids.Generator
	Notifier notify.Notifier

	// Services
	Registry   *registry.Registry
	Rooms      *room.Controller
	Dispatcher *dispatch.Dispatcher
	Hub        *ws.Hub

	logger  *slog.Logger
	queue   *notify.Queue
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Registry bounds room creation
	// If zero value, defaults to registry.DefaultConfig()
	Registry registry.Config
	// Transport tunes websocket handling
	// If zero value, defaults to ws.DefaultConfig()
	Transport ws.Config
	// Notify selects announcement sinks (optional)
	// If no sinks are named, announcements are discarded
	Notify config.NotifyConfig
}

// FromConfig maps the loaded server configuration onto factory settings
func FromConfig(cfg *config.Config, logger *slog.Logger) Config {
	return Config{
		Logger: logger,
		Registry: registry.Config{
			MaxRooms:    cfg.Rooms.MaxRooms,
			KeyHashCost: cfg.Rooms.KeyHashCost,
		},
		Transport: ws.Config{
			MaxMessageBytes: cfg.Transport.MaxMessageBytes,
			PingInterval:    cfg.Transport.PingInterval,
			PongWait:        cfg.Transport.PongWait,
			WriteWait:       cfg.Transport.WriteWait,
			SendBuffer:      cfg.Transport.SendBuffer,
			MessageRate:     cfg.Transport.MessageRate,
			MessageBurst:    cfg.Transport.MessageBurst,
			AllowedOrigins:  cfg.Transport.AllowedOrigins,
		},
		Notify: cfg.Notify,
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	regCfg := cfg.Registry
	if regCfg.MaxRooms == 0 {
		regCfg = registry.DefaultConfig()
	}
	wsCfg := cfg.Transport
	if wsCfg.SendBuffer == 0 {
		wsCfg = ws.DefaultConfig()
	}

	sinks, closers, err := buildSinks(cfg.Notify, logger)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	var queue *notify.Queue
	if len(sinks) > 0 {
		queue = notify.NewQueue(sinks, cfg.Notify.QueueSize, cfg.Notify.Timeout, logger)
		notifier = queue
	}

	app := newWithDependencies(memory.New(), clock.New(), random.New(), ids.New(), notifier, regCfg, wsCfg, logger)
	app.queue = queue
	app.closers = closers
	return app, nil
}

// buildSinks connects every configured sink. Already-opened sinks are
// closed if a later one fails.
func buildSinks(cfg config.NotifyConfig, logger *slog.Logger) ([]notify.Sink, []io.Closer, error) {
	var sinks []notify.Sink
	var closers []io.Closer

	fail := func(err error) ([]notify.Sink, []io.Closer, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, nil, err
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notify.NewLogSink(logger))
		case config.SinkWebhook:
			sinks = append(sinks, notify.NewWebhookSink(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}))
		case config.SinkRedis:
			sink, err := notify.NewRedisSink(cfg.RedisURL, cfg.RedisChannel)
			if err != nil {
				return fail(fmt.Errorf("redis sink: %w", err))
			}
			sinks = append(sinks, sink)
			closers = append(closers, sink)
		case config.SinkNATS:
			sink, err := notify.NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
			if err != nil {
				return fail(fmt.Errorf("nats sink: %w", err))
			}
			sinks = append(sinks, sink)
			closers = append(closers, sink)
		default:
			return fail(fmt.Errorf("unknown notify sink %q", name))
		}
	}
	return sinks, closers, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	idGen ids.Generator,
	notifier notify.Notifier,
	regCfg registry.Config,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	reg := registry.New(store, clk, notifier, regCfg, logger)
	hub := ws.NewHub(wsCfg, idGen, logger)
	rooms := room.NewController(reg, hub, clk, rnd, notifier, logger)
	dispatcher := dispatch.New(rooms, hub, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		IDs:        idGen,
		Notifier:   notifier,
		Registry:   reg,
		Rooms:      rooms,
		Dispatcher: dispatcher,
		Hub:        hub,
		logger:     logger,
	}
}

// Start launches the event loop and the announcement worker
func (a *App) Start() {
	if a.queue != nil {
		a.queue.Run()
	}
	go a.Hub.Run(a.Dispatcher)
}

// Close stops the event loop, flushes pending announcements and releases
// sink connections
func (a *App) Close() error {
	a.Hub.Stop()
	if a.queue != nil {
		a.queue.Close()
	}

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
