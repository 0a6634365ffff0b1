package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Sink names accepted in notify.sinks
const (
	SinkLog     = "log"
	SinkWebhook = "webhook"
	SinkRedis   = "redis"
	SinkNATS    = "nats"
)

// Config is the full server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Rooms     RoomsConfig     `mapstructure:"rooms" yaml:"rooms"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type RoomsConfig struct {
	MaxRooms    int `mapstructure:"max_rooms" yaml:"max_rooms"`
	KeyHashCost int `mapstructure:"key_hash_cost" yaml:"key_hash_cost"`
}

type TransportConfig struct {
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	PingInterval    time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PongWait        time.Duration `mapstructure:"pong_wait" yaml:"pong_wait"`
	WriteWait       time.Duration `mapstructure:"write_wait" yaml:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	MessageRate     float64       `mapstructure:"message_rate" yaml:"message_rate"`
	MessageBurst    int           `mapstructure:"message_burst" yaml:"message_burst"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type NotifyConfig struct {
	Sinks        []string      `mapstructure:"sinks" yaml:"sinks"`
	QueueSize    int           `mapstructure:"queue_size" yaml:"queue_size"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	WebhookURL   string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	RedisURL     string        `mapstructure:"redis_url" yaml:"redis_url"`
	RedisChannel string        `mapstructure:"redis_channel" yaml:"redis_channel"`
	NATSURL      string        `mapstructure:"nats_url" yaml:"nats_url"`
	NATSSubject  string        `mapstructure:"nats_subject" yaml:"nats_subject"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            23363,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Rooms: RoomsConfig{
			MaxRooms:    16,
			KeyHashCost: bcrypt.MinCost,
		},
		Transport: TransportConfig{
			MaxMessageBytes: 4096,
			PingInterval:    54 * time.Second,
			PongWait:        60 * time.Second,
			WriteWait:       10 * time.Second,
			SendBuffer:      256,
			MessageRate:     50,
			MessageBurst:    100,
			AllowedOrigins:  []string{},
		},
		Notify: NotifyConfig{
			Sinks:        []string{SinkLog},
			QueueSize:    64,
			Timeout:      5 * time.Second,
			RedisChannel: "roomserver.events",
			NATSSubject:  "roomserver.events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr returns host:port for the listener
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// HasSink reports whether name is an enabled notification sink
func (c *Config) HasSink(name string) bool {
	return slices.Contains(c.Notify.Sinks, name)
}

// YAML renders the configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ShutdownTimeout > 0, "server.shutdown_timeout must be positive")

	check(c.Rooms.MaxRooms >= 1, "rooms.max_rooms must be at least 1, got %d", c.Rooms.MaxRooms)
	check(c.Rooms.KeyHashCost >= bcrypt.MinCost && c.Rooms.KeyHashCost <= bcrypt.MaxCost,
		"rooms.key_hash_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)

	check(c.Transport.MaxMessageBytes > 0, "transport.max_message_bytes must be positive")
	check(c.Transport.PongWait > 0, "transport.pong_wait must be positive")
	check(c.Transport.PingInterval > 0 && c.Transport.PingInterval < c.Transport.PongWait,
		"transport.ping_interval must be positive and shorter than transport.pong_wait")
	check(c.Transport.WriteWait > 0, "transport.write_wait must be positive")
	check(c.Transport.SendBuffer >= 1, "transport.send_buffer must be at least 1")
	check(c.Transport.MessageRate >= 0, "transport.message_rate must not be negative")

	check(c.Notify.QueueSize >= 1, "notify.queue_size must be at least 1")
	check(c.Notify.Timeout > 0, "notify.timeout must be positive")
	for _, sink := range c.Notify.Sinks {
		switch sink {
		case SinkLog:
		case SinkWebhook:
			check(c.Notify.WebhookURL != "", "notify.webhook_url is required for the webhook sink")
		case SinkRedis:
			check(c.Notify.RedisURL != "", "notify.redis_url is required for the redis sink")
			check(c.Notify.RedisChannel != "", "notify.redis_channel is required for the redis sink")
		case SinkNATS:
			check(c.Notify.NATSURL != "", "notify.nats_url is required for the nats sink")
			check(c.Notify.NATSSubject != "", "notify.nats_subject is required for the nats sink")
		default:
			errs = append(errs, fmt.Errorf("notify.sinks: unknown sink %q", sink))
		}
	}

	check(slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level), "log.level %q is not one of debug, info, warn, error", c.Log.Level)
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q is not one of text, json", c.Log.Format)

	return errors.Join(errs...)
}
