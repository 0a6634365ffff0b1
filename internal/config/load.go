package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROOMSERVER_SERVER_PORT
const EnvPrefix = "ROOMSERVER"

// flagKeys maps command-line flags onto configuration keys
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"max-rooms":  "rooms.max_rooms",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Load builds the configuration. Priority: flags > environment > config
// file > defaults. An empty path searches for roomserver.yaml in the
// working directory and /etc/roomserver; a missing file is not an error
// unless path was given explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("roomserver")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/roomserver")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("rooms.max_rooms", d.Rooms.MaxRooms)
	v.SetDefault("rooms.key_hash_cost", d.Rooms.KeyHashCost)

	v.SetDefault("transport.max_message_bytes", d.Transport.MaxMessageBytes)
	v.SetDefault("transport.ping_interval", d.Transport.PingInterval)
	v.SetDefault("transport.pong_wait", d.Transport.PongWait)
	v.SetDefault("transport.write_wait", d.Transport.WriteWait)
	v.SetDefault("transport.send_buffer", d.Transport.SendBuffer)
	v.SetDefault("transport.message_rate", d.Transport.MessageRate)
	v.SetDefault("transport.message_burst", d.Transport.MessageBurst)
	v.SetDefault("transport.allowed_origins", d.Transport.AllowedOrigins)

	v.SetDefault("notify.sinks", d.Notify.Sinks)
	v.SetDefault("notify.queue_size", d.Notify.QueueSize)
	v.SetDefault("notify.timeout", d.Notify.Timeout)
	v.SetDefault("notify.webhook_url", d.Notify.WebhookURL)
	v.SetDefault("notify.redis_url", d.Notify.RedisURL)
	v.SetDefault("notify.redis_channel", d.Notify.RedisChannel)
	v.SetDefault("notify.nats_url", d.Notify.NATSURL)
	v.SetDefault("notify.nats_subject", d.Notify.NATSSubject)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
