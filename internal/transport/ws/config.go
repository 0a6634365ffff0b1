package ws

import "time"

// Config tunes connection handling
type Config struct {
	// MaxMessageBytes caps a single inbound frame
	MaxMessageBytes int64

	// Keepalive
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration

	// SendBuffer is the per-connection outbound queue; a client that falls
	// this far behind is disconnected
	SendBuffer int

	// Inbound throttling per connection; zero rate disables it
	MessageRate  float64
	MessageBurst int

	// AllowedOrigins restricts browser origins; empty allows all
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for connection handling
func DefaultConfig() Config {
	return Config{
		MaxMessageBytes: 4096,
		PingInterval:    54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		SendBuffer:      256,
		MessageRate:     50,
		MessageBurst:    100,
	}
}
