package notify

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes announcements on a NATS subject
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink connects to url; reconnects are retried forever
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("roomserver"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSSink{conn: conn, subject: subject}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Post(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conn.Publish(s.subject, []byte(text))
}

// Close flushes pending publishes and closes the connection
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
