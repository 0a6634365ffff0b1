package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes announcements on a Redis channel
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink connects to url and verifies the connection
func NewRedisSink(url, channel string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisSinkWithClient(client, channel), nil
}

// NewRedisSinkWithClient wraps an existing client (for testing)
func NewRedisSinkWithClient(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Post(ctx context.Context, text string) error {
	return s.client.Publish(ctx, s.channel, text).Err()
}

// Close closes the Redis connection
func (s *RedisSink) Close() error {
	return s.client.Close()
}
