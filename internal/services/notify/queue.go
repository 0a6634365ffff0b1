package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Queue posts announcements to its sinks from a background worker.
// A full buffer drops the announcement.
type Queue struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger

	messages chan string
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewQueue creates a Queue; call Run to start delivery
func NewQueue(sinks []Sink, size int, timeout time.Duration, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		sinks:    sinks,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "notify")),
		messages: make(chan string, size),
		done:     make(chan struct{}),
	}
}

var _ Notifier = (*Queue)(nil)

// Notify enqueues text without blocking
func (q *Queue) Notify(ctx context.Context, text string) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.messages <- text:
	default:
		q.logger.Warn("notification dropped - queue full", slog.String("text", text))
	}
}

// Run starts the delivery worker
func (q *Queue) Run() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case text := <-q.messages:
				q.deliver(text)
			case <-q.done:
				q.drain()
				return
			}
		}
	}()
}

// Close stops accepting announcements, flushes what is buffered and waits
// for the worker to finish
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *Queue) drain() {
	for {
		select {
		case text := <-q.messages:
			q.deliver(text)
		default:
			return
		}
	}
}

func (q *Queue) deliver(text string) {
	for _, sink := range q.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := sink.Post(ctx, text)
		cancel()
		if err != nil {
			q.logger.Warn("notification failed",
				slog.String("sink", sink.Name()),
				slog.String("error", err.Error()))
		}
	}
}
