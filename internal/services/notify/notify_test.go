package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roomserver/internal/testutil"
)

type recordingSink struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Post(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return s.err
}

func (s *recordingSink) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func TestQueueDeliversToEverySink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("boom")}
	q := NewQueue([]Sink{a, b}, 8, time.Second, testutil.NopLogger())
	q.Run()

	q.Notify(context.Background(), "one")
	q.Notify(context.Background(), "two")
	q.Close()

	assert.Equal(t, []string{"one", "two"}, a.Texts())
	assert.Equal(t, []string{"one", "two"}, b.Texts())
}

func TestQueueDropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	q := NewQueue([]Sink{sink}, 1, time.Second, testutil.NopLogger())

	q.Notify(context.Background(), "kept")
	q.Notify(context.Background(), "dropped")
	q.Run()
	q.Close()

	assert.Equal(t, []string{"kept"}, sink.Texts())
}

func TestQueueIgnoresNotifyAfterClose(t *testing.T) {
	sink := &recordingSink{}
	q := NewQueue([]Sink{sink}, 4, time.Second, testutil.NopLogger())
	q.Run()
	q.Close()

	q.Notify(context.Background(), "late")

	assert.Zero(t, len(q.messages))
	assert.Empty(t, sink.Texts())
}

func TestQueueIgnoresNotifyAfterCloseWithoutWorker(t *testing.T) {
	q := NewQueue([]Sink{&recordingSink{}}, 4, time.Second, testutil.NopLogger())
	q.Close()

	q.Notify(context.Background(), "late")

	assert.Zero(t, len(q.messages))
}

func TestMessageTexts(t *testing.T) {
	assert.Equal(t, "Public room created: R1", RoomCreated("R1", true))
	assert.Equal(t, "Private room created: R1", RoomCreated("R1", false))
	assert.Equal(t, "Room deleted: R1", RoomDeleted("R1"))
	assert.Equal(t, "Match started in room R1 with 3 players", MatchStarted("R1", 3))
	assert.Equal(t, "Ann won the match in room R1", MatchWon("R1", "Ann"))
}

func TestWebhookSinkPostsContent(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, srv.Client())
	err := sink.Post(context.Background(), "Room deleted: R1")

	require.NoError(t, err)
	assert.Equal(t, "Room deleted: R1", got.Content)
}

func TestWebhookSinkReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWebhookSink(srv.URL, nil).Post(context.Background(), "x")
	assert.Error(t, err)
}

func TestNATSSinkConnectFailure(t *testing.T) {
	_, err := NewNATSSink("nats://127.0.0.1:1", "rooms")
	assert.Error(t, err)
}

type RedisSinkSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	sink   *RedisSink
	ctx    context.Context
}

func TestRedisSinkSuite(t *testing.T) {
	suite.Run(t, new(RedisSinkSuite))
}

func (s *RedisSinkSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.sink = NewRedisSinkWithClient(s.client, "rooms")
	s.ctx = context.Background()
}

func (s *RedisSinkSuite) TearDownTest() {
	_ = s.sink.Close()
	s.mini.Close()
}

func (s *RedisSinkSuite) TestPublishesToChannel() {
	sub := redis.NewClient(&redis.Options{Addr: s.mini.Addr()}).Subscribe(s.ctx, "rooms")
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.sink.Post(s.ctx, "Public room created: R1"))

	select {
	case msg := <-sub.Channel():
		s.Equal("rooms", msg.Channel)
		s.Equal("Public room created: R1", msg.Payload)
	case <-time.After(2 * time.Second):
		s.Fail("no message published")
	}
}

func (s *RedisSinkSuite) TestNewRedisSinkPingsServer() {
	sink, err := NewRedisSink("redis://"+s.mini.Addr(), "rooms")
	s.Require().NoError(err)
	s.NoError(sink.Close())

	_, err = NewRedisSink("not a url", "rooms")
	s.Error(err)
}
