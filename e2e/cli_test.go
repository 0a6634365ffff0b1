package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomserver/internal/api"
	"github.com/mcoot/roomserver/internal/api/response"
	"github.com/mcoot/roomserver/internal/cli"
	"github.com/mcoot/roomserver/internal/factory"
	"github.com/mcoot/roomserver/internal/testutil"
)

// startTestServer runs the production wiring behind an httptest server
func startTestServer(t *testing.T) string {
	t.Helper()

	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)
	app.Start()

	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Hub:      app.Hub,
		Registry: app.Registry,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = app.Close()
	})
	return server.URL
}

// run executes roomctl in-process with JSON output
func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", serverURL, "--output", "json", "--timeout", "2s"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// decodeAll splits concatenated JSON documents
func decodeAll(t *testing.T, output string) []json.RawMessage {
	t.Helper()

	var docs []json.RawMessage
	dec := json.NewDecoder(strings.NewReader(output))
	for {
		var doc json.RawMessage
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs
		}
		require.NoError(t, err)
		docs = append(docs, doc)
	}
}

// player is a raw websocket participant driven by the test
type player struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialPlayer(t *testing.T, serverURL string) *player {
	t.Helper()

	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &player{t: t, conn: conn}
}

func (p *player) send(text string) {
	require.NoError(p.t, p.conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

func (p *player) recv() (string, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return "", err
	}
	_, data, err := p.conn.ReadMessage()
	return string(data), err
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	url := startTestServer(t)

	output, err := run(t, url, "health")
	require.NoError(t, err, "output: %s", output)

	var resp cli.HealthResult
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_Ping(t *testing.T) {
	url := startTestServer(t)

	output, err := run(t, url, "ping")
	require.NoError(t, err, "output: %s", output)

	var resp cli.PingResult
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Positive(t, resp.RoundTrip)
}

func TestCLI_CreateAndInspectRooms(t *testing.T) {
	url := startTestServer(t)

	output, err := run(t, url, "create", "R1")
	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, output, "Room R1 created")

	output, err = run(t, url, "create", "vault", "--key", "hunter2")
	require.NoError(t, err, "output: %s", output)

	output, err = run(t, url, "rooms", "list")
	require.NoError(t, err, "output: %s", output)

	var list response.RoomList
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "R1", list.Rooms[0].ID)
	assert.True(t, list.Rooms[0].Public)
	assert.False(t, list.Rooms[1].Public)

	output, err = run(t, url, "rooms", "get", "R1")
	require.NoError(t, err, "output: %s", output)

	var room response.Room
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, "lobby", room.Phase)
	assert.Empty(t, room.Players)

	_, err = run(t, url, "rooms", "get", "nope")
	assert.ErrorContains(t, err, "ROOM_NOT_FOUND")
}

func TestCLI_JoinPrivateRoom(t *testing.T) {
	url := startTestServer(t)

	_, err := run(t, url, "create", "vault", "--key", "hunter2")
	require.NoError(t, err)

	_, err = run(t, url, "join", "vault", "Eve", "--key", "guess")
	assert.ErrorIs(t, err, cli.ErrInvalidKey)

	output, err := run(t, url, "join", "vault", "Eve", "--key", "hunter2")
	require.NoError(t, err, "output: %s", output)

	var joined cli.JoinResult
	require.NoError(t, json.Unmarshal([]byte(output), &joined))
	assert.Equal(t, cli.JoinResult{Room: "vault", Name: "Eve"}, joined)
}

func TestCLI_SendRaw(t *testing.T) {
	url := startTestServer(t)

	output, err := run(t, url, "--timeout", "300ms", "send",
		"proto=0;roomid=R1",
		"proto=1;roomid=R1;name=Ann",
		"proto=4",
	)
	require.NoError(t, err, "output: %s", output)

	docs := decodeAll(t, output)
	require.Len(t, docs, 2)

	var name, roster cli.Event
	require.NoError(t, json.Unmarshal(docs[0], &name))
	require.NoError(t, json.Unmarshal(docs[1], &roster))
	assert.Equal(t, "NAME_CHANGE", name.Proto)
	assert.Equal(t, []string{"name=Ann"}, name.Fields)
	assert.Equal(t, "GET_USER_LIST", roster.Proto)
	assert.Equal(t, []string{"0=Ann"}, roster.Fields)
}

func TestCLI_FollowMatchToWinner(t *testing.T) {
	url := startTestServer(t)

	_, err := run(t, url, "create", "R1")
	require.NoError(t, err)

	// Bob joins over a raw socket
	bob := dialPlayer(t, url)
	bob.send("proto=1;roomid=R1;name=Bob")
	reply, err := bob.recv()
	require.NoError(t, err)
	require.Equal(t, "proto=7;name=Bob", reply)

	// Bob readies once Ann has, then dies as soon as the match starts
	go func() {
		if !waitForReady(url, "R1", "Ann") {
			return
		}
		_ = bob.conn.WriteMessage(websocket.TextMessage, []byte("proto=2"))
		for {
			msg, err := bob.recv()
			if err != nil {
				return
			}
			if msg == "proto=3;" {
				_ = bob.conn.WriteMessage(websocket.TextMessage, []byte("proto=6"))
				return
			}
		}
	}()

	output, err := run(t, url, "join", "R1", "Ann", "--ready", "--follow")
	require.NoError(t, err, "output: %s", output)

	docs := decodeAll(t, output)
	require.GreaterOrEqual(t, len(docs), 5)

	var joined cli.JoinResult
	require.NoError(t, json.Unmarshal(docs[0], &joined))
	assert.Equal(t, "Ann", joined.Name)

	var protos []string
	for _, doc := range docs[1:] {
		var evt cli.Event
		require.NoError(t, json.Unmarshal(doc, &evt))
		protos = append(protos, evt.Proto)
	}
	assert.Equal(t, []string{"GET_USER_LIST", "GET_LEVEL_LIST", "START_GAME", "GRANT_WINNER"}, protos)

	var winner cli.Event
	require.NoError(t, json.Unmarshal(docs[len(docs)-1], &winner))
	assert.Equal(t, []string{"winner=Ann"}, winner.Fields)
}

// waitForReady polls the admin API until name is seated and ready in room
func waitForReady(serverURL, room, name string) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverURL + "/api/v1/rooms/" + room)
		if err == nil {
			var r response.Room
			decodeErr := json.NewDecoder(resp.Body).Decode(&r)
			_ = resp.Body.Close()
			if decodeErr == nil {
				for _, p := range r.Players {
					if p.Name == name && p.Ready {
						return true
					}
				}
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
