package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/roomserver/internal/api/apierr"
	"github.com/mcoot/roomserver/internal/protocol"
)

// Client reaches both the admin API and the game socket
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Get performs a GET request against the admin API
func (c *Client) Get(path string, result any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s (%s)", errResp.Error.Message, errResp.Error.Code)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// socketURL maps the server URL onto its websocket endpoint
func (c *Client) socketURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// Dial opens a game session
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.socketURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Session{conn: conn, timeout: c.timeout}, nil
}

// Session is one websocket connection speaking the game protocol
type Session struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// Send encodes and writes a message
func (s *Session) Send(proto protocol.Proto, fields ...protocol.Field) error {
	return s.SendRaw(protocol.Encode(proto, fields...))
}

// SendRaw writes data unchanged
func (s *Session) SendRaw(data []byte) error {
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Recv waits up to the session timeout for the next message. A zero
// timeout waits indefinitely.
func (s *Session) Recv() (protocol.Message, error) {
	var deadline time.Time
	if s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return protocol.Message{}, err
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(data)
}

// Expect reads until a message with one of the given protos arrives
func (s *Session) Expect(protos ...protocol.Proto) (protocol.Message, error) {
	for {
		msg, err := s.Recv()
		if err != nil {
			return protocol.Message{}, err
		}
		for _, p := range protos {
			if msg.Proto == p {
				return msg, nil
			}
		}
	}
}

// Close sends a close frame and closes the connection
func (s *Session) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

// isTimeout reports whether err is a read deadline expiring
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
