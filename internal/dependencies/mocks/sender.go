package mocks

import (
	"sync"

	"github.com/mcoot/roomserver/internal/model"
	"github.com/mcoot/roomserver/internal/protocol"
	"github.com/mcoot/roomserver/internal/transport"
)

// SentMessage is a message captured by MockSender
type SentMessage struct {
	Conn model.ConnID
	Data []byte
}

// MockSender records outbound traffic instead of writing to a network
type MockSender struct {
	mu     sync.Mutex
	Sent   []SentMessage
	Closed []model.ConnID
}

var _ transport.Sender = (*MockSender)(nil)

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (s *MockSender) Send(conn model.ConnID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, SentMessage{Conn: conn, Data: append([]byte(nil), data...)})
}

func (s *MockSender) Close(conn model.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = append(s.Closed, conn)
}

// Messages decodes everything sent to conn, in order
func (s *MockSender) Messages(conn model.ConnID) []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []protocol.Message
	for _, m := range s.Sent {
		if m.Conn != conn {
			continue
		}
		if msg, err := protocol.Decode(m.Data); err == nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Protos lists the proto of every message sent to conn
func (s *MockSender) Protos(conn model.ConnID) []protocol.Proto {
	var protos []protocol.Proto
	for _, m := range s.Messages(conn) {
		protos = append(protos, m.Proto)
	}
	return protos
}

// Raw lists the encoded messages sent to conn
func (s *MockSender) Raw(conn model.ConnID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var raw []string
	for _, m := range s.Sent {
		if m.Conn == conn {
			raw = append(raw, string(m.Data))
		}
	}
	return raw
}

// WasClosed reports whether Close was called for conn
func (s *MockSender) WasClosed(conn model.ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Closed {
		if c == conn {
			return true
		}
	}
	return false
}

// Reset forgets all recorded traffic
func (s *MockSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = nil
	s.Closed = nil
}
