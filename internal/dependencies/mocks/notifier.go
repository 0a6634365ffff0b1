package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/roomserver/internal/services/notify"
)

// MockNotifier records announcements synchronously
type MockNotifier struct {
	mu    sync.Mutex
	Texts []string
}

var _ notify.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (n *MockNotifier) Notify(ctx context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Texts = append(n.Texts, text)
}

// All returns a copy of the recorded announcements
func (n *MockNotifier) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Texts...)
}
