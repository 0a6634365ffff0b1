package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/roomserver/internal/dependencies/ids"
	"github.com/mcoot/roomserver/internal/model"
)

// MockIDs issues sequential connection ids: conn-1, conn-2, ...
type MockIDs struct {
	mu   sync.Mutex
	next int
}

var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

func (g *MockIDs) NewConnID() model.ConnID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return model.ConnID(fmt.Sprintf("conn-%d", g.next))
}
