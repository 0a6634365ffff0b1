package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomserver/internal/dependencies/mocks"
	"github.com/mcoot/roomserver/internal/services/registry"
	"github.com/mcoot/roomserver/internal/storage/memory"
	"github.com/mcoot/roomserver/internal/testutil"
	"github.com/mcoot/roomserver/internal/transport/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockIDs      *mocks.MockIDs
	MockNotifier *mocks.MockNotifier
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// maxRooms bounds the registry; keys are hashed at the cheapest bcrypt cost.
func NewTestApp(maxRooms int) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs()
	mockNotifier := mocks.NewMockNotifier()

	wsCfg := ws.DefaultConfig()
	wsCfg.MessageRate = 0

	app := newWithDependencies(store, mockClock, mockRandom, mockIDs, mockNotifier,
		registry.Config{MaxRooms: maxRooms, KeyHashCost: bcrypt.MinCost},
		wsCfg, testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockIDs:      mockIDs,
		MockNotifier: mockNotifier,
	}
}
