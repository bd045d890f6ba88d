package factory

import (
	"time"

	"github.com/mcoot/rpsroom/internal/dependencies/mocks"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/testutil"
	"github.com/mcoot/rpsroom/internal/transport"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App for id over tr with mocked clock and randomness
func NewTestApp(id model.Identity, tr transport.Transport) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(id, tr, mockClock, mockRandom, 0, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Phase returns the coordinator's current phase
func (t *TestApp) Phase() model.Phase {
	return t.Coordinator.Snapshot().Phase
}
