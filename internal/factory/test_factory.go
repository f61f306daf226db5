package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/coveytown-go/internal/dependencies/mocks"
	"github.com/mcoot/coveytown-go/internal/services/towns"
	"github.com/mcoot/coveytown-go/internal/storage/memory"
	"github.com/mcoot/coveytown-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockVideo  *mocks.MockVideoProvider
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockVideo := mocks.NewMockVideoProvider()
	store := memory.New(mockClock)

	townsCfg := towns.DefaultConfig()
	townsCfg.PasswordCost = bcrypt.MinCost
	townsCfg.DemoTownID = "demoTownID"

	app := newWithDependencies(Config{TownsConfig: townsCfg}, store, mockVideo, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockVideo:  mockVideo,
	}
}
