package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcoot/coveytown-go/internal/model"
)

// MockVideoProvider is a mock credential provider for testing.
// It issues predictable tokens and fails every request while Err is set.
type MockVideoProvider struct {
	mu    sync.Mutex
	Err   error
	calls int
}

// NewMockVideoProvider creates a MockVideoProvider that always succeeds
func NewMockVideoProvider() *MockVideoProvider {
	return &MockVideoProvider{}
}

// GetTokenForTown returns a token naming the town and player
func (p *MockVideoProvider) GetTokenForTown(ctx context.Context, townID model.TownID, playerID model.PlayerID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.Err != nil {
		return "", p.Err
	}
	return fmt.Sprintf("video-%s-%s", townID, playerID), nil
}

// Calls returns how many tokens have been requested
func (p *MockVideoProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Fail makes every subsequent request return err; nil restores success
func (p *MockVideoProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Err = err
}
