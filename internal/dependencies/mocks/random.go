package mocks

import (
	"fmt"

	"github.com/mcoot/coveytown-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued results are returned first; once a queue is drained, String, Token
// and UUID fall back to predictable unique values so tests need not queue
// every call.
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
	stringCount   int

	// TokenResults is a queue of results to return from Token
	TokenResults []string
	tokenIndex   int
	tokenCount   int

	// UUIDResults is a queue of results to return from UUID
	UUIDResults []string
	uuidIndex   int
	uuidCount   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// String returns the next queued result, or a zero padded counter of the
// requested length
func (r *MockRandom) String(length int, alphabet string) string {
	if r.stringIndex < len(r.StringResults) {
		result := r.StringResults[r.stringIndex]
		r.stringIndex++
		return result
	}
	r.stringCount++
	return fmt.Sprintf("%0*d", length, r.stringCount)
}

// Token returns the next queued result, or prefix plus a counter
func (r *MockRandom) Token(prefix string) string {
	if r.tokenIndex < len(r.TokenResults) {
		result := r.TokenResults[r.tokenIndex]
		r.tokenIndex++
		return result
	}
	r.tokenCount++
	return fmt.Sprintf("%stoken-%d", prefix, r.tokenCount)
}

// UUID returns the next queued result, or a counter based id
func (r *MockRandom) UUID() string {
	if r.uuidIndex < len(r.UUIDResults) {
		result := r.UUIDResults[r.uuidIndex]
		r.uuidIndex++
		return result
	}
	r.uuidCount++
	return fmt.Sprintf("uuid-%d", r.uuidCount)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.TokenResults = append(r.TokenResults, values...)
}

// QueueUUID adds values to the UUID result queue
func (r *MockRandom) QueueUUID(values ...string) {
	r.UUIDResults = append(r.UUIDResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	*r = MockRandom{}
}
