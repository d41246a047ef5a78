package core

import (
	"sync"
	"time"
)

// Clock abstracts time operations for testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// NewTicker creates a new ticker that will send on its channel every d duration
	NewTicker(d time.Duration) *time.Ticker
}

// RealClock implements Clock using the real system time
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker creates a new time.Ticker
func (RealClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// MockClock implements Clock for testing
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	tickers     int
}

// NewMockClock returns a MockClock frozen at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// NewTicker returns a real ticker with a very long period so tests drive
// ticks by hand. It counts how many tickers were requested.
func (m *MockClock) NewTicker(d time.Duration) *time.Ticker {
	m.mu.Lock()
	m.tickers++
	m.mu.Unlock()
	return time.NewTicker(24 * time.Hour)
}

// TickersCreated reports how many tickers were requested so far
func (m *MockClock) TickersCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickers
}

// Advance moves the mocked time forward by the given duration
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Set sets the mocked current time to a specific value
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Ensure implementations satisfy the interface
var (
	_ Clock = RealClock{}
	_ Clock = (*MockClock)(nil)
)
