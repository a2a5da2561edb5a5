package geocoding_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bikeroute/bikeroute/internal/geocoding"
)

// mockProvider is a scripted geocoding.Provider that records every dispatch.
type mockProvider struct {
	calls atomic.Int32

	mu         sync.Mutex
	places     []geocoding.Place
	err        error
	requests   []geocoding.SearchRequest
	dispatched []time.Time
	block      chan struct{}
}

func (m *mockProvider) Search(ctx context.Context, req geocoding.SearchRequest) ([]geocoding.Place, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.dispatched = append(m.dispatched, time.Now())
	places, err, block := m.places, m.err, m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(places) > req.Limit {
		places = places[:req.Limit]
	}
	return places, nil
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) lastRequest() geocoding.SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

func (m *mockProvider) dispatchTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.dispatched...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
