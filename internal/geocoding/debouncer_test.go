package geocoding_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bikeroute/bikeroute/internal/geocoding"
)

func TestDebouncer_FiresAfterDelay(t *testing.T) {
	const delay = 30 * time.Millisecond
	provider := &mockProvider{places: places(3)}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), delay)

	start := time.Now()
	got, err := debouncer.Submit(context.Background(), "s1", "Bielefeld")
	require.NoError(t, err)

	assert.Len(t, got, 3)
	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, 0, debouncer.Pending())
}

func TestDebouncer_NewKeystrokeSupersedesPending(t *testing.T) {
	provider := &mockProvider{places: places(1)}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), 50*time.Millisecond)

	firstErr := make(chan error, 1)
	go func() {
		_, err := debouncer.Submit(context.Background(), "s1", "Biel")
		firstErr <- err
	}()

	require.Eventually(t, func() bool { return debouncer.Pending() == 1 }, time.Second, time.Millisecond)

	got, err := debouncer.Submit(context.Background(), "s1", "Bielefeld")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	assert.ErrorIs(t, <-firstErr, geocoding.ErrSuperseded)
	assert.Equal(t, int32(1), provider.calls.Load(), "only the latest keystroke reaches the provider")
	assert.Equal(t, "Bielefeld", provider.lastRequest().Query)
}

func TestDebouncer_SupersedesInFlightFetch(t *testing.T) {
	provider := &mockProvider{places: places(1), block: make(chan struct{})}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), 0)

	firstErr := make(chan error, 1)
	go func() {
		_, err := debouncer.Submit(context.Background(), "s1", "Biel")
		firstErr <- err
	}()

	require.Eventually(t, func() bool { return provider.calls.Load() == 1 }, time.Second, time.Millisecond)

	provider.mu.Lock()
	provider.block = nil
	provider.mu.Unlock()

	_, err := debouncer.Submit(context.Background(), "s1", "Bielefeld")
	require.NoError(t, err)
	assert.ErrorIs(t, <-firstErr, geocoding.ErrSuperseded)
}

func TestDebouncer_ShortInputCancelsPending(t *testing.T) {
	provider := &mockProvider{places: places(1)}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), 50*time.Millisecond)

	firstErr := make(chan error, 1)
	go func() {
		_, err := debouncer.Submit(context.Background(), "s1", "Biel")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return debouncer.Pending() == 1 }, time.Second, time.Millisecond)

	got, err := debouncer.Submit(context.Background(), "s1", "Bi")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, <-firstErr, geocoding.ErrSuperseded)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, 0, debouncer.Pending())
}

func TestDebouncer_SessionsAreIndependent(t *testing.T) {
	provider := &mockProvider{places: places(2)}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), 20*time.Millisecond)

	var wg sync.WaitGroup
	for _, session := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := debouncer.Submit(context.Background(), session, "Lemgo")
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), provider.calls.Load())
}

func TestDebouncer_ContextCancelled(t *testing.T) {
	provider := &mockProvider{places: places(1)}
	debouncer := geocoding.NewDebouncer(newTestSuggester(provider), time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := debouncer.Submit(ctx, "s1", "Bielefeld")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, 0, debouncer.Pending())
}
