package geocoding

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounceDelay is the input inactivity window before a suggestion fires.
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer coalesces keystroke-driven suggestion requests per session. Each
// new submission cancels the session's pending or in-flight request.
type Debouncer struct {
	suggester *Suggester
	delay     time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSuggestion
}

type pendingSuggestion struct {
	superseded chan struct{}
	cancel     context.CancelFunc
}

func (p *pendingSuggestion) supersede() {
	close(p.superseded)
	p.cancel()
}

// NewDebouncer creates a debouncer. A negative delay uses DefaultDebounceDelay.
func NewDebouncer(s *Suggester, delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{
		suggester: s,
		delay:     delay,
		pending:   make(map[string]*pendingSuggestion),
	}
}

// Submit waits out the debounce window and then fetches suggestions. It returns
// ErrSuperseded if a later Submit for the same session arrives first, and an
// empty slice without waiting when text is too short.
func (d *Debouncer) Submit(ctx context.Context, session, text string) ([]Suggestion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	call := &pendingSuggestion{superseded: make(chan struct{}), cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.pending[session]; ok {
		prev.supersede()
		delete(d.pending, session)
	}
	if !d.suggester.Accepts(text) {
		d.mu.Unlock()
		return []Suggestion{}, nil
	}
	d.pending[session] = call
	d.mu.Unlock()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-call.superseded:
		return nil, ErrSuperseded
	case <-ctx.Done():
		d.release(session, call)
		return nil, ctx.Err()
	}

	suggestions := d.suggester.Suggest(ctx, text)

	if !d.release(session, call) {
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// Pending returns the number of sessions with an outstanding request.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// release removes call if it is still current and reports whether it was.
func (d *Debouncer) release(session string, call *pendingSuggestion) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[session] != call {
		return false
	}
	delete(d.pending, session)
	return true
}
