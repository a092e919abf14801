package shadow

import "sync"

// Tracker records the path of the dispatch in progress for one wrapper tree.
//
// Dispatches push their path on entry and pop it on return, so a re-entrant
// dispatch from inside a trap cannot leak its path into the outer trap once it
// has returned. After the outermost dispatch returns, Current keeps reporting
// its path until the next dispatch starts.
type Tracker struct {
	mu    sync.Mutex
	stack [][]string
	last  []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Current returns a copy of the innermost active path, or of the most recent
// one when no dispatch is in progress.
func (t *Tracker) Current() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.stack); n > 0 {
		return clonePath(t.stack[n-1])
	}
	return clonePath(t.last)
}

// Depth returns the number of dispatches in progress.
func (t *Tracker) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}

func (t *Tracker) enter(path []string) {
	t.mu.Lock()
	t.stack = append(t.stack, path)
	t.mu.Unlock()
}

func (t *Tracker) exit() {
	t.mu.Lock()
	if n := len(t.stack); n > 0 {
		t.last = t.stack[n-1]
		t.stack[n-1] = nil
		t.stack = t.stack[:n-1]
	}
	t.mu.Unlock()
}

func clonePath(p []string) []string {
	out := make([]string, len(p))
	copy(out, p)
	return out
}
