package pricing

import (
	"sync"

	"rentprice/internal/types"
)

// Tracker tags progressive quotes with a request identity. Only the most
// recent identity may still publish; results for older ones are dropped.
type Tracker struct {
	mu      sync.Mutex
	current types.ID
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts a new request, superseding any earlier one.
func (t *Tracker) Begin() types.ID {
	id := types.NewID()
	t.mu.Lock()
	t.current = id
	t.mu.Unlock()
	return id
}

func (t *Tracker) Current() types.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Apply runs fn only while id is current and reports whether it ran. fn runs
// under the tracker's lock so a concurrent Begin cannot interleave with it.
func (t *Tracker) Apply(id types.ID, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == "" || id != t.current {
		return false
	}
	fn()
	return true
}

// Trackers hands out one Tracker per client session.
type Trackers struct {
	mu       sync.Mutex
	sessions map[string]*Tracker
}

func NewTrackers() *Trackers {
	return &Trackers{sessions: make(map[string]*Tracker)}
}

func (ts *Trackers) For(session string) *Tracker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.sessions[session]
	if !ok {
		t = NewTracker()
		ts.sessions[session] = t
	}
	return t
}

// Release forgets session once id, its latest request, has finished.
// A session that has since begun another request is kept. The tracker's own
// lock may be held across a slow emit, so it is never taken under ts.mu.
func (ts *Trackers) Release(session string, id types.ID) {
	ts.mu.Lock()
	t, ok := ts.sessions[session]
	ts.mu.Unlock()
	if !ok || t.Current() != id {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.sessions[session] == t {
		delete(ts.sessions, session)
	}
}

func (ts *Trackers) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.sessions)
}
