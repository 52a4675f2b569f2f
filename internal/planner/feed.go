package planner

import "sync"

// ApplicationChange is one entry of the live application feed.
type ApplicationChange struct {
	ID        int64  `json:"id"`
	Status    string `json:"status,omitempty"`
	Withdrawn bool   `json:"withdrawn,omitempty"`
}

// Feed fans application changes out to subscribers (the websocket
// handler). Slow subscribers drop messages rather than block writers.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan ApplicationChange
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan ApplicationChange)}
}

// Subscribe registers a subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (f *Feed) Subscribe() (<-chan ApplicationChange, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan ApplicationChange, 16)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers a change to every subscriber without blocking.
func (f *Feed) Publish(c ApplicationChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
