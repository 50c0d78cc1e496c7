// Package dedupe remembers recently submitted vote round ids so a client retry
// never applies the same round twice.
package dedupe

import (
	"context"
	"sync"
)

// DefaultCapacity is the number of round ids remembered when no option is given.
const DefaultCapacity = 50000

// Deduper tracks round ids that were already accepted.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it if not.
	SeenAndRecord(ctx context.Context, id string) bool
	// Forget drops id so the round can be submitted again, e.g. after the queue
	// refused it.
	Forget(ctx context.Context, id string)
	// Len is the number of ids currently remembered.
	Len() int
}

type slot struct {
	id   string
	used bool
}

// window remembers the last capacity ids in a ring. Slots of forgotten ids are
// left in place and skipped when the ring wraps over them.
type window struct {
	mu       sync.Mutex
	slots    map[string]int // id -> ring position
	ring     []slot
	next     int
	capacity int // <= 0 keeps every id
}

// New returns an in-memory Deduper.
func New(opts ...Option) Deduper {
	w := &window{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(w)
	}
	w.slots = make(map[string]int)
	if w.capacity > 0 {
		w.ring = make([]slot, w.capacity)
	}
	return w
}

func (w *window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.slots[id]; ok {
		return true
	}
	if w.capacity <= 0 {
		w.slots[id] = -1
		return false
	}

	// Evict the oldest id unless it was forgotten or re-recorded elsewhere.
	if old := w.ring[w.next]; old.used && w.owns(old.id, w.next) {
		delete(w.slots, old.id)
	}
	w.ring[w.next] = slot{id: id, used: true}
	w.slots[id] = w.next
	w.next = (w.next + 1) % w.capacity
	return false
}

func (w *window) Forget(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.slots, id)
}

func (w *window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.slots)
}

// owns reports whether id is still recorded at ring position pos.
func (w *window) owns(id string, pos int) bool {
	p, ok := w.slots[id]
	return ok && p == pos
}
