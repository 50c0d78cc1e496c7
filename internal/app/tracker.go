package service

import (
	"sync"

	"github.com/okian/tradevalue/internal/domain/model"
)

// tracker keeps the status of the most recent rounds. The oldest round is
// forgotten once capacity is exceeded.
type tracker struct {
	mu       sync.RWMutex
	capacity int
	results  map[string]model.RoundResult
	order    []string
}

func newTracker(capacity int) *tracker {
	return &tracker{
		capacity: max(capacity, 1),
		results:  make(map[string]model.RoundResult),
	}
}

// pending registers a round that was just accepted.
func (t *tracker) pending(r model.Round) model.RoundResult {
	res := model.RoundResult{ID: r.ID, Status: model.RoundPending, SubmittedAt: r.SubmittedAt}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.results[r.ID]; !ok {
		t.order = append(t.order, r.ID)
	}
	t.results[r.ID] = res
	for len(t.order) > t.capacity {
		delete(t.results, t.order[0])
		t.order = t.order[1:]
	}
	return res
}

// Finish stores the outcome of a round the worker processed.
func (t *tracker) Finish(res model.RoundResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.results[res.ID]; !ok {
		return
	}
	t.results[res.ID] = res
}

func (t *tracker) get(id string) (model.RoundResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.results[id]
	return res, ok
}

func (t *tracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.results[id]; !ok {
		return
	}
	delete(t.results, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *tracker) count(status model.RoundStatus) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, r := range t.results {
		if r.Status == status {
			n++
		}
	}
	return n
}
