package dedupe

// Option configures the in-memory Deduper.
type Option func(*window)

// WithCapacity bounds how many ids are remembered; the oldest is evicted first.
// A capacity <= 0 remembers every id.
func WithCapacity(n int) Option {
	return func(w *window) {
		w.capacity = n
	}
}
