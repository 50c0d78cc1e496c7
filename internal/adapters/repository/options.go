package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithPlayersFile writes the catalog back to path after every applied update.
func WithPlayersFile(path string) Option {
	return func(s *MemoryStore) {
		s.playersFile = path
	}
}

// WithSnapshotDir keeps snapshots as <day>.json files in dir, the layout the
// snapshot job has always produced.
func WithSnapshotDir(dir string) Option {
	return func(s *MemoryStore) {
		s.snapshotDir = dir
	}
}
